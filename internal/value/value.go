package value

import (
	"strconv"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/unit"
)

// Value is a number tagged with a unit. The number is always held at the
// unit's base scale: constructing a Value from "5 km" stores 5000 with
// unit m. That makes same-dimension values directly comparable and
// addable without per-operation rescaling.
type Value struct {
	Num  cty.Value
	Unit unit.Unit
}

// Number returns a dimensionless value.
func Number(f float64) Value {
	return Value{Num: cty.NumberFloatVal(f), Unit: unit.Dimensionless}
}

// With pairs a number with a unit as-is, without rescaling. The caller
// asserts n is already at u's base scale.
func With(n cty.Value, u unit.Unit) Value {
	return Value{Num: n, Unit: u}
}

// Normalize folds a unit's scale factor into the number and drops to the
// base unit, so 5 km becomes 5000 m.
func Normalize(n cty.Value, u unit.Unit) Value {
	if u.Factor != 1 {
		n = n.Multiply(cty.NumberFloatVal(u.Factor))
	}
	return Value{Num: n, Unit: u.Base()}
}

// Float returns the numeric payload as a float64, rounding if the exact
// value does not fit.
func (v Value) Float() float64 {
	f, _ := v.Num.AsBigFloat().Float64()
	return f
}

// Equal reports numeric and dimensional equality.
func (v Value) Equal(o Value) bool {
	return v.Unit.SameDim(o.Unit) && v.Num.RawEquals(o.Num)
}

// IsZero reports whether the numeric payload is exactly zero.
func (v Value) IsZero() bool {
	return v.Num.AsBigFloat().Sign() == 0
}

func (v Value) String() string {
	s := strconv.FormatFloat(v.Float(), 'g', -1, 64)
	if u := v.Unit.String(); u != "" {
		return s + " " + u
	}
	return s
}
