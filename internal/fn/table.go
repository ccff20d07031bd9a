package fn

import (
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

// Func is one callable formula function.
type Func struct {
	Name string

	// MinArgs and MaxArgs bound the argument count; MaxArgs of -1 means
	// variadic.
	MinArgs int
	MaxArgs int

	// Aggregate marks functions whose arguments may include expanded
	// ranges.
	Aggregate bool

	Apply func(args []value.Value, r unit.Resolver) (value.Value, *value.CellError)
}

// Table maps lowercased function names to implementations.
type Table map[string]Func

// Has reports whether name is callable. It is the parser's allow-list.
func (t Table) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// domainCheck validates the numeric argument of a one-argument function
// before it is applied.
type domainCheck func(f float64) *value.CellError

func requirePositive(name string) domainCheck {
	return func(f float64) *value.CellError {
		if f <= 0 {
			return value.NewError(value.KindDomain, "%s of non-positive value %g", name, f)
		}
		return nil
	}
}

func requireUnitInterval(name string) domainCheck {
	return func(f float64) *value.CellError {
		if f < -1 || f > 1 {
			return value.NewError(value.KindDomain, "%s of %g is outside [-1, 1]", name, f)
		}
		return nil
	}
}

// dimensionless1 builds a one-argument function that requires a
// dimensionless input and returns a dimensionless output.
func dimensionless1(name string, f func(float64) float64, check domainCheck) Func {
	return Func{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Apply: func(args []value.Value, _ unit.Resolver) (value.Value, *value.CellError) {
			v := args[0]
			if !v.Unit.IsDimensionless() {
				return value.Value{}, value.NewError(value.KindUnitMismatch,
					"%s requires a dimensionless argument, got %s", name, v.Unit)
			}
			x := v.Float()
			if check != nil {
				if cerr := check(x); cerr != nil {
					return value.Value{}, cerr
				}
			}
			return value.Number(f(x)), nil
		},
	}
}

// Default returns the standard table.
func Default() Table {
	t := Table{}

	for name, f := range map[string]func(float64) float64{
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"atan": math.Atan,
		"exp":  math.Exp,
	} {
		t[name] = dimensionless1(name, f, nil)
	}
	t["ln"] = dimensionless1("ln", math.Log, requirePositive("ln"))
	t["log"] = dimensionless1("log", math.Log10, requirePositive("log"))
	t["asin"] = dimensionless1("asin", math.Asin, requireUnitInterval("asin"))
	t["acos"] = dimensionless1("acos", math.Acos, requireUnitInterval("acos"))

	t["sqrt"] = Func{Name: "sqrt", MinArgs: 1, MaxArgs: 1, Apply: applySqrt}

	t["abs"] = Func{
		Name:    "abs",
		MinArgs: 1,
		MaxArgs: 1,
		Apply: func(args []value.Value, _ unit.Resolver) (value.Value, *value.CellError) {
			v := args[0]
			if v.Num.AsBigFloat().Sign() < 0 {
				v.Num = v.Num.Multiply(cty.NumberIntVal(-1))
			}
			return v, nil
		},
	}

	t["sum"] = aggregate("sum", func(vals []value.Value) (value.Value, *value.CellError) {
		acc := cty.Zero
		for _, v := range vals {
			acc = acc.Add(v.Num)
		}
		return value.With(acc, vals[0].Unit), nil
	})
	t["mean"] = aggregate("mean", func(vals []value.Value) (value.Value, *value.CellError) {
		acc := cty.Zero
		for _, v := range vals {
			acc = acc.Add(v.Num)
		}
		return value.With(acc.Divide(cty.NumberIntVal(int64(len(vals)))), vals[0].Unit), nil
	})
	t["min"] = aggregate("min", func(vals []value.Value) (value.Value, *value.CellError) {
		best := vals[0]
		for _, v := range vals[1:] {
			if v.Num.LessThan(best.Num).True() {
				best = v
			}
		}
		return best, nil
	})
	t["max"] = aggregate("max", func(vals []value.Value) (value.Value, *value.CellError) {
		best := vals[0]
		for _, v := range vals[1:] {
			if best.Num.LessThan(v.Num).True() {
				best = v
			}
		}
		return best, nil
	})

	t["count"] = Func{
		Name:      "count",
		MinArgs:   1,
		MaxArgs:   -1,
		Aggregate: true,
		Apply: func(args []value.Value, _ unit.Resolver) (value.Value, *value.CellError) {
			return value.With(cty.NumberIntVal(int64(len(args))), unit.Dimensionless), nil
		},
	}

	return t
}

func applySqrt(args []value.Value, _ unit.Resolver) (value.Value, *value.CellError) {
	v := args[0]
	f := v.Float()
	if f < 0 {
		return value.Value{}, value.NewError(value.KindDomain, "sqrt of negative value %g", f)
	}
	u := unit.Dimensionless
	if !v.Unit.IsDimensionless() {
		if !v.Unit.Dim.Even() {
			return value.Value{}, value.NewError(value.KindUnitMismatch,
				"sqrt of %s has no whole-exponent unit", v.Unit)
		}
		u = unit.Unit{Dim: v.Unit.Dim.Halve(), Factor: 1}.Base()
	}
	return value.With(cty.NumberFloatVal(math.Sqrt(f)), u), nil
}

// aggregate wraps a reducer with the shared checks: at least one element
// and dimensionally identical elements.
func aggregate(name string, reduce func([]value.Value) (value.Value, *value.CellError)) Func {
	return Func{
		Name:      name,
		MinArgs:   1,
		MaxArgs:   -1,
		Aggregate: true,
		Apply: func(args []value.Value, _ unit.Resolver) (value.Value, *value.CellError) {
			if cerr := sameDim(name, args); cerr != nil {
				return value.Value{}, cerr
			}
			return reduce(args)
		},
	}
}

func sameDim(name string, vals []value.Value) *value.CellError {
	for _, v := range vals[1:] {
		if !v.Unit.SameDim(vals[0].Unit) {
			return value.NewError(value.KindUnitMismatch,
				"%s over mixed units %s and %s", name, vals[0].Unit, v.Unit)
		}
	}
	return nil
}
