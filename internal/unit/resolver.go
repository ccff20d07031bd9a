package unit

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Op identifies the arithmetic operation a compatibility check is for.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

// ErrIncompatible is returned by Combine and Convert when the operand
// dimensions do not admit the operation.
var ErrIncompatible = errors.New("incompatible units")

// Resolver validates and combines units. The engine treats it as an
// injected collaborator so tests (and hosts with their own unit systems)
// can substitute it.
type Resolver interface {
	// Compatible reports whether a and b may be combined under op.
	Compatible(a, b Unit, op Op) bool

	// Combine returns the unit of the result of applying op to operands
	// with units a and b.
	Combine(a, b Unit, op Op) (Unit, error)

	// Convert rescales a base-scale number from one unit to another of
	// the same dimension.
	Convert(n cty.Value, from, to Unit) (cty.Value, error)
}

// SI is the default Resolver over SI dimension vectors.
type SI struct{}

// NewResolver returns the default SI resolver.
func NewResolver() SI {
	return SI{}
}

// Compatible implements Resolver. Addition-like operations need equal
// dimensions; multiplication and division always compose.
func (SI) Compatible(a, b Unit, op Op) bool {
	switch op {
	case OpAdd, OpSub, OpMod:
		return a.SameDim(b)
	case OpMul, OpDiv:
		return true
	default:
		return false
	}
}

// Combine implements Resolver.
func (r SI) Combine(a, b Unit, op Op) (Unit, error) {
	if !r.Compatible(a, b, op) {
		return Unit{}, fmt.Errorf("%w: %s and %s", ErrIncompatible, display(a), display(b))
	}
	switch op {
	case OpAdd, OpSub, OpMod:
		return a.Base(), nil
	case OpMul:
		d := a.Dim.Add(b.Dim)
		return Unit{Dim: d, Factor: 1, Symbol: render(d)}, nil
	case OpDiv:
		d := a.Dim.Sub(b.Dim)
		return Unit{Dim: d, Factor: 1, Symbol: render(d)}, nil
	default:
		return Unit{}, fmt.Errorf("%w: unsupported operation", ErrIncompatible)
	}
}

// Convert implements Resolver. The input is at from's base scale (how the
// store keeps all values), the output at to's declared scale.
func (SI) Convert(n cty.Value, from, to Unit) (cty.Value, error) {
	if !from.SameDim(to) {
		return cty.NilVal, fmt.Errorf("%w: cannot convert %s to %s", ErrIncompatible, display(from), display(to))
	}
	if to.Factor == from.Factor {
		return n, nil
	}
	ratio := cty.NumberFloatVal(from.Factor / to.Factor)
	return n.Multiply(ratio), nil
}

// display renders a unit for error messages, naming the dimensionless
// case explicitly.
func display(u Unit) string {
	if u.IsDimensionless() {
		return "dimensionless"
	}
	return u.String()
}
