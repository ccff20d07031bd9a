package eval

import (
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

// Env supplies everything an evaluation needs. Lookup returns the cached
// result of a dependency; the scheduler guarantees dependencies inside
// the pass were committed before their dependents evaluate.
type Env struct {
	Lookup   func(cellref.Ref) value.Result
	Resolver unit.Resolver
	Funcs    fn.Table
}

// Evaluate computes the value of a parsed formula.
func Evaluate(ast *formula.Ast, env Env) (value.Value, *value.CellError) {
	return evalNode(ast.Root, env)
}

func evalNode(n formula.Node, env Env) (value.Value, *value.CellError) {
	switch x := n.(type) {
	case *formula.NumberLit:
		return value.With(x.Val, unit.Dimensionless), nil
	case *formula.CellRef:
		return lookup(x.Ref, env)
	case *formula.RangeRef:
		// The parser only admits ranges as call arguments; reaching one
		// here means the AST was built by hand.
		return value.Value{}, value.NewError(value.KindParse, "range %s outside a function call", x.Rng)
	case *formula.Unary:
		v, cerr := evalNode(x.X, env)
		if cerr != nil {
			return value.Value{}, cerr
		}
		v.Num = v.Num.Multiply(cty.NumberIntVal(-1))
		return v, nil
	case *formula.Binary:
		return evalBinary(x, env)
	case *formula.Call:
		return evalCall(x, env)
	default:
		return value.Value{}, value.NewError(value.KindParse, "unknown expression node")
	}
}

func lookup(ref cellref.Ref, env Env) (value.Value, *value.CellError) {
	res := env.Lookup(ref)
	switch res.Kind {
	case value.ResultValue:
		return res.Val, nil
	case value.ResultError:
		return value.Value{}, value.NewError(value.KindDependency, "referenced cell %s has an error", ref)
	default:
		return value.Value{}, value.NewError(value.KindDependency, "referenced cell %s is empty", ref)
	}
}

var binOps = map[formula.BinOp]unit.Op{
	formula.OpAdd: unit.OpAdd,
	formula.OpSub: unit.OpSub,
	formula.OpMul: unit.OpMul,
	formula.OpDiv: unit.OpDiv,
	formula.OpMod: unit.OpMod,
}

func evalBinary(b *formula.Binary, env Env) (value.Value, *value.CellError) {
	l, cerr := evalNode(b.L, env)
	if cerr != nil {
		return value.Value{}, cerr
	}
	r, cerr := evalNode(b.R, env)
	if cerr != nil {
		return value.Value{}, cerr
	}

	if b.Op == formula.OpPow {
		return evalPow(l, r)
	}

	op := binOps[b.Op]
	u, err := env.Resolver.Combine(l.Unit, r.Unit, op)
	if err != nil {
		return value.Value{}, value.NewError(value.KindUnitMismatch,
			"cannot apply %q: %v", b.Op, err)
	}

	switch b.Op {
	case formula.OpAdd:
		return value.With(l.Num.Add(r.Num), u), nil
	case formula.OpSub:
		return value.With(l.Num.Subtract(r.Num), u), nil
	case formula.OpMul:
		return value.With(l.Num.Multiply(r.Num), u), nil
	case formula.OpDiv:
		if r.IsZero() {
			return value.Value{}, value.NewError(value.KindDomain, "division by zero")
		}
		return value.With(l.Num.Divide(r.Num), u), nil
	case formula.OpMod:
		if r.IsZero() {
			return value.Value{}, value.NewError(value.KindDomain, "modulo by zero")
		}
		return value.With(l.Num.Modulo(r.Num), u), nil
	default:
		return value.Value{}, value.NewError(value.KindParse, "unknown operator %q", b.Op)
	}
}

// evalPow handles exponentiation. The exponent must be dimensionless;
// for a dimensioned base it must additionally be an integer so the
// result still has whole dimension exponents.
func evalPow(base, exp value.Value) (value.Value, *value.CellError) {
	if !exp.Unit.IsDimensionless() {
		return value.Value{}, value.NewError(value.KindUnitMismatch,
			"exponent must be dimensionless, got %s", exp.Unit)
	}

	bf := base.Float()
	ef := exp.Float()
	u := unit.Dimensionless

	if !base.Unit.IsDimensionless() {
		k, exact := intExponent(exp.Num)
		if !exact {
			return value.Value{}, value.NewError(value.KindUnitMismatch,
				"raising %s to the non-integer power %g", base.Unit, ef)
		}
		u = unit.Unit{Dim: base.Unit.Dim.Scale(k), Factor: 1}.Base()
	} else if bf < 0 && !exp.Num.AsBigFloat().IsInt() {
		return value.Value{}, value.NewError(value.KindDomain,
			"raising negative value %g to the non-integer power %g", bf, ef)
	}

	out := math.Pow(bf, ef)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return value.Value{}, value.NewError(value.KindDomain, "%g^%g is not a finite number", bf, ef)
	}
	return value.With(cty.NumberFloatVal(out), u), nil
}

func intExponent(n cty.Value) (int, bool) {
	bf := n.AsBigFloat()
	if !bf.IsInt() {
		return 0, false
	}
	i, _ := bf.Int64()
	if i < -16 || i > 16 {
		return 0, false
	}
	return int(i), true
}

func evalCall(c *formula.Call, env Env) (value.Value, *value.CellError) {
	f, ok := env.Funcs[c.Name]
	if !ok {
		return value.Value{}, value.NewError(value.KindParse, "unknown function %q", c.Name)
	}

	var args []value.Value
	for _, argNode := range c.Args {
		if rng, ok := argNode.(*formula.RangeRef); ok {
			if !f.Aggregate {
				return value.Value{}, value.NewError(value.KindParse,
					"%s does not accept range arguments", c.Name)
			}
			cells, err := rng.Rng.Cells()
			if err != nil {
				return value.Value{}, value.NewError(value.KindParse, "%v", err)
			}
			for _, ref := range cells {
				v, cerr := lookup(ref, env)
				if cerr != nil {
					return value.Value{}, cerr
				}
				args = append(args, v)
			}
			continue
		}
		v, cerr := evalNode(argNode, env)
		if cerr != nil {
			return value.Value{}, cerr
		}
		args = append(args, v)
	}

	if len(args) < f.MinArgs {
		return value.Value{}, value.NewError(value.KindParse,
			"%s needs at least %d argument(s), got %d", c.Name, f.MinArgs, len(args))
	}
	if f.MaxArgs >= 0 && len(args) > f.MaxArgs {
		return value.Value{}, value.NewError(value.KindParse,
			"%s takes at most %d argument(s), got %d", c.Name, f.MaxArgs, len(args))
	}

	return f.Apply(args, env.Resolver)
}
