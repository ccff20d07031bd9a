package formula

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
)

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

var opText = map[BinOp]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpPow: "^",
}

func (op BinOp) String() string {
	return opText[op]
}

// Node is one AST node. The concrete types below are the full set.
type Node interface {
	node()
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Text string
	Val  cty.Value
}

// CellRef reads a single cell.
type CellRef struct {
	Ref cellref.Ref
}

// RangeRef reads a rectangular block of cells. Only valid as a function
// argument; the parser enforces that.
type RangeRef struct {
	Rng cellref.Range
}

// Unary is unary minus.
type Unary struct {
	X Node
}

// Binary is a binary operation.
type Binary struct {
	Op   BinOp
	L, R Node
}

// Call is a function call. Name is lowercased and was present in the
// allow-list at parse time.
type Call struct {
	Name string
	Args []Node
}

func (*NumberLit) node() {}
func (*CellRef) node()   {}
func (*RangeRef) node()  {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}

// Ast is a parsed formula.
type Ast struct {
	Root Node
	Src  string
}

// Refs returns every cell the formula reads, ranges expanded, deduplicated
// and sorted ascending.
func (a *Ast) Refs() []cellref.Ref {
	seen := map[cellref.Ref]struct{}{}
	collectRefs(a.Root, seen)
	refs := make([]cellref.Ref, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	cellref.Sort(refs)
	return refs
}

func collectRefs(n Node, seen map[cellref.Ref]struct{}) {
	switch x := n.(type) {
	case *CellRef:
		seen[x.Ref] = struct{}{}
	case *RangeRef:
		// Size was checked at parse time, expansion cannot fail.
		cells, _ := x.Rng.Cells()
		for _, r := range cells {
			seen[r] = struct{}{}
		}
	case *Unary:
		collectRefs(x.X, seen)
	case *Binary:
		collectRefs(x.L, seen)
		collectRefs(x.R, seen)
	case *Call:
		for _, arg := range x.Args {
			collectRefs(arg, seen)
		}
	}
}
