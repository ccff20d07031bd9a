package cellref

import "fmt"

// MaxRangeCells bounds how many cells a single range reference may expand
// to. A formula over a larger range is rejected at parse time, which in
// turn bounds the dependency fan-out any one formula can create.
const MaxRangeCells = 65536

// Range is a rectangle of cells, normalized so From is the top-left
// corner and To the bottom-right.
type Range struct {
	From Ref
	To   Ref
}

// NewRange builds a normalized Range from two corners in any order.
func NewRange(a, b Ref) Range {
	r := Range{From: a, To: b}
	if r.From.Col > r.To.Col {
		r.From.Col, r.To.Col = r.To.Col, r.From.Col
	}
	if r.From.Row > r.To.Row {
		r.From.Row, r.To.Row = r.To.Row, r.From.Row
	}
	return r
}

// String serializes the Range in A1:B3 form.
func (r Range) String() string {
	return r.From.String() + ":" + r.To.String()
}

// Size returns the number of cells the range covers.
func (r Range) Size() int {
	return (r.To.Col - r.From.Col + 1) * (r.To.Row - r.From.Row + 1)
}

// Contains reports whether ref lies inside the range.
func (r Range) Contains(ref Ref) bool {
	return ref.Col >= r.From.Col && ref.Col <= r.To.Col &&
		ref.Row >= r.From.Row && ref.Row <= r.To.Row
}

// Cells expands the range to every contained Ref in row-major order.
// It errors rather than expand past MaxRangeCells.
func (r Range) Cells() ([]Ref, error) {
	n := r.Size()
	if n > MaxRangeCells {
		return nil, fmt.Errorf("range %s covers %d cells, limit is %d", r, n, MaxRangeCells)
	}
	refs := make([]Ref, 0, n)
	for row := r.From.Row; row <= r.To.Row; row++ {
		for col := r.From.Col; col <= r.To.Col; col++ {
			refs = append(refs, Ref{Col: col, Row: row})
		}
	}
	return refs, nil
}
