package value

// ResultKind distinguishes the three states a cached result can be in.
type ResultKind int

const (
	// ResultNone means the cell is empty or has never been evaluated.
	ResultNone ResultKind = iota
	ResultValue
	ResultError
)

// Result is a cell's cached evaluation outcome.
type Result struct {
	Kind ResultKind
	Val  Value
	Err  *CellError
}

// None returns the empty result.
func None() Result {
	return Result{}
}

// Ok wraps a value.
func Ok(v Value) Result {
	return Result{Kind: ResultValue, Val: v}
}

// Errored wraps a cell error.
func Errored(e *CellError) Result {
	return Result{Kind: ResultError, Err: e}
}

func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// Equal reports whether two results are indistinguishable to a reader of
// the cell. The scheduler uses this to decide whether a cell changed.
func (r Result) Equal(o Result) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case ResultValue:
		return r.Val.Equal(o.Val)
	case ResultError:
		return r.Err.Equal(o.Err)
	default:
		return true
	}
}

func (r Result) String() string {
	switch r.Kind {
	case ResultValue:
		return r.Val.String()
	case ResultError:
		return r.Err.Error()
	default:
		return ""
	}
}
