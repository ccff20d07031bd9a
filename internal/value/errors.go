package value

import (
	"errors"
	"fmt"
)

// ErrKind classifies a per-cell failure. Every failure a cell can hold
// is one of these five kinds; kinds never escalate to process failures.
type ErrKind int

const (
	KindParse ErrKind = iota + 1
	KindCircular
	KindDependency
	KindUnitMismatch
	KindDomain
)

// Sentinels for errors.Is checks against a cell's error.
var (
	ErrParse        = errors.New("parse error")
	ErrCircular     = errors.New("circular reference")
	ErrDependency   = errors.New("dependency error")
	ErrUnitMismatch = errors.New("unit mismatch")
	ErrDomain       = errors.New("domain error")
)

var sentinels = map[ErrKind]error{
	KindParse:        ErrParse,
	KindCircular:     ErrCircular,
	KindDependency:   ErrDependency,
	KindUnitMismatch: ErrUnitMismatch,
	KindDomain:       ErrDomain,
}

var codes = map[ErrKind]string{
	KindParse:        "#PARSE!",
	KindCircular:     "#CIRC!",
	KindDependency:   "#DEP!",
	KindUnitMismatch: "#UNIT!",
	KindDomain:       "#DOM!",
}

// CellError is the error form a cell's cached result can take. It wraps
// the kind's sentinel so callers can match with errors.Is.
type CellError struct {
	Kind ErrKind
	Msg  string
}

// NewError builds a CellError with a formatted message.
func NewError(kind ErrKind, format string, args ...any) *CellError {
	return &CellError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *CellError) Error() string {
	return e.Code() + " " + e.Msg
}

// Code returns the short display form, in the spreadsheet tradition.
func (e *CellError) Code() string {
	return codes[e.Kind]
}

func (e *CellError) Unwrap() error {
	return sentinels[e.Kind]
}

// Equal compares kind and message; used by result diffing.
func (e *CellError) Equal(o *CellError) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Kind == o.Kind && e.Msg == o.Msg
}
