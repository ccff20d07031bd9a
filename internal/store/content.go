package store

import (
	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/value"
)

// ContentKind distinguishes what a cell holds.
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentLiteral
	ContentFormula
)

// Content is what a user put into a cell. A formula that failed to parse
// is still stored, with its raw text and the parse error, so the user
// sees their input back.
type Content struct {
	Kind ContentKind

	// Lit is set for literal contents.
	Lit value.Value

	// Raw, Ast and Refs are set for formula contents. Ast and Refs are
	// nil when ParseErr is set.
	Raw      string
	Ast      *formula.Ast
	Refs     []cellref.Ref
	ParseErr *value.CellError
}

// Empty returns the empty content.
func Empty() Content {
	return Content{}
}

// Literal wraps a value.
func Literal(v value.Value) Content {
	return Content{Kind: ContentLiteral, Lit: v}
}

// Formula wraps a successfully parsed formula.
func Formula(raw string, ast *formula.Ast) Content {
	return Content{Kind: ContentFormula, Raw: raw, Ast: ast, Refs: ast.Refs()}
}

// BrokenFormula wraps formula text that failed to parse.
func BrokenFormula(raw string, cerr *value.CellError) Content {
	return Content{Kind: ContentFormula, Raw: raw, ParseErr: cerr}
}

// IsEmpty reports whether the content is the empty content.
func (c Content) IsEmpty() bool {
	return c.Kind == ContentEmpty
}
