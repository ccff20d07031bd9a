// Package formula parses spreadsheet formula text into an AST and
// extracts the exact set of cells a formula reads. Parsing is pure: the
// only context it consumes is the function allow-list, so unknown
// function names are rejected before a formula ever reaches a sheet.
//
// Range references like A1:B3 are legal only as function arguments;
// anywhere else they are a parse error.
package formula
