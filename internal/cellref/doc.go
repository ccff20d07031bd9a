// Package cellref defines cell and range identifiers in A1 notation.
//
// A Ref is a stable (column, row) coordinate; a Range is a normalized
// rectangle of Refs. Both are value types and safe to use as map keys.
package cellref
