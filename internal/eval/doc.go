// Package eval walks a formula AST against a snapshot of dependency
// results and produces a value-with-unit or a cell error. The evaluator
// is pure: all state comes in through Env, and a failure is always a
// *value.CellError for the one cell being evaluated, never a process
// error.
package eval
