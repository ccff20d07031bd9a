// Package graph tracks which cells read which. It is a minimal directed
// graph over cell references: full edge replacement per cell, transitive
// dependent closure, and cycle detection scoped to an impacted subgraph.
// The graph holds no values and never evaluates anything.
//
// The graph is not safe for concurrent use; a single owner goroutine
// mutates it.
package graph
