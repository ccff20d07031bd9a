// Package engine is the embeddable facade over the store, graph and
// scheduler. All edits funnel through one writer goroutine, so at most
// one evaluation pass is in flight per sheet and commit order is the
// pass's topological order. Reads never enter the queue; they hit the
// store's shared lock directly.
package engine
