// Package sched plans and runs evaluation passes. A pass starts from
// the edited cells, closes over their transitive dependents, marks
// cycles, and recomputes the remainder in layered topological order.
// Cells inside one layer have no edges between them, so wide layers can
// fan out to a bounded worker pool; commits always happen on the pass
// goroutine, layer by layer, in ascending cell order, which makes the
// resulting change stream deterministic for a given sheet and edit.
package sched
