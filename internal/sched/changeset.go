package sched

import (
	"github.com/google/uuid"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/value"
)

// Change is one cell whose result changed during a pass.
type Change struct {
	Ref    cellref.Ref
	Result value.Result
}

// ChangeSet is the batched outcome of one pass. Changes are sorted
// ascending by cell and only include cells whose result actually
// differs from before the pass. Seq increases by one per pass on a
// sheet, so subscribers can detect gaps after drops.
type ChangeSet struct {
	PassID  uuid.UUID
	Seq     uint64
	Changes []Change
}

// Empty reports whether the pass changed nothing.
func (cs ChangeSet) Empty() bool {
	return len(cs.Changes) == 0
}
