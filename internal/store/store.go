package store

import (
	"sync"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/value"
)

type cellState struct {
	content        Content
	contentVersion uint64
	result         value.Result
	resultVersion  uint64
}

// Store maps cells to their state. Reads take a shared lock so result
// queries never block behind an evaluation pass; all writes go through
// the engine's single writer.
type Store struct {
	mu    sync.RWMutex
	cells map[cellref.Ref]*cellState
}

func New() *Store {
	return &Store{cells: map[cellref.Ref]*cellState{}}
}

// SetContent replaces a cell's content and returns the new content
// version. Setting empty content on a cell drops the cell once its
// result is also cleared.
func (s *Store) SetContent(ref cellref.Ref, c Content) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := s.cells[ref]
	if cs == nil {
		if c.IsEmpty() {
			return 0
		}
		cs = &cellState{}
		s.cells[ref] = cs
	}
	cs.content = c
	cs.contentVersion++
	return cs.contentVersion
}

// Content returns a cell's content and whether the cell exists.
func (s *Store) Content(ref cellref.Ref) (Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := s.cells[ref]
	if cs == nil {
		return Content{}, false
	}
	return cs.content, true
}

// ContentVersion returns the cell's content version, zero for absent
// cells. The scheduler snapshots these when planning a pass and
// re-checks them before committing a concurrently computed result.
func (s *Store) ContentVersion(ref cellref.Ref) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cs := s.cells[ref]; cs != nil {
		return cs.contentVersion
	}
	return 0
}

// Result returns a cell's cached result; the zero Result for absent
// cells.
func (s *Store) Result(ref cellref.Ref) value.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cs := s.cells[ref]; cs != nil {
		return cs.result
	}
	return value.Result{}
}

// ResultVersion returns how many times the cell's result has changed.
func (s *Store) ResultVersion(ref cellref.Ref) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cs := s.cells[ref]; cs != nil {
		return cs.resultVersion
	}
	return 0
}

// SetResult stores a cell's result and reports whether it differs from
// the previous one. The version only moves when the result actually
// changed, which is what the incrementality guarantees are measured by.
func (s *Store) SetResult(ref cellref.Ref, r value.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := s.cells[ref]
	if cs == nil {
		if r.Kind == value.ResultNone {
			return false
		}
		cs = &cellState{}
		s.cells[ref] = cs
	}
	if cs.result.Equal(r) {
		return false
	}
	cs.result = r
	cs.resultVersion++
	if cs.content.IsEmpty() && r.Kind == value.ResultNone {
		delete(s.cells, ref)
	}
	return true
}

// Snapshot returns every non-empty content keyed by cell. The copy is
// deep enough to survive later edits: Content values are immutable once
// stored.
func (s *Store) Snapshot() map[cellref.Ref]Content {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[cellref.Ref]Content, len(s.cells))
	for ref, cs := range s.cells {
		if !cs.content.IsEmpty() {
			out[ref] = cs.content
		}
	}
	return out
}

// Refs returns every cell with non-empty content, sorted.
func (s *Store) Refs() []cellref.Ref {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cellref.Ref, 0, len(s.cells))
	for ref, cs := range s.cells {
		if !cs.content.IsEmpty() {
			out = append(out, ref)
		}
	}
	cellref.Sort(out)
	return out
}

// Clear drops every cell.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = map[cellref.Ref]*cellState{}
}
