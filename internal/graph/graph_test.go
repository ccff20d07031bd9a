package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/cellgrid/internal/cellref"
)

func refs(names ...string) []cellref.Ref {
	out := make([]cellref.Ref, len(names))
	for i, n := range names {
		out[i] = cellref.MustParse(n)
	}
	return out
}

func set(names ...string) map[cellref.Ref]struct{} {
	out := make(map[cellref.Ref]struct{}, len(names))
	for _, n := range names {
		out[cellref.MustParse(n)] = struct{}{}
	}
	return out
}

func TestSetEdges(t *testing.T) {
	g := New()
	a1 := cellref.MustParse("A1")
	a3 := cellref.MustParse("A3")

	g.SetEdges(a3, refs("A1", "A2"))

	assert.Equal(t, refs("A1", "A2"), g.DependenciesOf(a3))
	assert.Equal(t, refs("A3"), g.DependentsOf(a1))

	t.Run("replacement drops stale edges", func(t *testing.T) {
		g.SetEdges(a3, refs("B1"))

		assert.Equal(t, refs("B1"), g.DependenciesOf(a3))
		assert.Empty(t, g.DependentsOf(a1))
	})

	t.Run("clearing removes the node when isolated", func(t *testing.T) {
		g.SetEdges(a3, nil)

		assert.Empty(t, g.DependenciesOf(a3))
		assert.Empty(t, g.DependentsOf(cellref.MustParse("B1")))
	})
}

func TestRemoveCellKeepsIncomingEdges(t *testing.T) {
	g := New()
	a1 := cellref.MustParse("A1")
	g.SetEdges(a1, refs("B1"))
	g.SetEdges(cellref.MustParse("A2"), refs("A1"))

	g.RemoveCell(a1)

	assert.Empty(t, g.DependenciesOf(a1))
	assert.Equal(t, refs("A2"), g.DependentsOf(a1))
}

func TestImpacted(t *testing.T) {
	g := New()
	// A1 <- A2 <- A3, and B1 <- A2.
	g.SetEdges(cellref.MustParse("A2"), refs("A1", "B1"))
	g.SetEdges(cellref.MustParse("A3"), refs("A2"))

	assert.Equal(t, set("A1", "A2", "A3"), g.Impacted(cellref.MustParse("A1")))
	assert.Equal(t, set("B1", "A2", "A3"), g.Impacted(cellref.MustParse("B1")))
	assert.Equal(t, set("A3"), g.Impacted(cellref.MustParse("A3")))
}

func TestCyclesWithin(t *testing.T) {
	t.Run("acyclic returns nil", func(t *testing.T) {
		g := New()
		g.SetEdges(cellref.MustParse("A2"), refs("A1"))
		g.SetEdges(cellref.MustParse("A3"), refs("A2"))

		assert.Nil(t, g.CyclesWithin(g.Impacted(cellref.MustParse("A1"))))
	})

	t.Run("two-cell cycle taints downstream", func(t *testing.T) {
		g := New()
		g.SetEdges(cellref.MustParse("A1"), refs("A2"))
		g.SetEdges(cellref.MustParse("A2"), refs("A1"))
		g.SetEdges(cellref.MustParse("A3"), refs("A2"))

		tainted := g.CyclesWithin(g.Impacted(cellref.MustParse("A1")))
		assert.Equal(t, set("A1", "A2", "A3"), tainted)
	})

	t.Run("self edge", func(t *testing.T) {
		g := New()
		g.SetEdges(cellref.MustParse("A1"), refs("A1"))

		tainted := g.CyclesWithin(g.Impacted(cellref.MustParse("A1")))
		assert.Equal(t, set("A1"), tainted)
	})

	t.Run("cycle outside the impacted set is invisible", func(t *testing.T) {
		g := New()
		g.SetEdges(cellref.MustParse("A1"), refs("A2"))
		g.SetEdges(cellref.MustParse("A2"), refs("A1"))
		g.SetEdges(cellref.MustParse("C2"), refs("C1"))

		assert.Nil(t, g.CyclesWithin(g.Impacted(cellref.MustParse("C1"))))
	})
}
