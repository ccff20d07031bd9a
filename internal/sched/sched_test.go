package sched

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/graph"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

type fixture struct {
	store *store.Store
	graph *graph.Graph
	sched *Scheduler
	funcs fn.Table
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := store.New()
	g := graph.New()
	funcs := fn.Default()
	return &fixture{
		store: st,
		graph: g,
		sched: New(st, g, unit.NewResolver(), funcs, nil, opts...),
		funcs: funcs,
	}
}

// setLiteral and setFormula mimic what the engine does on an edit:
// store the content and replace the cell's graph edges.
func (f *fixture) setLiteral(t *testing.T, name string, v float64, symbol string) cellref.Ref {
	t.Helper()
	ref := cellref.MustParse(name)
	u := unit.Dimensionless
	if symbol != "" {
		var err error
		u, err = unit.Parse(symbol)
		require.NoError(t, err)
	}
	f.store.SetContent(ref, store.Literal(value.Normalize(cty.NumberFloatVal(v), u)))
	f.graph.SetEdges(ref, nil)
	return ref
}

func (f *fixture) setFormula(t *testing.T, name, src string) cellref.Ref {
	t.Helper()
	ref := cellref.MustParse(name)
	ast, err := formula.Parse(src, f.funcs.Has)
	require.NoError(t, err)
	content := store.Formula(src, ast)
	f.store.SetContent(ref, content)
	f.graph.SetEdges(ref, content.Refs)
	return ref
}

func (f *fixture) recompute(t *testing.T, edited ...cellref.Ref) ChangeSet {
	t.Helper()
	cs, err := f.sched.Recompute(context.Background(), edited...)
	require.NoError(t, err)
	return cs
}

func (f *fixture) result(name string) value.Result {
	return f.store.Result(cellref.MustParse(name))
}

func TestRecomputeChain(t *testing.T) {
	f := newFixture(t)
	a1 := f.setLiteral(t, "A1", 5, "m")
	f.setLiteral(t, "A2", 3, "s")
	f.setFormula(t, "A3", "=A1/A2")
	f.setFormula(t, "A4", "=A3*2")

	cs := f.recompute(t, a1, cellref.MustParse("A2"), cellref.MustParse("A3"), cellref.MustParse("A4"))

	require.Equal(t, value.ResultValue, f.result("A3").Kind)
	assert.InDelta(t, 5.0/3.0, f.result("A3").Val.Float(), 1e-12)
	assert.Equal(t, "m/s", f.result("A3").Val.Unit.String())
	assert.InDelta(t, 10.0/3.0, f.result("A4").Val.Float(), 1e-12)
	assert.Len(t, cs.Changes, 4)
}

func TestIncrementalEdit(t *testing.T) {
	f := newFixture(t)
	a1 := f.setLiteral(t, "A1", 1, "")
	f.setFormula(t, "A2", "=A1+1")
	f.setFormula(t, "B5", "=2*2")
	f.recompute(t, a1, cellref.MustParse("A2"), cellref.MustParse("B5"))

	b5Version := f.store.ResultVersion(cellref.MustParse("B5"))

	// Editing A1 must not touch B5.
	f.setLiteral(t, "A1", 10, "")
	cs := f.recompute(t, a1)

	assert.InDelta(t, 11, f.result("A2").Val.Float(), 1e-12)
	assert.Equal(t, b5Version, f.store.ResultVersion(cellref.MustParse("B5")))
	for _, c := range cs.Changes {
		assert.NotEqual(t, "B5", c.Ref.String())
	}
}

func TestChangeSetOnlyReportsChanges(t *testing.T) {
	f := newFixture(t)
	a1 := f.setLiteral(t, "A1", 2, "")
	f.setFormula(t, "A2", "=A1*0")
	f.recompute(t, a1, cellref.MustParse("A2"))

	// A2 stays 0 no matter what A1 is.
	f.setLiteral(t, "A1", 7, "")
	cs := f.recompute(t, a1)

	refs := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		refs[i] = c.Ref.String()
	}
	assert.Equal(t, []string{"A1"}, refs)
}

func TestDeterministicOrder(t *testing.T) {
	build := func(t *testing.T, opts ...Option) ChangeSet {
		f := newFixture(t, opts...)
		a1 := f.setLiteral(t, "A1", 1, "")
		f.setFormula(t, "B1", "=A1+1")
		f.setFormula(t, "A2", "=A1*2")
		f.setFormula(t, "C3", "=B1+A2")
		return f.recompute(t, a1,
			cellref.MustParse("B1"), cellref.MustParse("A2"), cellref.MustParse("C3"))
	}

	first := build(t)
	second := build(t, WithWorkers(8), WithFanoutThreshold(1))

	ignoreID := cmp.Comparer(func(a, b ChangeSet) bool {
		return a.Seq == b.Seq && cmp.Equal(a.Changes, b.Changes, cmpOpts()...)
	})
	assert.True(t, cmp.Equal(first, second, ignoreID), cmp.Diff(first.Changes, second.Changes, cmpOpts()...))
}

func cmpOpts() []cmp.Option {
	return []cmp.Option{
		cmp.Comparer(func(a, b value.Result) bool { return a.Equal(b) }),
	}
}

func TestCycleDetection(t *testing.T) {
	f := newFixture(t)
	a1 := f.setFormula(t, "A1", "=A2+1")
	f.setFormula(t, "A2", "=A1+1")
	f.setFormula(t, "A3", "=A2*2")

	f.recompute(t, a1, cellref.MustParse("A2"), cellref.MustParse("A3"))

	for _, name := range []string{"A1", "A2", "A3"} {
		res := f.result(name)
		require.True(t, res.IsError(), name)
		assert.Equal(t, value.KindCircular, res.Err.Kind, name)
	}

	t.Run("clearing the cycle recomputes", func(t *testing.T) {
		f.setLiteral(t, "A2", 5, "")
		cs := f.recompute(t, cellref.MustParse("A2"))

		assert.InDelta(t, 5, f.result("A2").Val.Float(), 1e-12)
		assert.InDelta(t, 6, f.result("A1").Val.Float(), 1e-12)
		assert.InDelta(t, 10, f.result("A3").Val.Float(), 1e-12)
		assert.False(t, cs.Empty())
	})
}

func TestErrorIsolation(t *testing.T) {
	f := newFixture(t)
	a1 := f.setFormula(t, "A1", "=1/0")
	f.setFormula(t, "A2", "=A1+1")
	f.setLiteral(t, "A3", 42, "")

	f.recompute(t, a1, cellref.MustParse("A2"), cellref.MustParse("A3"))

	require.True(t, f.result("A1").IsError())
	assert.Equal(t, value.KindDomain, f.result("A1").Err.Kind)
	require.True(t, f.result("A2").IsError())
	assert.Equal(t, value.KindDependency, f.result("A2").Err.Kind)
	assert.InDelta(t, 42, f.result("A3").Val.Float(), 1e-12)
}

func TestWorkerFanout(t *testing.T) {
	f := newFixture(t, WithWorkers(4), WithFanoutThreshold(2))
	edited := []cellref.Ref{}
	for _, name := range []string{"A1", "A2", "A3", "A4"} {
		edited = append(edited, f.setLiteral(t, name, 2, "m"))
	}
	edited = append(edited, f.setFormula(t, "B1", "=sum(A1:A4)"))
	edited = append(edited, f.setFormula(t, "B2", "=mean(A1:A4)"))

	f.recompute(t, edited...)

	assert.InDelta(t, 8, f.result("B1").Val.Float(), 1e-12)
	assert.Equal(t, "m", f.result("B1").Val.Unit.String())
	assert.InDelta(t, 2, f.result("B2").Val.Float(), 1e-12)
}

func TestCancelledPass(t *testing.T) {
	f := newFixture(t)
	a1 := f.setLiteral(t, "A1", 1, "")
	f.setFormula(t, "A2", "=A1+1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.sched.Recompute(ctx, a1, cellref.MustParse("A2"))

	assert.Error(t, err)
}
