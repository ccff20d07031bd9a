package sched

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/ctxlog"
	"github.com/vk/cellgrid/internal/eval"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/graph"
	"github.com/vk/cellgrid/internal/metrics"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

const (
	defaultWorkers = 4

	// defaultFanoutThreshold is the dependency count above which a
	// cell's evaluation moves to the worker pool. Cheap cells are not
	// worth a goroutine handoff.
	defaultFanoutThreshold = 32
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers bounds the layer worker pool.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithFanoutThreshold sets the dependency count at which evaluation
// moves off the pass goroutine.
func WithFanoutThreshold(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// Scheduler recomputes cells after edits. It is owned by the engine's
// single writer goroutine; only the worker fan-out inside one layer is
// concurrent, and those workers touch nothing but their own cell.
type Scheduler struct {
	store    *store.Store
	graph    *graph.Graph
	resolver unit.Resolver
	funcs    fn.Table
	metrics  *metrics.Set

	workers int
	fanout  int
	seq     uint64
}

func New(st *store.Store, g *graph.Graph, resolver unit.Resolver, funcs fn.Table, m *metrics.Set, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		graph:    g,
		resolver: resolver,
		funcs:    funcs,
		metrics:  m,
		workers:  defaultWorkers,
		fanout:   defaultFanoutThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute runs one pass starting from the edited cells and returns
// the batched changes. Per-cell failures become that cell's error
// result; the only error returned is context cancellation, after which
// results of uncommitted layers are discarded.
func (s *Scheduler) Recompute(ctx context.Context, edited ...cellref.Ref) (ChangeSet, error) {
	log := ctxlog.FromContext(ctx)
	start := time.Now()

	s.seq++
	cs := ChangeSet{PassID: uuid.New(), Seq: s.seq}

	impacted := s.graph.Impacted(edited...)
	tainted := s.graph.CyclesWithin(impacted)

	// Cycle members and their downstream get the circular error up
	// front and are excluded from ordering.
	for ref := range tainted {
		res := value.Errored(value.NewError(value.KindCircular, "cell %s is on or depends on a reference cycle", ref))
		if s.store.SetResult(ref, res) {
			cs.Changes = append(cs.Changes, Change{Ref: ref, Result: res})
		}
		if s.metrics != nil {
			s.metrics.CyclesDetected.Inc()
		}
	}

	plan := s.plan(impacted, tainted)
	evaluated := 0
	for _, layer := range plan {
		if err := ctx.Err(); err != nil {
			log.Warn("evaluation pass cancelled", "pass", cs.PassID, "evaluated", evaluated)
			return ChangeSet{}, err
		}
		results := s.evalLayer(ctx, layer)
		for _, ref := range layer {
			res, ok := results[ref]
			if !ok {
				// Stale concurrent result; redo on the pass goroutine.
				res = s.evalCell(ref)
			}
			if s.store.SetResult(ref, res) {
				cs.Changes = append(cs.Changes, Change{Ref: ref, Result: res})
			}
		}
		evaluated += len(layer)
	}

	sort.Slice(cs.Changes, func(i, j int) bool { return cs.Changes[i].Ref.Less(cs.Changes[j].Ref) })
	if s.metrics != nil {
		s.metrics.Passes.Inc()
		s.metrics.CellsEvaluated.Add(float64(evaluated))
		s.metrics.PassDuration.Observe(time.Since(start).Seconds())
	}
	log.Debug("evaluation pass complete",
		"pass", cs.PassID, "seq", cs.Seq,
		"impacted", len(impacted), "cycles", len(tainted),
		"evaluated", evaluated, "changed", len(cs.Changes))
	return cs, nil
}

// plan builds the layered order over the impacted subgraph, excluding
// tainted cells. Each layer is sorted ascending; edges only cross from
// earlier layers to later ones.
func (s *Scheduler) plan(impacted, tainted map[cellref.Ref]struct{}) [][]cellref.Ref {
	indegree := make(map[cellref.Ref]int, len(impacted))
	for ref := range impacted {
		if _, bad := tainted[ref]; bad {
			continue
		}
		n := 0
		for _, dep := range s.graph.DependenciesOf(ref) {
			if _, in := impacted[dep]; !in {
				continue
			}
			if _, bad := tainted[dep]; bad {
				continue
			}
			n++
		}
		indegree[ref] = n
	}

	var layers [][]cellref.Ref
	ready := make([]cellref.Ref, 0, len(indegree))
	for ref, n := range indegree {
		if n == 0 {
			ready = append(ready, ref)
		}
	}
	for len(ready) > 0 {
		cellref.Sort(ready)
		layers = append(layers, ready)
		var next []cellref.Ref
		for _, ref := range ready {
			for _, dep := range s.graph.DependentsOf(ref) {
				if n, in := indegree[dep]; in {
					indegree[dep] = n - 1
					if n == 1 {
						next = append(next, dep)
					}
				}
			}
		}
		ready = next
	}
	return layers
}

// evalLayer evaluates one layer, fanning wide cells out to workers. It
// returns concurrent results that passed the staleness check; cells
// absent from the map must be redone inline.
func (s *Scheduler) evalLayer(ctx context.Context, layer []cellref.Ref) map[cellref.Ref]value.Result {
	results := make(map[cellref.Ref]value.Result, len(layer))

	var wide []cellref.Ref
	for _, ref := range layer {
		if s.workers > 1 && len(s.graph.DependenciesOf(ref)) >= s.fanout {
			wide = append(wide, ref)
			continue
		}
		results[ref] = s.evalCell(ref)
	}
	if len(wide) == 0 {
		return results
	}

	type outcome struct {
		ref      cellref.Ref
		res      value.Result
		versions map[cellref.Ref]uint64
	}
	out := make(chan outcome, len(wide))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, ref := range wide {
		wg.Add(1)
		go func(ref cellref.Ref) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			versions := s.snapshotVersions(ref)
			out <- outcome{ref: ref, res: s.evalCell(ref), versions: versions}
		}(ref)
	}
	wg.Wait()
	close(out)

	for o := range out {
		if s.versionsMatch(o.versions) {
			results[o.ref] = o.res
		}
	}
	return results
}

func (s *Scheduler) snapshotVersions(ref cellref.Ref) map[cellref.Ref]uint64 {
	versions := map[cellref.Ref]uint64{ref: s.store.ContentVersion(ref)}
	for _, dep := range s.graph.DependenciesOf(ref) {
		versions[dep] = s.store.ContentVersion(dep)
	}
	return versions
}

func (s *Scheduler) versionsMatch(versions map[cellref.Ref]uint64) bool {
	for ref, v := range versions {
		if s.store.ContentVersion(ref) != v {
			return false
		}
	}
	return true
}

// evalCell computes one cell's result from its content and the current
// cached results of its dependencies.
func (s *Scheduler) evalCell(ref cellref.Ref) value.Result {
	content, ok := s.store.Content(ref)
	if !ok || content.IsEmpty() {
		return value.None()
	}
	switch content.Kind {
	case store.ContentLiteral:
		return value.Ok(content.Lit)
	case store.ContentFormula:
		if content.ParseErr != nil {
			return value.Errored(content.ParseErr)
		}
		env := eval.Env{
			Lookup:   s.store.Result,
			Resolver: s.resolver,
			Funcs:    s.funcs,
		}
		v, cerr := eval.Evaluate(content.Ast, env)
		if cerr != nil {
			return value.Errored(cerr)
		}
		return value.Ok(v)
	default:
		return value.None()
	}
}
