package graph

import (
	"github.com/vk/cellgrid/internal/cellref"
)

type refSet map[cellref.Ref]struct{}

// Graph stores dependency edges in both directions. deps[c] is the set of
// cells c reads; dependents[c] is the set of cells that read c. A cell
// appearing only on the incoming side is a placeholder and needs no
// content to exist.
type Graph struct {
	deps       map[cellref.Ref]refSet
	dependents map[cellref.Ref]refSet
}

func New() *Graph {
	return &Graph{
		deps:       map[cellref.Ref]refSet{},
		dependents: map[cellref.Ref]refSet{},
	}
}

// SetEdges replaces dependent's outgoing edges with newDeps. It is
// idempotent and never fails; self-edges are recorded and surface later
// as cycles.
func (g *Graph) SetEdges(dependent cellref.Ref, newDeps []cellref.Ref) {
	for old := range g.deps[dependent] {
		g.removeEdge(dependent, old)
	}
	if len(newDeps) == 0 {
		delete(g.deps, dependent)
		g.dropIfIsolated(dependent)
		return
	}
	set := make(refSet, len(newDeps))
	for _, d := range newDeps {
		set[d] = struct{}{}
		back := g.dependents[d]
		if back == nil {
			back = refSet{}
			g.dependents[d] = back
		}
		back[dependent] = struct{}{}
	}
	g.deps[dependent] = set
}

// RemoveCell drops the cell's outgoing edges. Incoming edges stay; they
// belong to the dependents' formulas, which still reference the cell.
func (g *Graph) RemoveCell(ref cellref.Ref) {
	g.SetEdges(ref, nil)
}

// DependenciesOf returns the cells ref reads, sorted.
func (g *Graph) DependenciesOf(ref cellref.Ref) []cellref.Ref {
	return collect(g.deps[ref])
}

// DependentsOf returns the cells that read ref, sorted.
func (g *Graph) DependentsOf(ref cellref.Ref) []cellref.Ref {
	return collect(g.dependents[ref])
}

// Impacted returns the transitive dependent closure of the start cells,
// start cells included.
func (g *Graph) Impacted(start ...cellref.Ref) map[cellref.Ref]struct{} {
	out := make(map[cellref.Ref]struct{}, len(start))
	stack := append([]cellref.Ref(nil), start...)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out[ref]; seen {
			continue
		}
		out[ref] = struct{}{}
		for dep := range g.dependents[ref] {
			stack = append(stack, dep)
		}
	}
	return out
}

// CyclesWithin returns the cells inside impacted that sit on a cycle or
// downstream of one, nil if the subgraph is acyclic. It runs Kahn's
// algorithm restricted to the impacted set: whatever never reaches
// in-degree zero is tainted. Cost is proportional to the subgraph, not
// the sheet.
func (g *Graph) CyclesWithin(impacted map[cellref.Ref]struct{}) map[cellref.Ref]struct{} {
	indegree := make(map[cellref.Ref]int, len(impacted))
	for ref := range impacted {
		n := 0
		for dep := range g.deps[ref] {
			if _, in := impacted[dep]; in {
				n++
			}
		}
		indegree[ref] = n
	}

	queue := make([]cellref.Ref, 0, len(impacted))
	for ref, n := range indegree {
		if n == 0 {
			queue = append(queue, ref)
		}
	}
	done := 0
	for len(queue) > 0 {
		ref := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		done++
		for dep := range g.dependents[ref] {
			if _, in := impacted[dep]; !in {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if done == len(impacted) {
		return nil
	}

	tainted := make(map[cellref.Ref]struct{}, len(impacted)-done)
	for ref, n := range indegree {
		if n > 0 {
			tainted[ref] = struct{}{}
		}
	}
	return tainted
}

// Clear drops every edge.
func (g *Graph) Clear() {
	g.deps = map[cellref.Ref]refSet{}
	g.dependents = map[cellref.Ref]refSet{}
}

func (g *Graph) removeEdge(dependent, dep cellref.Ref) {
	back := g.dependents[dep]
	delete(back, dependent)
	if len(back) == 0 {
		delete(g.dependents, dep)
	}
}

func (g *Graph) dropIfIsolated(ref cellref.Ref) {
	if len(g.deps[ref]) == 0 {
		delete(g.deps, ref)
	}
	if len(g.dependents[ref]) == 0 {
		delete(g.dependents, ref)
	}
}

func collect(set refSet) []cellref.Ref {
	if len(set) == 0 {
		return nil
	}
	out := make([]cellref.Ref, 0, len(set))
	for ref := range set {
		out = append(out, ref)
	}
	cellref.Sort(out)
	return out
}
