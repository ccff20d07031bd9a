package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/cellgrid/internal/cellref"
	"github.com/vk/cellgrid/internal/ctxlog"
	"github.com/vk/cellgrid/internal/fn"
	"github.com/vk/cellgrid/internal/formula"
	"github.com/vk/cellgrid/internal/graph"
	"github.com/vk/cellgrid/internal/metrics"
	"github.com/vk/cellgrid/internal/sched"
	"github.com/vk/cellgrid/internal/store"
	"github.com/vk/cellgrid/internal/unit"
	"github.com/vk/cellgrid/internal/value"
)

// ErrClosed is returned for edits submitted after Close.
var ErrClosed = errors.New("engine closed")

// ChangeSet is re-exported so hosts only import this package.
type ChangeSet = sched.ChangeSet

// Change is re-exported so hosts only import this package.
type Change = sched.Change

// Option configures an Engine.
type Option func(*Engine)

// WithResolver injects a unit resolver other than the SI default.
func WithResolver(r unit.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithFuncs injects a function table other than fn.Default.
func WithFuncs(t fn.Table) Option {
	return func(e *Engine) { e.funcs = t }
}

// WithLogger sets the engine's logger; defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRegisterer registers the engine's collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.reg = reg }
}

// WithSchedulerOptions forwards tuning options to the scheduler.
func WithSchedulerOptions(opts ...sched.Option) Option {
	return func(e *Engine) { e.schedOpts = opts }
}

type command struct {
	ctx   context.Context
	fn    func(ctx context.Context) (ChangeSet, error)
	reply chan response
}

type response struct {
	cs  ChangeSet
	err error
}

type subscriber struct {
	ch chan ChangeSet
}

// Engine owns one sheet.
type Engine struct {
	store    *store.Store
	graph    *graph.Graph
	sched    *sched.Scheduler
	resolver unit.Resolver
	funcs    fn.Table
	metrics  *metrics.Set
	log      *slog.Logger

	reg       prometheus.Registerer
	schedOpts []sched.Option

	cmds    chan command
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	subMu   sync.Mutex
	subs    map[int]*subscriber
	nextSub int
}

// New builds an engine and starts its writer goroutine.
func New(opts ...Option) *Engine {
	e := &Engine{
		store:    store.New(),
		graph:    graph.New(),
		resolver: unit.NewResolver(),
		funcs:    fn.Default(),
		log:      slog.Default(),
		cmds:     make(chan command),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		subs:     map[int]*subscriber{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = metrics.New(e.reg)
	e.sched = sched.New(e.store, e.graph, e.resolver, e.funcs, e.metrics, e.schedOpts...)
	go e.loop()
	return e
}

// Close stops the writer goroutine. In-flight work is cancelled; its
// uncommitted results are discarded. Close is idempotent.
func (e *Engine) Close() {
	e.once.Do(func() { close(e.done) })
	<-e.stopped
}

// SetCellContent applies raw user input to a cell: text starting with
// "=" is a formula, anything else a literal number with an optional
// unit suffix ("5 km"). It blocks until the resulting pass committed
// and returns that pass's change set.
func (e *Engine) SetCellContent(ctx context.Context, ref cellref.Ref, raw string) (ChangeSet, error) {
	if formula.IsFormula(raw) {
		return e.SetFormula(ctx, ref, raw)
	}
	v, err := parseLiteral(raw)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("cell %s: %w", ref, err)
	}
	return e.SetLiteral(ctx, ref, v)
}

// SetLiteral stores a value in a cell and recomputes its dependents.
func (e *Engine) SetLiteral(ctx context.Context, ref cellref.Ref, v value.Value) (ChangeSet, error) {
	return e.do(ctx, func(ctx context.Context) (ChangeSet, error) {
		e.store.SetContent(ref, store.Literal(v))
		e.graph.SetEdges(ref, nil)
		return e.sched.Recompute(ctx, ref)
	})
}

// SetFormula parses formula text into a cell. A formula that fails to
// parse is still stored; the cell's result becomes a parse error and
// its dependency edges are cleared.
func (e *Engine) SetFormula(ctx context.Context, ref cellref.Ref, src string) (ChangeSet, error) {
	content := parseFormula(src, e.funcs)
	return e.do(ctx, func(ctx context.Context) (ChangeSet, error) {
		e.store.SetContent(ref, content)
		e.graph.SetEdges(ref, content.Refs)
		return e.sched.Recompute(ctx, ref)
	})
}

// ClearCell empties a cell. Dependents now see a missing reference.
func (e *Engine) ClearCell(ctx context.Context, ref cellref.Ref) (ChangeSet, error) {
	return e.do(ctx, func(ctx context.Context) (ChangeSet, error) {
		e.store.SetContent(ref, store.Empty())
		e.graph.RemoveCell(ref)
		return e.sched.Recompute(ctx, ref)
	})
}

// GetCellResult returns the cached result without triggering any
// evaluation.
func (e *Engine) GetCellResult(ref cellref.Ref) value.Result {
	return e.store.Result(ref)
}

// Snapshot returns every non-empty cell content, suitable for Load.
func (e *Engine) Snapshot() map[cellref.Ref]store.Content {
	return e.store.Snapshot()
}

// Load replaces the whole sheet with the given contents, rebuilds the
// dependency graph and recomputes every cell in one pass.
func (e *Engine) Load(ctx context.Context, contents map[cellref.Ref]store.Content) (ChangeSet, error) {
	return e.do(ctx, func(ctx context.Context) (ChangeSet, error) {
		e.store.Clear()
		e.graph.Clear()
		for ref, c := range contents {
			e.store.SetContent(ref, c)
			if c.Kind == store.ContentFormula {
				e.graph.SetEdges(ref, c.Refs)
			}
		}
		return e.recomputeAll(ctx)
	})
}

// Subscribe returns a stream of change sets, one per completed pass
// that changed anything. A subscriber that falls behind its buffer
// loses change sets rather than blocking the engine; drops are counted
// in metrics and visible as gaps in Seq. The returned cancel func
// closes the channel.
func (e *Engine) Subscribe(buffer int) (<-chan ChangeSet, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan ChangeSet, buffer)}

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = sub
	e.subMu.Unlock()

	cancel := func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if s, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// do hands a mutation to the writer goroutine and waits for its pass.
func (e *Engine) do(ctx context.Context, fn func(context.Context) (ChangeSet, error)) (ChangeSet, error) {
	cmd := command{ctx: ctx, fn: fn, reply: make(chan response, 1)}
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ChangeSet{}, ErrClosed
	case <-ctx.Done():
		return ChangeSet{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r.cs, r.err
	case <-e.done:
		return ChangeSet{}, ErrClosed
	}
}

func (e *Engine) loop() {
	defer close(e.stopped)
	for {
		select {
		case <-e.done:
			e.closeSubscribers()
			return
		case cmd := <-e.cmds:
			cs, err := e.runCommand(cmd)
			if err == nil && !cs.Empty() {
				e.publish(cs)
			}
			cmd.reply <- response{cs: cs, err: err}
		}
	}
}

// runCommand executes one edit with the engine's logger in context. A
// panic inside the pass is an internal invariant violation: it is
// logged, never propagated, and answered by rebuilding graph state from
// the store.
func (e *Engine) runCommand(cmd command) (cs ChangeSet, err error) {
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(cmd.ctx, e.log))
	defer cancel()
	// Engine close cancels the in-flight pass.
	go func() {
		select {
		case <-e.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("invariant violation during evaluation pass, rebuilding from store", "panic", r)
			cs, err = e.rebuild(context.WithoutCancel(ctx))
		}
	}()
	return cmd.fn(ctx)
}

// rebuild reconstructs the graph from stored contents and recomputes
// everything. It is the recovery path and must not panic again; if it
// does, the panic is allowed to crash loudly.
func (e *Engine) rebuild(ctx context.Context) (ChangeSet, error) {
	e.graph.Clear()
	for ref, c := range e.store.Snapshot() {
		if c.Kind == store.ContentFormula {
			e.graph.SetEdges(ref, c.Refs)
		}
	}
	return e.recomputeAll(ctx)
}

func (e *Engine) recomputeAll(ctx context.Context) (ChangeSet, error) {
	return e.sched.Recompute(ctx, e.store.Refs()...)
}

func (e *Engine) publish(cs ChangeSet) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, sub := range e.subs {
		select {
		case sub.ch <- cs:
		default:
			e.metrics.NotificationsDropped.Inc()
			e.log.Warn("subscriber buffer full, change set dropped", "seq", cs.Seq)
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, sub := range e.subs {
		delete(e.subs, id)
		close(sub.ch)
	}
}

// parseLiteral parses "5", "5 km" or "9.81 m/s^2".
func parseLiteral(raw string) (value.Value, error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		n, err := cty.ParseNumberVal(fields[0])
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid number %q", fields[0])
		}
		return value.With(n, unit.Dimensionless), nil
	case 2:
		n, err := cty.ParseNumberVal(fields[0])
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid number %q", fields[0])
		}
		u, err := unit.Parse(fields[1])
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid unit %q: %w", fields[1], err)
		}
		return value.Normalize(n, u), nil
	default:
		return value.Value{}, fmt.Errorf("cannot parse literal %q", raw)
	}
}

// parseFormula builds formula content, keeping unparseable input with
// its error attached.
func parseFormula(src string, funcs fn.Table) store.Content {
	ast, err := formula.Parse(src, funcs.Has)
	if err != nil {
		return store.BrokenFormula(src, value.NewError(value.KindParse, "%v", err))
	}
	return store.Formula(src, ast)
}
