// Package engine runs reach queries and procedures on a bounded worker pool
// against an atomically swappable catalog of rule tables.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mwien/CIfly/internal/catalog"
	"github.com/mwien/CIfly/internal/config"
	"github.com/mwien/CIfly/internal/input"
	"github.com/mwien/CIfly/internal/instance"
	"github.com/mwien/CIfly/internal/metrics"
	"github.com/mwien/CIfly/internal/procedure"
	"github.com/mwien/CIfly/internal/query"
	"github.com/mwien/CIfly/internal/reach"
	"github.com/mwien/CIfly/internal/ruletable"
)

// Engine processes queries against the current catalog.
type Engine struct {
	catalog atomic.Pointer[catalog.Catalog]
	procs   *procedure.Registry
	pool    *workerPool[*work]
	conf    config.EngineConf
}

type work struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// New creates an Engine using conf and starts the worker pool. The pool
// stops when ctx is cancelled or on Shutdown.
func New(ctx context.Context, cat *catalog.Catalog, procs *procedure.Registry, conf config.EngineConf) *Engine {
	e := &Engine{procs: procs, conf: conf}
	e.SwapCatalog(cat)
	e.pool = newWorkerPool(ctx, max(1, conf.Workers), max(1, conf.QueueDepth), func(_ context.Context, w *work) {
		defer close(w.done)
		// The caller gave up while the job was queued.
		if w.ctx.Err() != nil {
			return
		}
		w.run(w.ctx)
	})
	return e
}

// SwapCatalog atomically replaces the catalog (used on hot-reload).
// Queries already running keep the table they resolved.
func (e *Engine) SwapCatalog(c *catalog.Catalog) {
	e.catalog.Store(c)
	if c != nil {
		metrics.TablesLoaded.Set(float64(c.Len()))
	}
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Load()
}

// Procedures returns the procedure registry.
func (e *Engine) Procedures() *procedure.Registry {
	return e.procs
}

// Reach runs q synchronously on the pool. An empty q.ID is replaced with a
// fresh id.
func (e *Engine) Reach(ctx context.Context, q *query.Query) (*query.Result, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	var (
		res *query.Result
		err error
	)
	if serr := e.submit(ctx, func(context.Context) { res, err = e.runQuery(q) }); serr != nil {
		metrics.QueriesTotal.WithLabelValues(statusOf(serr)).Inc()
		return nil, serr
	}
	metrics.QueriesTotal.WithLabelValues(statusOf(err)).Inc()
	return res, err
}

// ReachBatch runs every query concurrently. Per-query failures are reported
// in the corresponding Result; only an oversized batch fails as a whole.
func (e *Engine) ReachBatch(ctx context.Context, qs []*query.Query) (*query.BatchResult, error) {
	if e.conf.MaxBatch > 0 && len(qs) > e.conf.MaxBatch {
		return nil, fmt.Errorf("%w: batch of %d queries exceeds limit %d", ErrTooLarge, len(qs), e.conf.MaxBatch)
	}
	br := &query.BatchResult{BatchID: uuid.NewString(), Results: make([]*query.Result, len(qs))}
	var wg sync.WaitGroup
	for i, q := range qs {
		if q == nil {
			br.Results[i] = &query.Result{Reachable: []int{}, Error: "empty query"}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Reach(ctx, q)
			if err != nil {
				res = &query.Result{QueryID: q.ID, Table: q.Table, Reachable: []int{}, Error: err.Error()}
			}
			br.Results[i] = res
		}()
	}
	wg.Wait()
	return br, nil
}

// RunProcedure runs the named procedure on the pool.
func (e *Engine) RunProcedure(ctx context.Context, name string, req *query.ProcedureRequest) (*query.ProcedureResult, error) {
	p, err := e.procs.Get(name)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := p.Validate(req.Sets); err != nil {
		metrics.ProceduresTotal.WithLabelValues(p.Name(), statusOf(err)).Inc()
		return nil, &QueryError{Stage: StageInput, Err: err}
	}
	var (
		res  *query.ProcedureResult
		perr error
	)
	if serr := e.submit(ctx, func(ctx context.Context) { res, perr = e.runProcedure(ctx, p, req) }); serr != nil {
		metrics.ProceduresTotal.WithLabelValues(p.Name(), statusOf(serr)).Inc()
		return nil, serr
	}
	metrics.ProceduresTotal.WithLabelValues(p.Name(), statusOf(perr)).Inc()
	return res, perr
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	u := float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
	metrics.QueueUtilization.Set(u)
	return u
}

// Shutdown stops accepting work and waits for queued jobs to finish.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

// submit enqueues fn and waits until it has run or the query timeout
// expires. fn's results must only be read after submit returns nil.
func (e *Engine) submit(ctx context.Context, fn func(context.Context)) error {
	timeout := e.timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := &work{ctx: ctx, run: fn, done: make(chan struct{})}
	if !e.pool.Submit(w) {
		if e.pool.Closed() {
			return ErrClosed
		}
		metrics.QueriesDropped.Inc()
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	e.QueueUtilization()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		select {
		case <-w.done:
			return nil
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return ctx.Err()
	}
}

func (e *Engine) timeout() time.Duration {
	ms := e.conf.QueryTimeoutMs
	if ms <= 0 {
		ms = config.DefaultQueryTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

func (e *Engine) runQuery(q *query.Query) (*query.Result, error) {
	start := time.Now()
	if err := q.Validate(); err != nil {
		return nil, &QueryError{Stage: StageInput, Err: err}
	}
	rt, err := e.table(q)
	if err != nil {
		return nil, err
	}
	edges, sets, err := e.prepare(q.Edges, q.Sets, q.OneIndexed)
	if err != nil {
		return nil, err
	}
	g, err := instance.NewGraph(edges, rt)
	if err != nil {
		return nil, &QueryError{Stage: StageInstance, Err: err}
	}
	s, err := instance.NewSets(sets, rt)
	if err != nil {
		return nil, &QueryError{Stage: StageInstance, Err: err}
	}

	var trace strings.Builder
	out := reach.Run(g, s, rt, reach.Settings{Verbose: q.Verbose, OneIndexed: q.OneIndexed, Trace: &trace})
	vs := out.Vertices
	slices.Sort(vs)
	if q.OneIndexed {
		vs = input.ShiftVertices(vs, 1)
	}

	elapsed := time.Since(start)
	metrics.QueryDuration.Observe(float64(elapsed.Microseconds()) / 1000)
	metrics.StatesVisited.Observe(float64(out.StatesVisited))

	return &query.Result{
		QueryID:       q.ID,
		Table:         q.Table,
		Reachable:     vs,
		StatesVisited: out.StatesVisited,
		DurationMs:    elapsed.Milliseconds(),
		Trace:         trace.String(),
	}, nil
}

// table resolves a catalog name or compiles the inline source.
func (e *Engine) table(q *query.Query) (*ruletable.Ruletable, error) {
	if q.Source != "" {
		rt, err := ruletable.Compile(q.Source)
		if err != nil {
			return nil, &QueryError{Stage: StageCompile, Err: err}
		}
		return rt, nil
	}
	cat := e.catalog.Load()
	if cat == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownTable, q.Table)
	}
	entry := cat.Get(q.Table)
	if entry == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownTable, q.Table)
	}
	return entry.Table, nil
}

// prepare validates edge pairs, shifts 1-based ids and enforces the vertex
// limit.
func (e *Engine) prepare(raw map[string][][]int, sets map[string][]int, oneIndexed bool) (map[string][][2]int, map[string][]int, error) {
	edges, err := input.EdgePairs(raw)
	if err != nil {
		return nil, nil, &QueryError{Stage: StageInput, Err: err}
	}
	if oneIndexed {
		edges, sets, err = input.Shift(edges, sets, -1)
		if err != nil {
			return nil, nil, &QueryError{Stage: StageInput, Err: err}
		}
	}
	if n := numVertices(edges, sets); e.conf.MaxVertices > 0 && n > e.conf.MaxVertices {
		return nil, nil, fmt.Errorf("%w: %d vertices exceeds limit %d", ErrTooLarge, n, e.conf.MaxVertices)
	}
	return edges, sets, nil
}

func (e *Engine) runProcedure(ctx context.Context, p procedure.Procedure, req *query.ProcedureRequest) (*query.ProcedureResult, error) {
	start := time.Now()
	edges, sets, err := e.prepare(req.Edges, req.Sets, req.OneIndexed)
	if err != nil {
		return nil, err
	}
	out, err := p.Run(ctx, edges, sets)
	if err != nil {
		var ie *instance.Error
		if errors.As(err, &ie) {
			return nil, &QueryError{Stage: StageInstance, Err: err}
		}
		return nil, err
	}
	vs := out.Vertices
	if req.OneIndexed {
		vs = input.ShiftVertices(vs, 1)
	}
	return &query.ProcedureResult{
		QueryID:    req.ID,
		Procedure:  p.Name(),
		Vertices:   vs,
		Holds:      out.Holds,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// numVertices is 1 + the largest id mentioned, 0 for an empty instance.
func numVertices(edges map[string][][2]int, sets map[string][]int) int {
	n := 0
	for _, pairs := range edges {
		for _, p := range pairs {
			n = max(n, p[0]+1, p[1]+1)
		}
	}
	for _, elems := range sets {
		for _, x := range elems {
			n = max(n, x+1)
		}
	}
	return n
}
