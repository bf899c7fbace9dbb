package routing

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"ch_router/pkg/graph"
)

var (
	// ErrNoRoute is returned by Route when no path exists between the two vertices.
	ErrNoRoute = errors.New("no route found")
	// ErrVertexOutOfRange is returned for query vertices outside the graph.
	ErrVertexOutOfRange = errors.New("vertex out of range")
	// ErrUnknownMethod is returned by ParseMethod.
	ErrUnknownMethod = errors.New("unknown method")
)

// Method selects the query algorithm.
type Method int

const (
	MethodCH Method = iota
	MethodBidirectional
	MethodAStar
	MethodDijkstra
)

var methodNames = [...]string{
	MethodCH:            "ch",
	MethodBidirectional: "bidirectional",
	MethodAStar:         "astar",
	MethodDijkstra:      "dijkstra",
}

func (m Method) String() string {
	if !m.valid() {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

func (m Method) valid() bool {
	return m >= 0 && int(m) < len(methodNames)
}

// ParseMethod maps a method name to a Method. The empty string means MethodCH.
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return MethodCH, nil
	}
	for m, name := range methodNames {
		if name == s {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Result is the output of a distance query.
type Result struct {
	Distance  int64 // Unreachable when Reachable is false
	Reachable bool
	Touched   int // vertices that received a tentative distance
}

// Route is a shortest path in original-graph vertices.
type Route struct {
	Distance int64
	Vertices []uint32
}

// Querier is the interface for distance and route queries.
type Querier interface {
	Distance(ctx context.Context, s, t uint32, method Method) (Result, error)
	Route(ctx context.Context, s, t uint32) (*Route, error)
	Matrix(ctx context.Context, sources, targets []uint32) ([][]int64, error)
	Nearest(x, y float64) (SnapResult, error)
	Coord(v uint32) (graph.Coord, bool)
}

// Engine implements Querier over a contracted graph. The graphs are shared
// read-only; every query borrows its own QueryState from a pool, so an
// Engine is safe for concurrent use.
type Engine struct {
	rg         *graph.RankedGraph
	base       *graph.Graph // for the unrestricted searches
	components []uint32
	heuristic  Heuristic
	snapper    *Snapper // nil without coordinates
	workers    int
	cache      *resultCache // nil when disabled

	states sync.Pool
}

// NewEngine creates an engine. base is the graph the plain, A* and Dijkstra
// methods search; nil means the augmented store of rg, which yields the same
// distances.
func NewEngine(rg *graph.RankedGraph, base *graph.Graph) *Engine {
	if base == nil {
		base = rg.Graph
	}
	e := &Engine{
		rg:         rg,
		base:       base,
		components: graph.WeakComponents(base),
		heuristic:  HeuristicFor(base),
		workers:    runtime.NumCPU(),
	}
	if base.HasCoords() {
		e.snapper = NewSnapper(base)
	}
	n := rg.NumNodes
	e.states.New = func() any { return NewQueryState(n) }
	return e
}

// SetWorkers bounds the parallelism of Matrix.
func (e *Engine) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// EnableCache memoizes Distance results in a cache of roughly numBytes.
// Call before serving queries; numBytes <= 0 disables caching.
func (e *Engine) EnableCache(numBytes int) {
	if numBytes <= 0 {
		e.cache = nil
		return
	}
	e.cache = newResultCache(numBytes)
}

// CacheStats returns result cache counters, or zeros when caching is off.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.stats()
}

// NumNodes returns the vertex count.
func (e *Engine) NumNodes() uint32 { return e.rg.NumNodes }

// Graph returns the contracted graph.
func (e *Engine) Graph() *graph.RankedGraph { return e.rg }

func (e *Engine) acquire() *QueryState { return e.states.Get().(*QueryState) }

func (e *Engine) release(qs *QueryState) {
	qs.Reset()
	e.states.Put(qs)
}

func (e *Engine) checkVertices(vs ...uint32) error {
	for _, v := range vs {
		if v >= e.rg.NumNodes {
			return fmt.Errorf("vertex %d with %d vertices: %w", v, e.rg.NumNodes, ErrVertexOutOfRange)
		}
	}
	return nil
}

// Distance returns the shortest s→t distance using method.
func (e *Engine) Distance(ctx context.Context, s, t uint32, method Method) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !method.valid() {
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
	if err := e.checkVertices(s, t); err != nil {
		return Result{}, err
	}
	if e.components[s] != e.components[t] {
		return Result{Distance: Unreachable}, nil
	}
	if e.cache != nil {
		if res, ok := e.cache.get(s, t, method); ok {
			return res, nil
		}
	}

	qs := e.acquire()
	defer e.release(qs)

	var dist int64
	switch method {
	case MethodCH:
		dist = chSearch(e.rg, qs, s, t).distance()
	case MethodBidirectional:
		b := bidirectional{g: e.base}
		dist = b.run(qs, s, t).distance()
	case MethodAStar:
		b := bidirectional{g: e.base}
		b.potential[graph.Forward] = func(v uint32) int64 { return e.heuristic(v, t) }
		b.potential[graph.Backward] = func(v uint32) int64 { return e.heuristic(v, s) }
		dist = b.run(qs, s, t).distance()
	case MethodDijkstra:
		dist = dijkstraTo(e.base, qs, s, t)
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}

	res := Result{
		Distance:  dist,
		Reachable: dist != Unreachable,
		Touched:   qs.NumTouched(),
	}
	if e.cache != nil {
		e.cache.put(s, t, method, res)
	}
	return res, nil
}

// Route returns the CH shortest path from s to t with shortcuts unpacked.
func (e *Engine) Route(ctx context.Context, s, t uint32) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.checkVertices(s, t); err != nil {
		return nil, err
	}
	if e.components[s] != e.components[t] {
		return nil, ErrNoRoute
	}

	qs := e.acquire()
	defer e.release(qs)

	res := chSearch(e.rg, qs, s, t)
	if res.meet == noNode {
		return nil, ErrNoRoute
	}

	vertices, err := unpackPath(e.rg.Graph, chPath(qs, res.meet))
	if err != nil {
		return nil, err
	}
	return &Route{Distance: res.best, Vertices: vertices}, nil
}

// Matrix returns CH distances for every (source, target) pair. Rows are
// computed in parallel, each worker with its own QueryState.
func (e *Engine) Matrix(ctx context.Context, sources, targets []uint32) ([][]int64, error) {
	if err := e.checkVertices(sources...); err != nil {
		return nil, err
	}
	if err := e.checkVertices(targets...); err != nil {
		return nil, err
	}

	out := make([][]int64, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, s := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			qs := e.acquire()
			defer e.release(qs)

			row := make([]int64, len(targets))
			for j, t := range targets {
				if e.components[s] != e.components[t] {
					row[j] = Unreachable
					continue
				}
				row[j] = chSearch(e.rg, qs, s, t).distance()
				qs.Reset()
			}
			out[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest returns the vertex closest to (x, y).
func (e *Engine) Nearest(x, y float64) (SnapResult, error) {
	if e.snapper == nil {
		return SnapResult{}, ErrNoCoordinates
	}
	return e.snapper.Snap(x, y)
}

// Coord returns the coordinate of v, if the graph has coordinates.
func (e *Engine) Coord(v uint32) (graph.Coord, bool) {
	if v >= e.base.NumNodes || !e.base.HasCoords() {
		return graph.Coord{}, false
	}
	return e.base.Coord(v), true
}
