package routing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ch_router/pkg/ch"
	"ch_router/pkg/graph"
)

// buildTestGraph creates a small bidirectional grid.
//
//	0 ---100--- 1 ---200--- 2
//	|                       |
//	300                    400
//	|                       |
//	3 ---500--- 4 ---600--- 5
func buildTestGraph(t testing.TB) *graph.Graph {
	t.Helper()
	var edges []graph.EdgeSpec
	for _, e := range []graph.EdgeSpec{
		{From: 0, To: 1, Cost: 100},
		{From: 1, To: 2, Cost: 200},
		{From: 0, To: 3, Cost: 300},
		{From: 2, To: 5, Cost: 400},
		{From: 3, To: 4, Cost: 500},
		{From: 4, To: 5, Cost: 600},
	} {
		edges = append(edges, e, graph.EdgeSpec{From: e.To, To: e.From, Cost: e.Cost})
	}
	coords := []graph.Coord{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 300, Y: 0},
		{X: 0, Y: 300}, {X: 100, Y: 300}, {X: 300, Y: 300},
	}
	g, err := graph.Build(6, edges, coords)
	require.NoError(t, err)
	return g
}

// randomGraph returns a sparse random digraph. Roughly every third vertex
// gets no edges at all so that unreachable pairs show up.
func randomGraph(rng *rand.Rand, n uint32, m int, maxCost int64) *graph.Graph {
	g := graph.New(n)
	for range m {
		u := uint32(rng.Intn(int(n)))
		v := uint32(rng.Intn(int(n)))
		if u%3 == 2 || v%3 == 2 {
			continue
		}
		if err := g.AddEdge(u, v, rng.Int63n(maxCost+1)); err != nil {
			panic(err)
		}
	}
	return g
}

func TestMinHeap(t *testing.T) {
	var h MinHeap

	h.Push(1, 30)
	h.Push(2, 10)
	h.Push(3, 20)

	assert.Equal(t, int64(10), h.PeekKey())
	assert.Equal(t, PQItem{Node: 2, Key: 10}, h.Pop())
	assert.Equal(t, PQItem{Node: 3, Key: 20}, h.Pop())
	assert.Equal(t, PQItem{Node: 1, Key: 30}, h.Pop())
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, infinity, h.PeekKey())
	assert.Panics(t, func() { h.Pop() })
}

func TestMinHeapRandomOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var h MinHeap
	for i := range 500 {
		h.Push(uint32(i), rng.Int63n(1000))
	}
	prev := int64(-1)
	for h.Len() > 0 {
		it := h.Pop()
		require.GreaterOrEqual(t, it.Key, prev)
		prev = it.Key
	}

	h.Push(1, 1)
	h.Reset()
	assert.Equal(t, 0, h.Len())
}

func TestDijkstraReference(t *testing.T) {
	g := buildTestGraph(t)
	dist := Dijkstra(g, 0)
	assert.Equal(t, []int64{0, 100, 300, 300, 800, 700}, dist)

	g2 := graph.MustBuild(3, []graph.EdgeSpec{{From: 0, To: 1, Cost: 4}}, nil)
	assert.Equal(t, []int64{0, 4, Unreachable}, Dijkstra(g2, 0))
	assert.Equal(t, []int64{Unreachable, 0, Unreachable}, Dijkstra(g2, 1))
}

func TestDijkstraDistanceMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := randomGraph(rng, 60, 200, 50)
	qs := NewQueryState(g.NumNodes)

	for s := range g.NumNodes {
		want := Dijkstra(g, s)
		for tgt := range g.NumNodes {
			require.Equal(t, want[tgt], DijkstraDistance(g, qs, s, tgt), "s=%d t=%d", s, tgt)
		}
	}
}

func TestQueryStateReset(t *testing.T) {
	g := buildTestGraph(t)
	rg := ch.Contract(g)
	qs := NewQueryState(g.NumNodes)

	chSearch(rg, qs, 0, 5)
	require.NotZero(t, qs.NumTouched())
	require.LessOrEqual(t, qs.NumTouched(), int(g.NumNodes))

	qs.Reset()
	assert.Zero(t, qs.NumTouched())
	for side := range 2 {
		for v := range g.NumNodes {
			assert.Equal(t, infinity, qs.Dist[side][v])
			assert.False(t, qs.Visited[side][v])
			assert.Equal(t, noNode, qs.Pred[side][v])
		}
		assert.Zero(t, qs.PQ[side].Len())
	}
}

func TestQueryStateSizeMismatchPanics(t *testing.T) {
	g := buildTestGraph(t)
	qs := NewQueryState(g.NumNodes + 1)
	assert.Panics(t, func() { DijkstraDistance(g, qs, 0, 1) })
	assert.Panics(t, func() { DijkstraDistance(g, NewQueryState(g.NumNodes), 0, 6) })
}
