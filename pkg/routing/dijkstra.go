package routing

import (
	"math"

	"ch_router/pkg/graph"
)

// Unreachable is the distance reported when no path exists.
const Unreachable int64 = -1

// infinity is the internal "no distance" marker. Kept well below MaxInt64
// so that adding an edge cost cannot overflow.
const infinity = int64(math.MaxInt64 / 4)

const noNode = ^uint32(0) // sentinel for "no node"

// MinHeap is a concrete-typed min-heap for Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry. Key is the tentative distance, plus the
// heuristic for A*.
type PQItem struct {
	Node uint32
	Key  int64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, key int64) {
	h.items = append(h.items, PQItem{node, key})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	if n == 0 {
		panic("routing: pop from empty heap")
	}
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

// PeekKey returns the minimum key, or infinity when empty.
func (h *MinHeap) PeekKey() int64 {
	if len(h.items) == 0 {
		return infinity
	}
	return h.items[0].Key
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Key >= h.items[parent].Key {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Key < h.items[smallest].Key {
			smallest = left
		}
		if right < n && h.items[right].Key < h.items[smallest].Key {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// QueryState holds per-query state for the bidirectional searches, indexed
// by side (graph.Forward, graph.Backward). It is allocated once per graph and
// caller, and must not be shared between concurrent queries.
type QueryState struct {
	Dist    [2][]int64
	Visited [2][]bool
	Pred    [2][]uint32 // predecessor on each side (noNode = none)
	Touched []uint32    // nodes touched during this query (for fast reset)
	PQ      [2]MinHeap
}

// NewQueryState creates a new QueryState for a graph with n nodes.
func NewQueryState(n uint32) *QueryState {
	qs := &QueryState{Touched: make([]uint32, 0, 1024)}
	for side := range 2 {
		qs.Dist[side] = make([]int64, n)
		qs.Visited[side] = make([]bool, n)
		qs.Pred[side] = make([]uint32, n)
		for i := range n {
			qs.Dist[side][i] = infinity
			qs.Pred[side][i] = noNode
		}
		qs.PQ[side] = MinHeap{items: make([]PQItem, 0, 256)}
	}
	return qs
}

// Size returns the number of vertices the state was allocated for.
func (qs *QueryState) Size() uint32 {
	return uint32(len(qs.Dist[0]))
}

// NumTouched returns how many vertices received a finite distance on either
// side since the last Reset.
func (qs *QueryState) NumTouched() int {
	return len(qs.Touched)
}

// Reset clears only the touched entries for fast reuse.
func (qs *QueryState) Reset() {
	for _, node := range qs.Touched {
		for side := range 2 {
			qs.Dist[side][node] = infinity
			qs.Visited[side][node] = false
			qs.Pred[side][node] = noNode
		}
	}
	qs.Touched = qs.Touched[:0]
	qs.PQ[0].Reset()
	qs.PQ[1].Reset()
}

func (qs *QueryState) touch(side graph.Direction, node uint32, dist int64) {
	if qs.Dist[0][node] == infinity && qs.Dist[1][node] == infinity {
		qs.Touched = append(qs.Touched, node)
	}
	qs.Dist[side][node] = dist
}

// Dijkstra computes single-source distances from source over all edges of g.
// Unreached vertices get Unreachable. It allocates its own state and is the
// reference the bidirectional searches are checked against.
func Dijkstra(g *graph.Graph, source uint32) []int64 {
	checkVertex(g.NumNodes, source)

	dist := make([]int64, g.NumNodes)
	for i := range dist {
		dist[i] = infinity
	}
	dist[source] = 0

	var pq MinHeap
	pq.Push(source, 0)
	for pq.Len() > 0 {
		cur := pq.Pop()
		if cur.Key > dist[cur.Node] {
			continue // stale entry
		}
		for _, e := range g.Adjacent(cur.Node, graph.Forward) {
			if nd := cur.Key + e.Cost; nd < dist[e.To] {
				dist[e.To] = nd
				pq.Push(e.To, nd)
			}
		}
	}

	for i, d := range dist {
		if d == infinity {
			dist[i] = Unreachable
		}
	}
	return dist
}

// DijkstraDistance runs a forward-only Dijkstra from s that stops once t is
// settled, using the forward side of qs. qs is reset before returning.
func DijkstraDistance(g *graph.Graph, qs *QueryState, s, t uint32) int64 {
	checkQuery(g.NumNodes, qs, s, t)
	defer qs.Reset()
	return dijkstraTo(g, qs, s, t)
}

func dijkstraTo(g *graph.Graph, qs *QueryState, s, t uint32) int64 {
	pq := &qs.PQ[graph.Forward]
	dist := qs.Dist[graph.Forward]
	qs.touch(graph.Forward, s, 0)
	pq.Push(s, 0)

	for pq.Len() > 0 {
		u := pq.Pop().Node
		if qs.Visited[graph.Forward][u] {
			continue
		}
		qs.Visited[graph.Forward][u] = true
		if u == t {
			return dist[u]
		}
		for _, e := range g.Adjacent(u, graph.Forward) {
			if nd := dist[u] + e.Cost; nd < dist[e.To] {
				qs.touch(graph.Forward, e.To, nd)
				qs.Pred[graph.Forward][e.To] = u
				pq.Push(e.To, nd)
			}
		}
	}
	return Unreachable
}

func checkVertex(n, v uint32) {
	if v >= n {
		panic("routing: vertex out of range")
	}
}

func checkQuery(n uint32, qs *QueryState, s, t uint32) {
	checkVertex(n, s)
	checkVertex(n, t)
	if qs.Size() != n {
		panic("routing: query state sized for a different graph")
	}
}
