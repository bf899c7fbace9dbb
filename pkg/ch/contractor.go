package ch

import (
	"container/heap"
	"fmt"
	"log"

	"ch_router/pkg/graph"
)

// Options configures ContractWith.
type Options struct {
	// RecordShortcuts fills RankedGraph.Shortcuts with every shortcut that
	// changed the adjacency, in insertion order. Off by default: on road
	// networks the list is as large as the shortcut edges themselves.
	RecordShortcuts bool
}

// Contract performs Contraction Hierarchies preprocessing with default
// options. The input graph is left untouched; the returned RankedGraph owns
// an augmented copy holding the original edges plus every shortcut.
//
// Shortcuts are inserted for every active (in, out) neighbour pair of the
// contracted vertex without a witness search, so the hierarchy covers every
// shortest path but may carry redundant edges.
func Contract(g *graph.Graph) *graph.RankedGraph {
	return ContractWith(g, Options{})
}

// ContractWith is Contract with explicit options.
func ContractWith(g *graph.Graph, opt Options) *graph.RankedGraph {
	n := g.NumNodes
	aug := g.Clone()
	rg := &graph.RankedGraph{
		Graph: aug,
		Rank:  make([]uint32, n),
		Level: make([]int32, n),
	}
	if n == 0 {
		return rg
	}

	contracted := make([]bool, n)
	est := newEstimator(aug, contracted, rg.Level)

	// Initial priorities.
	pq := make(priorityQueue, n)
	for i := uint32(0); i < n; i++ {
		pq[i] = &pqEntry{
			node:     i,
			priority: est.importance(i),
			index:    int(i),
		}
	}
	heap.Init(&pq)

	log.Printf("Starting contraction of %d nodes, %d edges...", n, g.NumEdges())

	order := uint32(0)
	inserted := 0
	logInterval := max(n/10, 1)
	var candidates []graph.Shortcut
	var neighbours []uint32

	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(*pqEntry)
		node := entry.node

		// Stale entry: the vertex was re-pushed and already contracted.
		if contracted[node] {
			continue
		}

		// Collect before marking, so node's own edges are still active.
		candidates = shortcutCandidates(aug, node, contracted, candidates[:0])

		contracted[node] = true
		rg.Rank[node] = order
		order++

		// Insert. Dedup keeps the cheaper of an existing edge and the shortcut.
		for _, sc := range candidates {
			if !aug.AddShortcut(sc.From, sc.To, sc.Cost, sc.Via) {
				continue
			}
			inserted++
			if opt.RecordShortcuts {
				rg.Shortcuts = append(rg.Shortcuts, sc)
			}
		}

		// Raise neighbour levels first so re-scoring sees them.
		neighbours = neighbours[:0]
		for _, dir := range [2]graph.Direction{graph.Forward, graph.Backward} {
			for _, e := range aug.Adjacent(node, dir) {
				if contracted[e.To] {
					continue
				}
				if rg.Level[node]+1 > rg.Level[e.To] {
					rg.Level[e.To] = rg.Level[node] + 1
				}
				neighbours = append(neighbours, e.To)
			}
		}
		// Lazy update: re-push with a fresh score, the old entry goes stale.
		for _, w := range neighbours {
			heap.Push(&pq, &pqEntry{node: w, priority: est.importance(w)})
		}

		if order%logInterval == 0 {
			log.Printf("Contracted %d/%d nodes, %d shortcuts inserted so far", order, n, inserted)
		}
	}

	if order != n {
		panic(fmt.Sprintf("ch: contracted %d of %d vertices", order, n))
	}
	if err := rg.CheckRanks(); err != nil {
		panic("ch: " + err.Error())
	}

	rg.NumShortcuts = countShortcuts(aug)
	log.Printf("Contraction complete: %d shortcuts, %d edges in augmented graph",
		rg.NumShortcuts, aug.NumEdges())

	return rg
}

// countShortcuts counts the edges that ended up carrying a via vertex. A
// shortcut later replaced by a cheaper one is counted once.
func countShortcuts(g *graph.Graph) uint32 {
	var n uint32
	for v := uint32(0); v < g.NumNodes; v++ {
		for _, e := range g.Adjacent(v, graph.Forward) {
			if e.Via != graph.NoVia {
				n++
			}
		}
	}
	return n
}

// shortcutCandidates appends a u→w shortcut through node for every active
// in-neighbour u and out-neighbour w with u != w.
func shortcutCandidates(g *graph.Graph, node uint32, contracted []bool, dst []graph.Shortcut) []graph.Shortcut {
	for _, in := range g.Adjacent(node, graph.Backward) {
		if in.To == node || contracted[in.To] {
			continue
		}
		for _, out := range g.Adjacent(node, graph.Forward) {
			if out.To == node || out.To == in.To || contracted[out.To] {
				continue
			}
			dst = append(dst, graph.Shortcut{
				From: in.To,
				To:   out.To,
				Via:  node,
				Cost: in.Cost + out.Cost,
			})
		}
	}
	return dst
}

// Priority queue implementation for contraction ordering.

type pqEntry struct {
	node     uint32
	priority int
	index    int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	entry := x.(*pqEntry)
	entry.index = len(*pq)
	*pq = append(*pq, entry)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*pq = old[:n-1]
	return entry
}
