package routing

import "ch_router/pkg/graph"

var sides = [2]graph.Direction{graph.Forward, graph.Backward}

// bidirectional is the search skeleton shared by the CH, plain and A*
// queries. Forward runs from s over outgoing edges, backward from t over
// incoming edges, one step at a time in alternation.
type bidirectional struct {
	g *graph.Graph

	// ranked, when set, restricts relaxation to edges towards higher-ranked
	// vertices and checks the meeting distance on every improving
	// relaxation. Without it the meeting check happens on settlement.
	ranked *graph.RankedGraph

	// potential[side](v) is added to the frontier key of v on that side.
	potential [2]func(v uint32) int64
}

// searchResult is what one bidirectional query leaves behind. Pred arrays in
// the QueryState stay valid until the next Reset.
type searchResult struct {
	best int64
	meet uint32 // noNode when best is infinity
}

func (b *bidirectional) run(qs *QueryState, s, t uint32) searchResult {
	res := searchResult{best: infinity, meet: noNode}

	// Seed both frontiers.
	qs.touch(graph.Forward, s, 0)
	qs.PQ[graph.Forward].Push(s, b.key(graph.Forward, s, 0))
	qs.touch(graph.Backward, t, 0)
	qs.PQ[graph.Backward].Push(t, b.key(graph.Backward, t, 0))
	if s == t {
		res.best, res.meet = 0, s
	}

	// Alternate single steps until neither side can make progress.
	for {
		progressed := false
		for _, side := range sides {
			if b.step(qs, side, &res) {
				progressed = true
			}
		}
		if !progressed {
			return res
		}
	}
}

func (b *bidirectional) key(side graph.Direction, v uint32, dist int64) int64 {
	if p := b.potential[side]; p != nil {
		return dist + p(v)
	}
	return dist
}

// step pops one frontier entry from side. It returns false once that side is
// exhausted or its minimum key exceeds the best meeting distance.
func (b *bidirectional) step(qs *QueryState, side graph.Direction, res *searchResult) bool {
	pq := &qs.PQ[side]
	if pq.Len() == 0 || pq.PeekKey() > res.best {
		return false
	}

	v := pq.Pop().Node
	if qs.Visited[side][v] {
		return true // stale entry
	}
	qs.Visited[side][v] = true

	other := side.Opposite()
	dist := qs.Dist[side]
	upward := b.ranked != nil

	// Plain searches meet on settlement.
	if !upward {
		res.meetAt(qs, v)
	}

	for _, e := range b.g.Adjacent(v, side) {
		if upward && !b.ranked.Upward(v, e.To) {
			continue
		}
		nd := dist[v] + e.Cost
		if nd >= dist[e.To] {
			continue
		}
		qs.touch(side, e.To, nd)
		qs.Pred[side][e.To] = v
		pq.Push(e.To, b.key(side, e.To, nd))
		// CH searches meet on relaxation; the vertex need not be settled.
		if upward && qs.Dist[other][e.To] < infinity {
			res.meetAt(qs, e.To)
		}
	}
	return true
}

// meetAt lowers best to the sum of both sides' distances at v, if finite.
func (res *searchResult) meetAt(qs *QueryState, v uint32) {
	f, b := qs.Dist[graph.Forward][v], qs.Dist[graph.Backward][v]
	if f == infinity || b == infinity {
		return
	}
	if f+b < res.best {
		res.best = f + b
		res.meet = v
	}
}

func (res searchResult) distance() int64 {
	if res.best >= infinity {
		return Unreachable
	}
	return res.best
}
