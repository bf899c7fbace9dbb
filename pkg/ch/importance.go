package ch

import "ch_router/pkg/graph"

// estimator scores uncontracted vertices. Lower importance is contracted first.
type estimator struct {
	g          *graph.Graph
	contracted []bool
	level      []int32

	// mark[u] == stamp means u is an active in-neighbour of the vertex being scored.
	mark  []uint32
	stamp uint32
}

func newEstimator(g *graph.Graph, contracted []bool, level []int32) *estimator {
	return &estimator{
		g:          g,
		contracted: contracted,
		level:      level,
		mark:       make([]uint32, g.NumNodes),
	}
}

// importance returns shortcuts(v) - degree(v) + level(v), where shortcuts(v)
// counts the (u, w) pairs contracting v would connect and degree(v) counts
// active in- and out-neighbours.
func (es *estimator) importance(v uint32) int {
	es.stamp++
	if es.stamp == 0 {
		clear(es.mark)
		es.stamp = 1
	}

	activeIn := 0
	for _, e := range es.g.Adjacent(v, graph.Backward) {
		if e.To == v || es.contracted[e.To] {
			continue
		}
		es.mark[e.To] = es.stamp
		activeIn++
	}

	activeOut := 0
	both := 0 // neighbours on both sides; u == w pairs never become shortcuts
	for _, e := range es.g.Adjacent(v, graph.Forward) {
		if e.To == v || es.contracted[e.To] {
			continue
		}
		activeOut++
		if es.mark[e.To] == es.stamp {
			both++
		}
	}

	shortcuts := activeIn*activeOut - both
	return shortcuts - (activeIn + activeOut) + int(es.level[v])
}
