package routing

import "ch_router/pkg/graph"

// BidirectionalDistance runs plain bidirectional Dijkstra over every edge of
// g. The meeting distance is checked whenever a vertex is settled on either
// side. qs is reset before returning.
//
// Running it on a RankedGraph's augmented store gives the same distances as
// on the original graph, since shortcuts only encode existing paths.
func BidirectionalDistance(g *graph.Graph, qs *QueryState, s, t uint32) int64 {
	checkQuery(g.NumNodes, qs, s, t)
	defer qs.Reset()
	b := bidirectional{g: g}
	return b.run(qs, s, t).distance()
}
