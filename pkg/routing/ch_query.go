package routing

import "ch_router/pkg/graph"

// CHDistance returns the shortest s→t distance on a contracted graph, or
// Unreachable. Both searches only follow edges into higher-ranked vertices;
// qs is reset before returning.
func CHDistance(rg *graph.RankedGraph, qs *QueryState, s, t uint32) int64 {
	checkQuery(rg.NumNodes, qs, s, t)
	defer qs.Reset()
	return chSearch(rg, qs, s, t).distance()
}

// chSearch leaves qs populated so the caller can read predecessors.
func chSearch(rg *graph.RankedGraph, qs *QueryState, s, t uint32) searchResult {
	b := bidirectional{g: rg.Graph, ranked: rg}
	return b.run(qs, s, t)
}

// chPath rebuilds the overlay vertex sequence source → meet → target from the
// predecessors left by chSearch. Forward predecessors lead back to s;
// backward predecessors lead on towards t.
func chPath(qs *QueryState, meet uint32) []uint32 {
	var path []uint32
	for v := meet; v != noNode; v = qs.Pred[graph.Forward][v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for v := qs.Pred[graph.Backward][meet]; v != noNode; v = qs.Pred[graph.Backward][v] {
		path = append(path, v)
	}
	return path
}
