package routing

import (
	"math"

	"ch_router/pkg/geo"
	"ch_router/pkg/graph"
)

// Heuristic estimates the remaining cost between two vertices. It must never
// be negative.
type Heuristic func(from, to uint32) int64

// EuclideanHeuristic returns the floored straight-line distance between the
// planar coordinates of two vertices.
func EuclideanHeuristic(g *graph.Graph) Heuristic {
	return func(from, to uint32) int64 {
		a, b := g.Coord(from), g.Coord(to)
		return int64(math.Floor(geo.Euclidean(a.X, a.Y, b.X, b.Y)))
	}
}

// GreatCircleHeuristic treats coordinates as (lon, lat) degrees and scales
// the haversine distance by unitsPerMeter (1000 for millimetre costs).
func GreatCircleHeuristic(g *graph.Graph, unitsPerMeter float64) Heuristic {
	return func(from, to uint32) int64 {
		a, b := g.Coord(from), g.Coord(to)
		return int64(math.Floor(geo.Haversine(a.Y, a.X, b.Y, b.X) * unitsPerMeter))
	}
}

// HeuristicFor picks the heuristic matching g's coordinates. Graphs without
// coordinates get a zero heuristic, which turns A* into plain bidirectional
// Dijkstra.
func HeuristicFor(g *graph.Graph) Heuristic {
	switch {
	case !g.HasCoords():
		return func(uint32, uint32) int64 { return 0 }
	case g.Geographic:
		return GreatCircleHeuristic(g, 1000)
	default:
		return EuclideanHeuristic(g)
	}
}

// AStarDistance runs bidirectional A*: the forward key of v is its distance
// plus h(v, t), the backward key its distance plus h(v, s). Meeting is
// checked on settlement as in BidirectionalDistance. qs is reset before
// returning.
//
// Each side adds its own estimate without a shared potential, so the result
// is exact only when h is consistent with the edge costs (every cost at least
// the straight-line length). An overestimating h can only make the reported
// distance too long, never too short.
func AStarDistance(g *graph.Graph, qs *QueryState, h Heuristic, s, t uint32) int64 {
	checkQuery(g.NumNodes, qs, s, t)
	defer qs.Reset()
	b := bidirectional{g: g}
	b.potential[graph.Forward] = func(v uint32) int64 { return h(v, t) }
	b.potential[graph.Backward] = func(v uint32) int64 { return h(v, s) }
	return b.run(qs, s, t).distance()
}
