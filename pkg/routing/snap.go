package routing

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"ch_router/pkg/geo"
	"ch_router/pkg/graph"
)

const maxSnapDistMeters = 500.0

var (
	// ErrPointTooFar is returned when the query point is too far from any vertex.
	ErrPointTooFar = errors.New("point too far from graph")
	// ErrNoCoordinates is returned for coordinate lookups on a graph without coordinates.
	ErrNoCoordinates = errors.New("graph has no coordinates")
)

// SnapResult is the vertex closest to a query point.
type SnapResult struct {
	Vertex uint32
	Dist   float64 // meters for geographic graphs, coordinate units otherwise
}

// Snapper provides nearest-vertex lookup over an R-tree of vertex coordinates.
type Snapper struct {
	tr rtree.RTreeG[uint32]
	g  *graph.Graph
}

// NewSnapper indexes every vertex of g. g must have coordinates.
func NewSnapper(g *graph.Graph) *Snapper {
	s := &Snapper{g: g}
	for v := uint32(0); v < g.NumNodes; v++ {
		c := g.Coord(v)
		p := [2]float64{c.X, c.Y}
		s.tr.Insert(p, p, v)
	}
	return s
}

// Snap returns the vertex nearest to (x, y). Geographic graphs take x as
// longitude and y as latitude, measure in metres and reject points more than
// 500 m away.
func (s *Snapper) Snap(x, y float64) (SnapResult, error) {
	dist := s.planarDist(x, y)
	if s.g.Geographic {
		dist = s.metricDist(x, y)
	}

	found := false
	var best SnapResult
	// Nearby visits in increasing dist; box distances never exceed the
	// distance of any vertex inside, so the first vertex is the nearest.
	s.tr.Nearby(dist, func(_, _ [2]float64, v uint32, d float64) bool {
		found = true
		best = SnapResult{Vertex: v, Dist: d}
		return false
	})
	if !found {
		return SnapResult{}, ErrPointTooFar
	}
	if s.g.Geographic && best.Dist > maxSnapDistMeters {
		return SnapResult{}, ErrPointTooFar
	}
	return best, nil
}

type nearbyDist func(min, max [2]float64, v uint32, item bool) float64

func (s *Snapper) planarDist(x, y float64) nearbyDist {
	return func(min, max [2]float64, v uint32, item bool) float64 {
		if item {
			c := s.g.Coord(v)
			return geo.Euclidean(x, y, c.X, c.Y)
		}
		return math.Hypot(gap(x, min[0], max[0]), gap(y, min[1], max[1]))
	}
}

// metricDist ranks by equirectangular metres. For a box, the longitude gap
// is scaled by the smallest cosine over the latitudes a mean latitude can
// take, which keeps the box bound below every vertex inside it.
func (s *Snapper) metricDist(lon, lat float64) nearbyDist {
	return func(min, max [2]float64, v uint32, item bool) float64 {
		if item {
			c := s.g.Coord(v)
			return geo.EquirectangularDist(lat, lon, c.Y, c.X)
		}
		cosMin := math.Min(math.Cos(lat*math.Pi/180),
			math.Min(math.Cos(min[1]*math.Pi/180), math.Cos(max[1]*math.Pi/180)))
		dx := gap(lon, min[0], max[0]) * math.Max(cosMin, 0) * math.Pi / 180
		dy := gap(lat, min[1], max[1]) * math.Pi / 180
		return math.Sqrt(dx*dx+dy*dy) * geo.EarthRadiusMeters
	}
}

// gap is the distance from p to the interval [lo, hi].
func gap(p, lo, hi float64) float64 {
	switch {
	case p < lo:
		return lo - p
	case p > hi:
		return p - hi
	}
	return 0
}
