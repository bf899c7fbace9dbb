package routing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ch_router/pkg/geo"
	"ch_router/pkg/graph"
)

func TestSnapPlanar(t *testing.T) {
	s := NewSnapper(buildTestGraph(t))

	tests := []struct {
		x, y float64
		want uint32
	}{
		{0, 0, 0},
		{90, 10, 1},
		{290, -40, 2},
		{-50, 350, 3},
		{120, 280, 4},
		{1000, 1000, 5},
	}
	for _, tt := range tests {
		res, err := s.Snap(tt.x, tt.y)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Vertex, "snap (%v, %v)", tt.x, tt.y)
	}

	res, err := s.Snap(3, 4)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Dist, 1e-9)
}

func TestSnapGeographic(t *testing.T) {
	g := graph.MustBuild(2, nil, []graph.Coord{
		{X: 103.800, Y: 1.300},
		{X: 103.802, Y: 1.301},
	})
	g.Geographic = true
	s := NewSnapper(g)

	res, err := s.Snap(103.8001, 1.3001)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Vertex)
	assert.Less(t, res.Dist, 50.0)

	// About 11 km north of vertex 0.
	_, err = s.Snap(103.800, 1.400)
	assert.ErrorIs(t, err, ErrPointTooFar)
}

func TestSnapGeographicHighLatitude(t *testing.T) {
	// At 60°N a degree of longitude is half a degree of latitude on the ground.
	g := graph.MustBuild(2, nil, []graph.Coord{
		{X: 10.003, Y: 60},
		{X: 10, Y: 60.0025},
	})
	g.Geographic = true

	res, err := NewSnapper(g).Snap(10, 60)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Vertex)
	assert.InDelta(t, 166.8, res.Dist, 0.5)

	// At 80°N the vertex 0.02° east is about 390 m away, the one 0.01°
	// north about 1.1 km.
	g = graph.MustBuild(2, nil, []graph.Coord{
		{X: 20.02, Y: 80},
		{X: 20, Y: 80.01},
	})
	g.Geographic = true

	res, err = NewSnapper(g).Snap(20, 80)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Vertex)
	assert.Less(t, res.Dist, maxSnapDistMeters)
}

func TestSnapGeographicMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const n = 300
	coords := make([]graph.Coord, n)
	for i := range coords {
		coords[i] = graph.Coord{X: 5 + rng.Float64()*0.05, Y: 69 + rng.Float64()*0.02}
	}
	g := graph.MustBuild(n, nil, coords)
	g.Geographic = true
	s := NewSnapper(g)

	for range 200 {
		x, y := 5+rng.Float64()*0.05, 69+rng.Float64()*0.02
		want := -1.0
		for _, c := range coords {
			if d := geo.EquirectangularDist(y, x, c.Y, c.X); want < 0 || d < want {
				want = d
			}
		}

		res, err := s.Snap(x, y)
		if want > maxSnapDistMeters {
			require.ErrorIs(t, err, ErrPointTooFar)
			continue
		}
		require.NoError(t, err)
		require.InDelta(t, want, res.Dist, 1e-6, "snap (%v, %v)", x, y)
	}
}

func TestSnapEmptyGraph(t *testing.T) {
	g := graph.MustBuild(0, nil, []graph.Coord{})
	_, err := NewSnapper(g).Snap(0, 0)
	assert.ErrorIs(t, err, ErrPointTooFar)
}
