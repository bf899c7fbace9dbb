package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ch_router/pkg/ch"
	"ch_router/pkg/config"
	"ch_router/pkg/graph"
	"ch_router/pkg/routing"
)

func newTestServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	g := graph.MustBuild(4, []graph.EdgeSpec{
		{From: 0, To: 1, Cost: 1},
		{From: 1, To: 2, Cost: 2},
		{From: 0, To: 2, Cost: 5},
		{From: 2, To: 3, Cost: 1},
	}, []graph.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}})
	rg := ch.Contract(g)
	eng := routing.NewEngine(rg, g)

	stats := StatsResponse{
		NumNodes:     rg.NumNodes,
		NumEdges:     rg.NumEdges(),
		NumShortcuts: rg.NumShortcuts,
		HasCoords:    true,
	}
	srv := NewServer(cfg, NewHandlers(eng, stats, cfg.MaxMatrixSize))
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.org")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func vertex(v uint32) Endpoint { return Endpoint{Vertex: &v} }

func TestServerEndToEnd(t *testing.T) {
	cfg := config.Default().Server
	cfg.CORSOrigin = "*"
	ts := newTestServer(t, cfg)

	resp := postJSON(t, ts.URL+"/api/v1/distance", DistanceRequest{Source: vertex(0), Target: vertex(3)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var dist DistanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dist))
	assert.Equal(t, int64(4), dist.Distance)
	assert.True(t, dist.Reachable)
	assert.Equal(t, "ch", dist.Method)

	resp = postJSON(t, ts.URL+"/api/v1/route", RouteRequest{
		Source: Endpoint{Point: &PointJSON{X: 0.1, Y: 0.1}},
		Target: vertex(3),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var route RouteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&route))
	assert.Equal(t, int64(4), route.Distance)
	assert.Equal(t, []uint32{0, 1, 2, 3}, route.Vertices)
	assert.Len(t, route.Geometry, 4)

	resp = postJSON(t, ts.URL+"/api/v1/route", RouteRequest{Source: vertex(3), Target: vertex(0)})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/matrix", MatrixRequest{Sources: []uint32{0, 3}, Targets: []uint32{2, 3}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m MatrixResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, [][]int64{{3, 4}, {-1, 0}}, m.Distances)
}

func TestServerGetRoutes(t *testing.T) {
	ts := newTestServer(t, config.Default().Server)

	resp, err := http.Get(ts.URL + "/api/v1/nearest?x=2.2&y=0.1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var near NearestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&near))
	assert.Equal(t, uint32(2), near.Vertex)

	resp2, err := http.Get(ts.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&stats))
	assert.Equal(t, uint32(4), stats.NumNodes)

	resp3, err := http.Get(ts.URL + "/api/v1/distance")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)
}

func TestServerCORSPreflight(t *testing.T) {
	cfg := config.Default().Server
	cfg.CORSOrigin = "https://app.example.org"
	ts := newTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/distance", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example.org", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMiddlewareRecoversPanics(t *testing.T) {
	cfg := config.Default().Server
	sem := make(chan struct{}, 1)
	h := withMiddleware(func(w http.ResponseWriter, r *http.Request) { panic("boom") }, sem, cfg)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, sem, 0)
}

func TestMiddlewareConcurrencyLimit(t *testing.T) {
	cfg := config.Default().Server
	sem := make(chan struct{}, 1)
	sem <- struct{}{} // occupy the only slot
	called := false
	h := withMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true }, sem, cfg)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.False(t, called)
}

func TestMiddlewareSetsDeadline(t *testing.T) {
	cfg := config.Default().Server
	var hasDeadline bool
	h := withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}, make(chan struct{}, 1), cfg)

	h(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.True(t, hasDeadline)
}
