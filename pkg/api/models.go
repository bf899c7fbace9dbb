package api

// Endpoint names a query endpoint either by vertex id or by a coordinate that
// is snapped to the nearest vertex. Exactly one must be set.
type Endpoint struct {
	Vertex *uint32    `json:"vertex,omitempty"`
	Point  *PointJSON `json:"point,omitempty"`
}

// PointJSON is a coordinate: planar units, or lon (x) / lat (y) degrees for
// geographic graphs.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceRequest is the JSON body for POST /api/v1/distance.
type DistanceRequest struct {
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
	Method string   `json:"method,omitempty"` // ch (default), bidirectional, astar, dijkstra
}

// DistanceResponse is returned by POST /api/v1/distance. Distance is -1 when
// the target is unreachable.
type DistanceResponse struct {
	Source    uint32 `json:"source"`
	Target    uint32 `json:"target"`
	Method    string `json:"method"`
	Distance  int64  `json:"distance"`
	Reachable bool   `json:"reachable"`
	Touched   int    `json:"touched"`
}

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Source Endpoint `json:"source"`
	Target Endpoint `json:"target"`
}

// RouteResponse is returned by POST /api/v1/route.
type RouteResponse struct {
	Distance int64       `json:"distance"`
	Vertices []uint32    `json:"vertices"`
	Geometry []PointJSON `json:"geometry,omitempty"`
}

// MatrixRequest is the JSON body for POST /api/v1/matrix.
type MatrixRequest struct {
	Sources []uint32 `json:"sources"`
	Targets []uint32 `json:"targets"`
}

// MatrixResponse holds distances[i][j] from sources[i] to targets[j].
type MatrixResponse struct {
	Distances [][]int64 `json:"distances"`
}

// NearestResponse is returned by GET /api/v1/nearest.
type NearestResponse struct {
	Vertex   uint32  `json:"vertex"`
	Distance float64 `json:"distance"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes     uint32 `json:"num_nodes"`
	NumEdges     int    `json:"num_edges"`
	NumShortcuts uint32 `json:"num_shortcuts"`
	HasCoords    bool   `json:"has_coords"`
	Geographic   bool   `json:"geographic"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
