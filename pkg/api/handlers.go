package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"mime"
	"net/http"
	"strconv"

	"ch_router/pkg/routing"
)

const (
	maxBodyBytes       = 1 << 10
	maxMatrixBodyBytes = 1 << 20
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router        routing.Querier
	stats         StatsResponse
	maxMatrixSize int
}

// NewHandlers creates handlers for router. maxMatrixSize caps
// len(sources) × len(targets) per matrix request.
func NewHandlers(router routing.Querier, stats StatsResponse, maxMatrixSize int) *Handlers {
	return &Handlers{
		router:        router,
		stats:         stats,
		maxMatrixSize: maxMatrixSize,
	}
}

// HandleDistance handles POST /api/v1/distance.
func (h *Handlers) HandleDistance(w http.ResponseWriter, r *http.Request) {
	var req DistanceRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}

	method, err := routing.ParseMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_method", "method")
		return
	}
	s, t, ok := h.resolvePair(w, req.Source, req.Target)
	if !ok {
		return
	}

	res, err := h.router.Distance(r.Context(), s, t, method)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, DistanceResponse{
		Source:    s,
		Target:    t,
		Method:    method.String(),
		Distance:  res.Distance,
		Reachable: res.Reachable,
		Touched:   res.Touched,
	})
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	s, t, ok := h.resolvePair(w, req.Source, req.Target)
	if !ok {
		return
	}

	route, err := h.router.Route(r.Context(), s, t)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	resp := RouteResponse{Distance: route.Distance, Vertices: route.Vertices}
	for _, v := range route.Vertices {
		c, ok := h.router.Coord(v)
		if !ok {
			resp.Geometry = nil
			break
		}
		resp.Geometry = append(resp.Geometry, PointJSON{X: c.X, Y: c.Y})
	}
	writeJSON(w, resp)
}

// HandleMatrix handles POST /api/v1/matrix.
func (h *Handlers) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	var req MatrixRequest
	if !decodeJSON(w, r, maxMatrixBodyBytes, &req) {
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "sources")
		return
	}
	if len(req.Targets) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "targets")
		return
	}
	if len(req.Sources)*len(req.Targets) > h.maxMatrixSize {
		writeError(w, http.StatusRequestEntityTooLarge, "matrix_too_large", "")
		return
	}

	dist, err := h.router.Matrix(r.Context(), req.Sources, req.Targets)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, MatrixResponse{Distances: dist})
}

// HandleNearest handles GET /api/v1/nearest?x=&y=.
func (h *Handlers) HandleNearest(w http.ResponseWriter, r *http.Request) {
	var p PointJSON
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"x", &p.X}, {"y", &p.Y}} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(f.name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_coordinates", f.name)
			return
		}
		*f.dst = v
	}
	if err := h.validatePoint(p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	res, err := h.router.Nearest(p.X, p.Y)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, NearestResponse{Vertex: res.Vertex, Distance: res.Dist})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stats)
}

func (h *Handlers) resolvePair(w http.ResponseWriter, src, dst Endpoint) (s, t uint32, ok bool) {
	s, err := h.resolve(src)
	if err != nil {
		writeEndpointError(w, err, "source")
		return 0, 0, false
	}
	t, err = h.resolve(dst)
	if err != nil {
		writeEndpointError(w, err, "target")
		return 0, 0, false
	}
	return s, t, true
}

var errBadEndpoint = errors.New("endpoint needs exactly one of vertex or point")

// resolve turns an endpoint into a vertex, snapping points.
func (h *Handlers) resolve(ep Endpoint) (uint32, error) {
	switch {
	case (ep.Vertex == nil) == (ep.Point == nil):
		return 0, errBadEndpoint
	case ep.Vertex != nil:
		if *ep.Vertex >= h.stats.NumNodes {
			return 0, fmt.Errorf("vertex %d: %w", *ep.Vertex, routing.ErrVertexOutOfRange)
		}
		return *ep.Vertex, nil
	}
	if err := h.validatePoint(*ep.Point); err != nil {
		return 0, err
	}
	res, err := h.router.Nearest(ep.Point.X, ep.Point.Y)
	if err != nil {
		return 0, err
	}
	return res.Vertex, nil
}

var errBadCoordinates = errors.New("invalid coordinates")

func (h *Handlers) validatePoint(p PointJSON) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return errBadCoordinates
	}
	if h.stats.Geographic && (p.Y < -90 || p.Y > 90 || p.X < -180 || p.X > 180) {
		return errBadCoordinates
	}
	return nil
}

// decodeJSON enforces the content type and decodes the body into dst. It
// writes the error response itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func writeEndpointError(w http.ResponseWriter, err error, field string) {
	switch {
	case errors.Is(err, errBadEndpoint):
		writeError(w, http.StatusBadRequest, "invalid_request", field)
	case errors.Is(err, errBadCoordinates):
		writeError(w, http.StatusBadRequest, "invalid_coordinates", field)
	case errors.Is(err, routing.ErrVertexOutOfRange):
		writeError(w, http.StatusBadRequest, "vertex_out_of_range", field)
	case errors.Is(err, routing.ErrPointTooFar):
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_graph", field)
	case errors.Is(err, routing.ErrNoCoordinates):
		writeError(w, http.StatusUnprocessableEntity, "no_coordinates", field)
	default:
		writeQueryError(w, err)
	}
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, routing.ErrVertexOutOfRange):
		writeError(w, http.StatusBadRequest, "vertex_out_of_range", "")
	case errors.Is(err, routing.ErrUnknownMethod):
		writeError(w, http.StatusBadRequest, "invalid_method", "method")
	case errors.Is(err, routing.ErrPointTooFar):
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_graph", "")
	case errors.Is(err, routing.ErrNoCoordinates):
		writeError(w, http.StatusUnprocessableEntity, "no_coordinates", "")
	case errors.Is(err, routing.ErrNoRoute):
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
	default:
		log.Printf("query error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
