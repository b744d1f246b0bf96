// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/watershed/internal/adapters/mq/queue"
	"github.com/okian/watershed/internal/adapters/repository"
	"github.com/okian/watershed/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HydrologyDependencies
	ElevationDependencies
	FloodDependencies
	AnalysisDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	hydrologyHandler *HydrologyHandler
	elevationHandler *ElevationHandler
	floodHandler     *FloodHandler
	analysisHandler  *AnalysisHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		hydrologyHandler: NewHydrologyHandler(deps),
		elevationHandler: NewElevationHandler(deps),
		floodHandler:     NewFloodHandler(deps),
		analysisHandler:  NewAnalysisHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	h := s.hydrologyHandler
	mux.HandleFunc("/api/hydrology/flow-direction", MetricsMiddleware(h.HandleFlowDirection, "flow_direction"))
	mux.HandleFunc("/api/hydrology/watershed", MetricsMiddleware(h.HandleWatershed, "watershed"))
	mux.HandleFunc("/api/hydrology/watershed/contours", MetricsMiddleware(h.HandleWatershedContours, "watershed_contours"))
	mux.HandleFunc("/api/hydrology/watershed/grid", MetricsMiddleware(h.HandleGrid, "grid"))
	mux.HandleFunc("/api/hydrology/watershed/grid/jobs", MetricsMiddleware(h.HandleSubmitGridJob, "grid_jobs"))
	mux.HandleFunc(jobsPrefix, MetricsMiddleware(h.HandleGetGridJob, "grid_job"))
	mux.HandleFunc("/api/hydrology/rivers", MetricsMiddleware(h.HandleRivers, "rivers"))

	mux.HandleFunc("/api/elevation/contours", MetricsMiddleware(s.elevationHandler.HandleContours, "contours"))
	mux.HandleFunc("/api/elevation/contours/bbox", MetricsMiddleware(s.elevationHandler.HandleBBoxContours, "contours_bbox"))

	mux.HandleFunc("/api/flood/zones", MetricsMiddleware(s.floodHandler.HandleZones, "flood_zones"))
	mux.HandleFunc("/api/flood/point", MetricsMiddleware(s.floodHandler.HandlePoint, "flood_point"))

	mux.HandleFunc("/api/analysis/optimal-placement", MetricsMiddleware(s.analysisHandler.HandlePlacement, "optimal_placement"))
	mux.HandleFunc("/api/analysis/buildability", MetricsMiddleware(s.analysisHandler.HandleBuildability, "buildability"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates upstream sentinel errors into status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, queue.ErrClosed),
		errors.Is(err, model.ErrNotStarted),
		errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
