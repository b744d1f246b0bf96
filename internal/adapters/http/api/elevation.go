package api

import (
	"context"
	"net/http"

	"github.com/okian/watershed/internal/domain/contour"
	"github.com/paulmach/orb"
)

// Query defaults for the elevation endpoints.
const (
	defaultContourRadiusM       = 500.0
	defaultContourIntervalM     = 2.0
	defaultBBoxContourIntervalM = 5.0
)

// ElevationDependencies defines the operations behind /api/elevation.
type ElevationDependencies interface {
	Contours(ctx context.Context, p orb.Point, radiusM, intervalM float64) (contour.Set, error)
	BBoxContours(ctx context.Context, b orb.Bound, intervalM float64) (contour.Set, error)
}

// ElevationHandler serves contour lines.
type ElevationHandler struct {
	deps ElevationDependencies
}

// NewElevationHandler creates a new elevation handler.
func NewElevationHandler(deps ElevationDependencies) *ElevationHandler {
	return &ElevationHandler{deps: deps}
}

// HandleContours handles GET /api/elevation/contours?lat&lon&radius_m&interval_m.
func (h *ElevationHandler) HandleContours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	p, err := pointParams(q)
	if err != nil {
		writeFailure(w, err)
		return
	}
	radius, err := floatParam(q, "radius_m", defaultContourRadiusM, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	interval, err := floatParam(q, "interval_m", defaultContourIntervalM, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	set, err := h.deps.Contours(r.Context(), p, radius, interval)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contour.FeatureCollection(set.Lines))
}

// HandleBBoxContours handles GET /api/elevation/contours/bbox?minx&miny&maxx&maxy&interval_m.
func (h *ElevationHandler) HandleBBoxContours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	b, err := boundParams(q)
	if err != nil {
		writeFailure(w, err)
		return
	}
	interval, err := floatParam(q, "interval_m", defaultBBoxContourIntervalM, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	set, err := h.deps.BBoxContours(r.Context(), b, interval)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contour.FeatureCollection(set.Lines))
}
