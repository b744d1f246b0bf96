package api

import (
	"context"
	"net/http"

	"github.com/okian/watershed/internal/domain/placement"
	"github.com/okian/watershed/internal/domain/types"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FloodDependencies defines the operations behind /api/flood.
type FloodDependencies interface {
	FloodZones(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error)
	FloodZone(ctx context.Context, p orb.Point) (placement.Zone, bool, error)
}

// FloodHandler serves flood hazard zones.
type FloodHandler struct {
	deps FloodDependencies
}

// NewFloodHandler creates a new flood handler.
func NewFloodHandler(deps FloodDependencies) *FloodHandler {
	return &FloodHandler{deps: deps}
}

// HandleZones handles GET /api/flood/zones?minx&miny&maxx&maxy.
func (h *FloodHandler) HandleZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	b, err := boundParams(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	fc, err := h.deps.FloodZones(r.Context(), b)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// HandlePoint handles GET /api/flood/point?lat&lon.
func (h *FloodHandler) HandlePoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := pointParams(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	z, ok, err := h.deps.FloodZone(r.Context(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewFloodPoint(z, ok))
}
