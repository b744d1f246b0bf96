package api

import (
	"context"
	"net/http"

	"github.com/okian/watershed/internal/domain/placement"
	"github.com/okian/watershed/internal/domain/types"
	"github.com/paulmach/orb"
)

// AnalysisDependencies defines the operations behind /api/analysis.
type AnalysisDependencies interface {
	Placement(ctx context.Context, p orb.Point, radiusM float64, n int) ([]placement.Suggestion, error)
	Buildability(ctx context.Context, p orb.Point) (placement.Buildability, error)
}

// AnalysisHandler serves placement and buildability checks.
type AnalysisHandler struct {
	deps AnalysisDependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps AnalysisDependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

// HandlePlacement handles POST /api/analysis/optimal-placement?lat&lon&radius_m&num_suggestions.
func (h *AnalysisHandler) HandlePlacement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	p, err := pointParams(q)
	if err != nil {
		writeFailure(w, err)
		return
	}
	radius, err := floatParam(q, "radius_m", 0, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := intParam(q, "num_suggestions", 0)
	if err != nil {
		writeFailure(w, err)
		return
	}
	out, err := h.deps.Placement(r.Context(), p, radius, n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSuggestions(out))
}

// HandleBuildability handles GET /api/analysis/buildability?lat&lon.
func (h *AnalysisHandler) HandleBuildability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := pointParams(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	b, err := h.deps.Buildability(r.Context(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewBuildability(b))
}
