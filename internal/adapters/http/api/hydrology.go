package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/grid"
	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/internal/domain/types"
	"github.com/okian/watershed/internal/domain/watershed"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const jobsPrefix = "/api/hydrology/watershed/grid/jobs/"

// HydrologyDependencies defines the operations behind /api/hydrology.
type HydrologyDependencies interface {
	FlowPath(ctx context.Context, p orb.Point) (flow.Path, error)
	Watershed(ctx context.Context, p orb.Point, radiusM float64) (watershed.Result, error)
	WatershedContours(ctx context.Context, p orb.Point, radiusM, intervalM float64) (watershed.Contours, error)
	Grid(ctx context.Context, req model.GridRequest) (grid.Heatmap, error)
	SubmitGridJob(ctx context.Context, req model.GridRequest) (model.Job, error)
	Job(ctx context.Context, id string) (model.Job, error)
	Rivers(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error)
}

// HydrologyHandler serves flow paths, watersheds, heatmaps and rivers.
type HydrologyHandler struct {
	deps HydrologyDependencies
}

// NewHydrologyHandler creates a new hydrology handler.
func NewHydrologyHandler(deps HydrologyDependencies) *HydrologyHandler {
	return &HydrologyHandler{deps: deps}
}

// HandleFlowDirection handles GET /api/hydrology/flow-direction?lat&lon.
func (h *HydrologyHandler) HandleFlowDirection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := pointParams(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	path, err := h.deps.FlowPath(r.Context(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path.Feature())
}

// HandleWatershed handles GET /api/hydrology/watershed?lat&lon&radius_m.
func (h *HydrologyHandler) HandleWatershed(w http.ResponseWriter, r *http.Request) {
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
	radius, err := floatParam(q, "radius_m", 0, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	res, err := h.deps.Watershed(r.Context(), p, radius)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Feature())
}

// HandleWatershedContours handles
// GET /api/hydrology/watershed/contours?lat&lon&radius_m&interval_m.
func (h *HydrologyHandler) HandleWatershedContours(w http.ResponseWriter, r *http.Request) {
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
	radius, err := floatParam(q, "radius_m", 0, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	interval, err := floatParam(q, "interval_m", 0, false)
	if err != nil {
		writeFailure(w, err)
		return
	}
	c, err := h.deps.WatershedContours(r.Context(), p, radius, interval)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.FeatureCollection())
}

func gridRequest(r *http.Request) (model.GridRequest, error) {
	q := r.URL.Query()
	b, err := boundParams(q)
	if err != nil {
		return model.GridRequest{}, err
	}
	spacing, err := floatParam(q, "grid_spacing_m", 0, false)
	if err != nil {
		return model.GridRequest{}, err
	}
	return model.GridRequest{Bound: b, SpacingM: spacing}, nil
}

// HandleGrid handles GET /api/hydrology/watershed/grid?minx&miny&maxx&maxy&grid_spacing_m.
func (h *HydrologyHandler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	req, err := gridRequest(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	heat, err := h.deps.Grid(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heat.FeatureCollection())
}

// HandleSubmitGridJob handles POST /api/hydrology/watershed/grid/jobs.
func (h *HydrologyHandler) HandleSubmitGridJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := gridRequest(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	job, err := h.deps.SubmitGridJob(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	location := jobsPrefix + job.ID
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusAccepted, types.JobAccepted{ID: job.ID, State: string(job.State), Location: location})
}

// HandleGetGridJob handles GET /api/hydrology/watershed/grid/jobs/{id}.
func (h *HydrologyHandler) HandleGetGridJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, jobsPrefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	job, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewJobStatus(job))
}

// HandleRivers handles GET /api/hydrology/rivers?minx&miny&maxx&maxy.
func (h *HydrologyHandler) HandleRivers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	b, err := boundParams(r.URL.Query())
	if err != nil {
		writeFailure(w, err)
		return
	}
	fc, err := h.deps.Rivers(r.Context(), b)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}
