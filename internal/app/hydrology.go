package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/watershed/internal/adapters/dem"
	"github.com/okian/watershed/internal/domain/contour"
	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/grid"
	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/internal/domain/watershed"
	"github.com/okian/watershed/pkg/logger"
	"github.com/okian/watershed/pkg/metrics"
	"github.com/paulmach/orb"
)

// bboxContourMargin widens the terrain fetched for a bbox contour request.
const bboxContourMargin = 1.1

// checkPoint rejects coordinates that are not a lon/lat position.
func checkPoint(p orb.Point) error {
	lon, lat := p[0], p[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidArgument)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinate out of range", ErrInvalidArgument)
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// fetch returns the terrain around center, or ok false when no source has
// any.
func (s *Service) fetch(ctx context.Context, center orb.Point, radiusM float64) (dem.Fetched, bool, error) {
	fetched, err := s.terrain.Fetch(ctx, center, radiusM)
	switch {
	case err == nil:
		return fetched, true, nil
	case errors.Is(err, dem.ErrUnavailable):
		return dem.Fetched{}, false, nil
	default:
		return dem.Fetched{}, false, fmt.Errorf("fetch terrain: %w", err)
	}
}

func (s *Service) analyze(fetched dem.Fetched) *watershed.Analysis {
	metrics.RecordFlowGrid()
	return watershed.NewAnalysis(fetched.Raster)
}

// FlowPath traces the steepest descent from p over the terrain around it.
func (s *Service) FlowPath(ctx context.Context, p orb.Point) (flow.Path, error) {
	if err := s.running(); err != nil {
		return flow.Path{}, err
	}
	if err := checkPoint(p); err != nil {
		return flow.Path{}, err
	}
	start := time.Now()
	fetched, ok, err := s.fetch(ctx, p, s.cfg.FlowRadiusM)
	if err != nil {
		metrics.RecordAnalysis(metrics.KindFlowPath, metrics.OutcomeError, time.Since(start))
		return flow.Path{}, err
	}
	if !ok {
		metrics.RecordFallback(metrics.KindFlowPath, watershed.DiagDEMUnavailable)
		metrics.RecordAnalysis(metrics.KindFlowPath, metrics.OutcomeFallback, time.Since(start))
		return flow.PointPath(p), nil
	}

	path := flow.TracePath(fetched.Raster, p, flow.MaxPathSteps)
	path.ReachesStream = s.rivers.Near(path.Line[len(path.Line)-1], s.cfg.StreamToleranceM)
	metrics.RecordAnalysis(metrics.KindFlowPath, metrics.OutcomeOK, time.Since(start))
	return path, nil
}

// Watershed delineates the basin draining through p. Missing terrain or a
// degenerate basin yields the fallback square, never an error.
func (s *Service) Watershed(ctx context.Context, p orb.Point, radiusM float64) (watershed.Result, error) {
	if err := s.running(); err != nil {
		return watershed.Result{}, err
	}
	if err := checkPoint(p); err != nil {
		return watershed.Result{}, err
	}
	start := time.Now()
	fetched, ok, err := s.fetch(ctx, p, orDefault(radiusM, s.cfg.WatershedRadiusM))
	if err != nil {
		metrics.RecordAnalysis(metrics.KindWatershed, metrics.OutcomeError, time.Since(start))
		return watershed.Result{}, err
	}

	var res watershed.Result
	if ok {
		res = s.analyze(fetched).Watershed(p)
	} else {
		res = watershed.Fallback(p, watershed.DiagDEMUnavailable)
	}

	if res.Fallback {
		metrics.RecordFallback(metrics.KindWatershed, res.Reason)
		metrics.RecordAnalysis(metrics.KindWatershed, metrics.OutcomeFallback, time.Since(start))
		s.logger.Debug(ctx, "watershed fallback",
			logger.Float64("lon", p[0]),
			logger.Float64("lat", p[1]),
			logger.String("reason", res.Reason),
		)
		return res, nil
	}
	metrics.ObserveBasinCells(res.Cells)
	metrics.RecordAnalysis(metrics.KindWatershed, metrics.OutcomeOK, time.Since(start))
	return res, nil
}

// WatershedContours contours the basin draining through p.
func (s *Service) WatershedContours(ctx context.Context, p orb.Point, radiusM, intervalM float64) (watershed.Contours, error) {
	if err := s.running(); err != nil {
		return watershed.Contours{}, err
	}
	if err := checkPoint(p); err != nil {
		return watershed.Contours{}, err
	}
	interval := orDefault(intervalM, s.cfg.ContourIntervalM)
	start := time.Now()
	fetched, ok, err := s.fetch(ctx, p, orDefault(radiusM, s.cfg.WatershedRadiusM))
	if err != nil {
		metrics.RecordAnalysis(metrics.KindWatershedContours, metrics.OutcomeError, time.Since(start))
		return watershed.Contours{}, err
	}
	if !ok {
		metrics.RecordAnalysis(metrics.KindWatershedContours, metrics.OutcomeEmpty, time.Since(start))
		return watershed.Contours{Interval: interval, Diagnostic: watershed.DiagDEMUnavailable}, nil
	}

	c := s.analyze(fetched).Contours(p, interval)
	if c.Diagnostic != "" {
		metrics.RecordAnalysis(metrics.KindWatershedContours, metrics.OutcomeEmpty, time.Since(start))
		return c, nil
	}
	metrics.AddContourFeatures(len(c.Lines))
	metrics.RecordAnalysis(metrics.KindWatershedContours, metrics.OutcomeOK, time.Since(start))
	return c, nil
}

// Contours extracts iso-lines from the terrain within radiusM of p.
// Missing terrain yields an empty set.
func (s *Service) Contours(ctx context.Context, p orb.Point, radiusM, intervalM float64) (contour.Set, error) {
	if err := s.running(); err != nil {
		return contour.Set{}, err
	}
	if err := checkPoint(p); err != nil {
		return contour.Set{}, err
	}
	return s.contours(ctx, p, orDefault(radiusM, s.cfg.ContourRadiusM), orDefault(intervalM, s.cfg.ContourIntervalM), nil)
}

// BBoxContours extracts iso-lines covering b and clips them to it.
func (s *Service) BBoxContours(ctx context.Context, b orb.Bound, intervalM float64) (contour.Set, error) {
	if err := s.running(); err != nil {
		return contour.Set{}, err
	}
	if err := checkBound(b); err != nil {
		return contour.Set{}, err
	}
	return s.contours(ctx, b.Center(), geodesy.CoverRadius(b, bboxContourMargin), orDefault(intervalM, s.cfg.ContourIntervalM), &b)
}

func (s *Service) contours(ctx context.Context, center orb.Point, radiusM, interval float64, clip *orb.Bound) (contour.Set, error) {
	start := time.Now()
	fetched, ok, err := s.fetch(ctx, center, radiusM)
	if err != nil {
		metrics.RecordAnalysis(metrics.KindContours, metrics.OutcomeError, time.Since(start))
		return contour.Set{}, err
	}
	if !ok {
		metrics.RecordAnalysis(metrics.KindContours, metrics.OutcomeEmpty, time.Since(start))
		return contour.Set{Interval: interval}, nil
	}
	set, err := contour.Extract(fetched.Raster, interval)
	switch {
	case errors.Is(err, contour.ErrNoData):
		metrics.RecordAnalysis(metrics.KindContours, metrics.OutcomeEmpty, time.Since(start))
		return contour.Set{Interval: interval}, nil
	case err != nil:
		metrics.RecordAnalysis(metrics.KindContours, metrics.OutcomeError, time.Since(start))
		return contour.Set{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if clip != nil {
		set.Lines = contour.Clip(set.Lines, *clip)
	}
	metrics.AddContourFeatures(len(set.Lines))
	metrics.RecordAnalysis(metrics.KindContours, metrics.OutcomeOK, time.Since(start))
	return set, nil
}

func checkBound(b orb.Bound) error {
	if err := checkPoint(b.Min); err != nil {
		return err
	}
	if err := checkPoint(b.Max); err != nil {
		return err
	}
	if b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1] {
		return fmt.Errorf("%w: minx/miny must be below maxx/maxy", ErrInvalidArgument)
	}
	return nil
}

// Grid samples the watershed pipeline over a lattice in the request box.
func (s *Service) Grid(ctx context.Context, req model.GridRequest) (grid.Heatmap, error) {
	if err := s.running(); err != nil {
		return grid.Heatmap{}, err
	}
	if req.SpacingM == 0 {
		req.SpacingM = s.cfg.GridSpacingM
	}
	if err := req.Validate(s.cfg.GridMinSpacingM, s.cfg.GridMaxSpacingM, s.cfg.GridMaxPoints); err != nil {
		return grid.Heatmap{}, err
	}
	start := time.Now()
	fetched, ok, err := s.fetch(ctx, req.Bound.Center(), grid.FetchRadius(req.Bound))
	if err != nil {
		metrics.RecordAnalysis(metrics.KindGrid, metrics.OutcomeError, time.Since(start))
		return grid.Heatmap{}, err
	}
	if !ok {
		metrics.RecordAnalysis(metrics.KindGrid, metrics.OutcomeEmpty, time.Since(start))
		return grid.Heatmap{SpacingM: req.SpacingM, Diagnostic: watershed.DiagDEMUnavailable}, nil
	}

	h, err := grid.Sample(ctx, s.analyze(fetched), req.Bound, req.SpacingM,
		grid.WithParallelism(s.cfg.GridParallelism),
		grid.WithMaxPoints(s.cfg.GridMaxPoints),
		grid.WithSource(fetched.Source),
	)
	if err != nil {
		metrics.RecordAnalysis(metrics.KindGrid, metrics.OutcomeError, time.Since(start))
		return grid.Heatmap{}, fmt.Errorf("sample grid: %w", err)
	}
	metrics.AddGridPoints("kept", len(h.Cells))
	metrics.AddGridPoints("dropped", h.Dropped)
	outcome := metrics.OutcomeOK
	if h.Diagnostic != "" {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordAnalysis(metrics.KindGrid, outcome, time.Since(start))
	s.logger.Debug(ctx, "grid sampled",
		logger.Int("points", h.Sampled),
		logger.Int("kept", len(h.Cells)),
		logger.String("source", h.Source),
		logger.Duration("took", time.Since(start)),
	)
	return h, nil
}
