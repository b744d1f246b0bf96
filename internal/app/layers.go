package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/watershed/internal/domain/placement"
	"github.com/okian/watershed/pkg/metrics"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Rivers returns the river lines touching b.
func (s *Service) Rivers(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if err := checkBound(b); err != nil {
		return nil, err
	}
	return s.rivers.InBound(b), nil
}

// FloodZones returns the flood zone polygons touching b.
func (s *Service) FloodZones(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if err := checkBound(b); err != nil {
		return nil, err
	}
	return s.zones.InBound(b), nil
}

// FloodZone returns the zone mapped at p; ok is false outside every zone.
func (s *Service) FloodZone(ctx context.Context, p orb.Point) (placement.Zone, bool, error) {
	if err := s.running(); err != nil {
		return placement.Zone{}, false, err
	}
	if err := checkPoint(p); err != nil {
		return placement.Zone{}, false, err
	}
	return placement.Lookup(ctx, s.zones, p)
}

// Placement suggests up to n building sites within radiusM of p.
func (s *Service) Placement(ctx context.Context, p orb.Point, radiusM float64, n int) ([]placement.Suggestion, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if err := checkPoint(p); err != nil {
		return nil, err
	}
	if n == 0 {
		n = s.cfg.PlacementSuggestions
	}
	if radiusM == 0 {
		radiusM = s.cfg.PlacementRadiusM
	}
	start := time.Now()
	out, err := s.placer.Suggest(ctx, p, radiusM, n)
	if err != nil {
		metrics.RecordAnalysis(metrics.KindPlacement, metrics.OutcomeError, time.Since(start))
		if errors.Is(err, placement.ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return nil, err
	}
	metrics.RecordAnalysis(metrics.KindPlacement, metrics.OutcomeOK, time.Since(start))
	return out, nil
}

// Buildability checks whether p is outside regulated flood zones.
func (s *Service) Buildability(ctx context.Context, p orb.Point) (placement.Buildability, error) {
	if err := s.running(); err != nil {
		return placement.Buildability{}, err
	}
	if err := checkPoint(p); err != nil {
		return placement.Buildability{}, err
	}
	start := time.Now()
	b, err := s.placer.CanBuild(ctx, p)
	if err != nil {
		metrics.RecordAnalysis(metrics.KindBuildability, metrics.OutcomeError, time.Since(start))
		return placement.Buildability{}, err
	}
	metrics.RecordAnalysis(metrics.KindBuildability, metrics.OutcomeOK, time.Since(start))
	return b, nil
}
