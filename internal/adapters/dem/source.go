// Package dem provides elevation sources: a local ESRI ASCII grid, a
// synthetic dome and a chain that tries them in order.
package dem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/okian/watershed/pkg/logger"
	"github.com/okian/watershed/pkg/metrics"
	"github.com/paulmach/orb"
)

// Source names reported as terrain_source.
const (
	SourceFile      = "file"
	SourceSynthetic = "synthetic"
)

// Source returns the terrain around a point.
type Source interface {
	Name() string
	// Fetch returns the elevations covering the square of half-side
	// radiusM around center, or ErrUnavailable.
	Fetch(ctx context.Context, center orb.Point, radiusM float64) (*raster.Raster, error)
}

// FileSource serves windows of a grid loaded once into memory.
type FileSource struct {
	r *raster.Raster
}

// OpenFile loads an ESRI ASCII grid from path.
func OpenFile(path string, nodata float64) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dem: %w", err)
	}
	defer f.Close()
	r, err := ReadASCII(f, nodata)
	if err != nil {
		return nil, fmt.Errorf("load dem %s: %w", path, err)
	}
	return NewFileSource(r), nil
}

// NewFileSource serves windows of r.
func NewFileSource(r *raster.Raster) *FileSource { return &FileSource{r: r} }

func (s *FileSource) Name() string { return SourceFile }

// Bound returns the extent of the loaded grid.
func (s *FileSource) Bound() orb.Bound { return s.r.Bound() }

func (s *FileSource) Fetch(ctx context.Context, center orb.Point, radiusM float64) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := s.r.Clip(geodesy.BoundAround(center[0], center[1], radiusM))
	if errors.Is(err, raster.ErrOutOfBounds) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	if _, _, ok := w.Range(); !ok {
		return nil, ErrUnavailable
	}
	return w, nil
}

// SyntheticSource generates a deterministic dome for any request.
type SyntheticSource struct {
	size int
}

// NewSynthetic returns a synthetic source of size x size grids.
func NewSynthetic(size int) *SyntheticSource {
	if size < 3 {
		size = raster.SyntheticSize
	}
	return &SyntheticSource{size: size}
}

func (s *SyntheticSource) Name() string { return SourceSynthetic }

func (s *SyntheticSource) Fetch(ctx context.Context, center orb.Point, radiusM float64) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if radiusM <= 0 {
		return nil, ErrUnavailable
	}
	return raster.Synthetic(center[0], center[1], radiusM, s.size, raster.SeedFor(center[0], center[1])), nil
}

// Chain asks each source in turn and keeps the first answer.
type Chain struct {
	sources []Source
	logger  logger.Logger
}

// NewChain returns a chain over sources in priority order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger.Get().Named("dem")}
}

// Fetched is a raster with the name of the source that produced it.
type Fetched struct {
	Raster *raster.Raster
	Source string
}

// Fetch returns the first raster any source can produce, or
// ErrUnavailable when none can.
func (c *Chain) Fetch(ctx context.Context, center orb.Point, radiusM float64) (Fetched, error) {
	for _, src := range c.sources {
		start := time.Now()
		r, err := src.Fetch(ctx, center, radiusM)
		switch {
		case err == nil:
			metrics.RecordDEMFetch(src.Name(), metrics.OutcomeOK, time.Since(start))
			return Fetched{Raster: r, Source: src.Name()}, nil
		case errors.Is(err, ErrUnavailable):
			metrics.RecordDEMFetch(src.Name(), metrics.OutcomeEmpty, time.Since(start))
			c.logger.Debug(ctx, "source has no terrain",
				logger.String("source", src.Name()),
				logger.Float64("lon", center[0]),
				logger.Float64("lat", center[1]),
			)
		default:
			metrics.RecordDEMFetch(src.Name(), metrics.OutcomeError, time.Since(start))
			metrics.RecordErrorByComponent("dem", src.Name())
			if ctx.Err() != nil {
				return Fetched{}, err
			}
			c.logger.Warn(ctx, "terrain fetch failed", logger.String("source", src.Name()), logger.Error(err))
		}
	}
	return Fetched{}, ErrUnavailable
}

// Sources returns the names of the chained sources.
func (c *Chain) Sources() []string {
	out := make([]string, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Name()
	}
	return out
}
