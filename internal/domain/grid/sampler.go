// Package grid samples the watershed pipeline over a regular lattice and
// normalizes the results into a heatmap.
package grid

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/watershed"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// FetchMargin widens the DEM fetch radius beyond the half diagonal of the
// sampled box.
const FetchMargin = 1.2

// Cell is one kept lattice point.
type Cell struct {
	Center  orb.Point
	AreaHa  float64
	TcMin   float64
	JetArea float64
	JetTc   float64
}

// Heatmap is the normalized outcome of a sampling run.
type Heatmap struct {
	Cells     []Cell
	SpacingM  float64
	LonStep   float64
	LatStep   float64
	MinAreaHa float64
	MaxAreaHa float64
	MinTcMin  float64
	MaxTcMin  float64
	CellSizeM float64
	Source    string

	// Sampled counts lattice points visited, Dropped those skipped.
	Sampled int
	Dropped int

	Diagnostic string
}

// DefaultMaxPoints caps the lattice of a single sampling run.
const DefaultMaxPoints = 10000

// FetchRadius returns the radius of terrain needed to sample b.
func FetchRadius(b orb.Bound) float64 {
	return geodesy.CoverRadius(b, FetchMargin)
}

// Lattice returns the sample points of b at spacingM, row by row from the
// southern edge. The northern and eastern edges are excluded.
func Lattice(b orb.Bound, spacingM float64) (pts []orb.Point, lonStep, latStep float64) {
	c := b.Center()
	latStep = spacingM / geodesy.MetersPerDegreeLat
	lonStep = spacingM / geodesy.MetersPerDegreeLon(c[1])
	nLat := steps(b.Min[1], b.Max[1], latStep)
	nLon := steps(b.Min[0], b.Max[0], lonStep)
	pts = make([]orb.Point, 0, nLat*nLon)
	for i := 0; i < nLat; i++ {
		lat := b.Min[1] + float64(i)*latStep
		for j := 0; j < nLon; j++ {
			pts = append(pts, orb.Point{b.Min[0] + float64(j)*lonStep, lat})
		}
	}
	return pts, lonStep, latStep
}

func steps(lo, hi, step float64) int {
	if hi <= lo {
		return 0
	}
	return int(math.Ceil((hi - lo) / step))
}

// LatticeSize returns how many points Lattice would produce for b at
// spacingM without building them. Counts beyond math.MaxInt32 are clamped.
func LatticeSize(b orb.Bound, spacingM float64) int {
	if spacingM <= 0 || b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return 0
	}
	latStep := spacingM / geodesy.MetersPerDegreeLat
	lonStep := spacingM / geodesy.MetersPerDegreeLon(b.Center()[1])
	n := math.Ceil((b.Max[1]-b.Min[1])/latStep) * math.Ceil((b.Max[0]-b.Min[0])/lonStep)
	if math.IsNaN(n) || n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

type sample struct {
	area, tc float64
	ok       bool
}

// Sample runs the watershed pipeline at every lattice point of b over the
// analysis' raster. Points off the data or with a rejected basin are
// skipped. Output order is lattice order whatever the parallelism.
func Sample(ctx context.Context, a *watershed.Analysis, b orb.Bound, spacingM float64, opts ...Option) (Heatmap, error) {
	if spacingM <= 0 || math.IsNaN(spacingM) {
		return Heatmap{}, ErrSpacing
	}
	if b.IsEmpty() || b.Min == b.Max {
		return Heatmap{}, ErrBounds
	}
	s := settings{parallelism: 1, maxPoints: DefaultMaxPoints}
	for _, opt := range opts {
		opt(&s)
	}
	if n := LatticeSize(b, spacingM); n > s.maxPoints {
		return Heatmap{}, fmt.Errorf("%w: %d points, limit %d", ErrTooLarge, n, s.maxPoints)
	}

	pts, lonStep, latStep := Lattice(b, spacingM)
	results := make([]sample, len(pts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, p := range pts {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !a.Valid(p) {
				return nil
			}
			res, err := a.At(p)
			if err != nil {
				return nil
			}
			results[i] = sample{area: res.AreaHa, tc: res.TcMin, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Heatmap{}, err
	}
	if err := ctx.Err(); err != nil {
		return Heatmap{}, err
	}

	tf := a.Raster().Transform()
	h := Heatmap{
		SpacingM:  spacingM,
		LonStep:   lonStep,
		LatStep:   latStep,
		CellSizeM: tf.CellWidth * geodesy.MetersPerDegreeLon(b.Center()[1]),
		Source:    s.source,
		Sampled:   len(pts),
	}
	areas := make([]float64, 0, len(pts))
	tcs := make([]float64, 0, len(pts))
	for i, r := range results {
		if !r.ok {
			continue
		}
		h.Cells = append(h.Cells, Cell{Center: pts[i], AreaHa: r.area, TcMin: r.tc})
		areas = append(areas, r.area)
		tcs = append(tcs, r.tc)
	}
	h.Dropped = h.Sampled - len(h.Cells)
	if len(h.Cells) == 0 {
		h.Diagnostic = DiagNoPoints
		return h, nil
	}

	h.MinAreaHa, h.MaxAreaHa = floats.Min(areas), floats.Max(areas)
	h.MinTcMin, h.MaxTcMin = floats.Min(tcs), floats.Max(tcs)
	areaRange := spread(h.MinAreaHa, h.MaxAreaHa)
	tcRange := spread(h.MinTcMin, h.MaxTcMin)
	for i := range h.Cells {
		c := &h.Cells[i]
		c.JetArea = (c.AreaHa - h.MinAreaHa) / areaRange
		c.JetTc = (c.TcMin - h.MinTcMin) / tcRange
	}
	return h, nil
}

func spread(lo, hi float64) float64 {
	if hi > lo {
		return hi - lo
	}
	return 1
}
