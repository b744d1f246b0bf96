// Package watershed chains the hydrology primitives into the watershed
// pipeline: trace to the pour point, delineate, outline, measure and time.
package watershed

import (
	"math"

	"github.com/okian/watershed/internal/domain/basin"
	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FallbackHalfSideM is the half-side of the square returned when no basin
// can be delineated.
const FallbackHalfSideM = 2000.0

// Result describes the basin draining through a point.
type Result struct {
	Boundary     orb.Ring
	AreaHa       float64
	TcMin        float64
	Outlet       orb.Point
	LongestPathM float64
	Slope        float64
	Cells        int

	// Fallback is set when Boundary is the square around the query point.
	Fallback bool
	Reason   string
}

// Analysis binds a raster to its flow grid so several points can share one
// D8 pass. It is immutable and safe for concurrent use.
type Analysis struct {
	r *raster.Raster
	g *flow.Grid
}

// NewAnalysis computes the flow grid of r.
func NewAnalysis(r *raster.Raster) *Analysis {
	return &Analysis{r: r, g: flow.Compute(r)}
}

func (a *Analysis) Raster() *raster.Raster { return a.r }
func (a *Analysis) Grid() *flow.Grid       { return a.g }

// Valid reports whether p falls on a cell with data.
func (a *Analysis) Valid(p orb.Point) bool {
	row, col := a.r.Locate(p)
	return a.r.Valid(row, col)
}

// Basin traces p to its pour point and delineates the basin draining there.
func (a *Analysis) Basin(p orb.Point) *basin.Mask {
	row, col := a.r.Locate(p)
	return basin.Delineate(a.g, a.g.Trace(flow.Cell{Row: row, Col: col}))
}

// At runs the full pipeline for p. The error names why the basin was
// rejected; callers decide whether to fall back or skip.
func (a *Analysis) At(p orb.Point) (Result, error) {
	row, col := a.r.Locate(p)
	m := basin.Delineate(a.g, a.g.Trace(flow.Cell{Row: row, Col: col}))
	out := m.Outlet()
	if math.IsNaN(a.r.At(out.Row, out.Col)) {
		return Result{Cells: m.Size()}, ErrNoData
	}
	if m.Degenerate() {
		return Result{Cells: m.Size()}, ErrDegenerate
	}
	ring, ok := basin.Boundary(a.r, m)
	if !ok {
		return Result{Cells: m.Size()}, ErrNoBoundary
	}
	area := geodesy.AreaHectares(ring)
	if area <= 0 {
		return Result{Cells: m.Size()}, ErrZeroArea
	}
	length, slope := basin.LongestPath(a.r, a.g, m)
	return Result{
		Boundary:     ring,
		AreaHa:       area,
		TcMin:        basin.Kirpich(length, slope),
		Outlet:       a.r.CellCenter(out.Row, out.Col),
		LongestPathM: length,
		Slope:        slope,
		Cells:        m.Size(),
	}, nil
}

// Watershed returns the basin for p, or the fallback square when the basin
// is degenerate.
func (a *Analysis) Watershed(p orb.Point) Result {
	res, err := a.At(p)
	if err != nil {
		return Fallback(p, err.Error())
	}
	return res
}

// Fallback returns the square of half-side FallbackHalfSideM around p with
// its geodesic area and no timing.
func Fallback(p orb.Point, reason string) Result {
	ring := geodesy.BoundAround(p[0], p[1], FallbackHalfSideM).ToRing()
	return Result{
		Boundary: ring,
		AreaHa:   geodesy.AreaHectares(ring),
		Outlet:   p,
		Fallback: true,
		Reason:   reason,
	}
}

// Feature renders the result as a GeoJSON Polygon feature.
func (r Result) Feature() *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{r.Boundary})
	f.Properties["area_ha"] = round(r.AreaHa, 2)
	f.Properties["time_of_concentration_min"] = round(r.TcMin, 2)
	f.Properties["outlet_lat"] = r.Outlet[1]
	f.Properties["outlet_lon"] = r.Outlet[0]
	f.Properties["longest_path_m"] = round(r.LongestPathM, 2)
	f.Properties["slope"] = round(r.Slope, 4)
	if r.Fallback {
		f.Properties["fallback"] = true
		f.Properties["reason"] = r.Reason
	}
	return f
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
