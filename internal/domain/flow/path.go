package flow

import (
	"math"

	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MaxPathSteps bounds a point flow-path trace.
const MaxPathSteps = 500

// pathNeighbors is the order candidate cells are examined when tracing a
// point's path: N, S, W, E, NW, NE, SW, SE.
var pathNeighbors = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// Path is the steepest-descent route from a point.
type Path struct {
	Line          orb.LineString
	DistanceM     float64
	ReachesStream bool
}

// PointPath returns a single-vertex path at p, used when no terrain is
// available.
func PointPath(p orb.Point) Path {
	return Path{Line: orb.LineString{p}}
}

// TracePath walks downhill from the cell containing start, moving each
// step to the lowest strictly lower valid neighbor, until no neighbor is
// lower, the current cell is nodata, or maxSteps vertices were emitted.
// Vertices are cell corners rounded to 6 decimals.
func TracePath(r *raster.Raster, start orb.Point, maxSteps int) Path {
	if maxSteps <= 0 {
		maxSteps = MaxPathSteps
	}
	row, col := r.Locate(start)

	line := make(orb.LineString, 0, 16)
	for step := 0; step < maxSteps; step++ {
		line = append(line, round6(r.Corner(row, col)))
		z := r.At(row, col)
		if math.IsNaN(z) {
			break
		}
		bestRow, bestCol, best := -1, -1, z
		for _, o := range pathNeighbors {
			nr, nc := row+o[0], col+o[1]
			if !r.Valid(nr, nc) {
				continue
			}
			if nz := r.At(nr, nc); nz < best {
				best, bestRow, bestCol = nz, nr, nc
			}
		}
		if bestRow < 0 {
			break
		}
		row, col = bestRow, bestCol
	}

	p := Path{Line: line}
	if len(line) > 1 {
		p.DistanceM = geodesy.Length(line)
	}
	return p
}

func round6(p orb.Point) orb.Point {
	return orb.Point{math.Round(p[0]*1e6) / 1e6, math.Round(p[1]*1e6) / 1e6}
}

// Feature renders the path as a GeoJSON LineString feature.
func (p Path) Feature() *geojson.Feature {
	f := geojson.NewFeature(p.Line)
	f.Properties["distance_m"] = math.Round(p.DistanceM*100) / 100
	f.Properties["reaches_stream"] = p.ReachesStream
	return f
}
