package basin

import (
	"math"

	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/raster"
)

// MinSlope floors the representative slope.
const MinSlope = 0.001

// Kirpich (1940) coefficients for time of concentration in minutes with
// length in meters.
const (
	kirpichCoeff    = 0.0078
	kirpichLenExp   = 0.77
	kirpichSlopeExp = -0.385
)

// LongestPath propagates flow distance upstream from the outlet through the
// basin and returns the longest distance in meters together with the
// representative slope (max basin elevation minus outlet elevation, over
// that distance). Every step counts one cell diagonal, whatever its
// direction. Each cell is queued at most once, so direction cycles
// terminate. A basin without length or valid relief yields (0, MinSlope).
func LongestPath(r *raster.Raster, g *flow.Grid, m *Mask) (lengthM, slope float64) {
	cellM := geodesy.CellSize(r.Transform().CellWidth, r.Transform().CellHeight, r.Center()[1])

	dist := make(map[flow.Cell]float64, m.Size())
	outlet := m.Outlet()
	dist[outlet] = 0
	queue := []flow.Cell{outlet}
	for head := 0; head < len(queue); head++ {
		c := queue[head]
		d := dist[c] + cellM
		g.Upstream(c, func(n flow.Cell) {
			if !m.Contains(n) {
				return
			}
			if _, seen := dist[n]; seen {
				return
			}
			dist[n] = d
			queue = append(queue, n)
		})
	}

	for _, d := range dist {
		lengthM = math.Max(lengthM, d)
	}
	if lengthM <= 0 {
		return 0, MinSlope
	}

	outletZ := r.At(outlet.Row, outlet.Col)
	maxZ := math.Inf(-1)
	for _, c := range m.Cells() {
		if z := r.At(c.Row, c.Col); !math.IsNaN(z) && z > maxZ {
			maxZ = z
		}
	}
	if math.IsNaN(outletZ) || math.IsInf(maxZ, -1) {
		return 0, MinSlope
	}
	return lengthM, math.Max((maxZ-outletZ)/lengthM, MinSlope)
}

// Kirpich returns the time of concentration in minutes for a flow path of
// lengthM meters at the given slope, or 0 when either is not positive.
func Kirpich(lengthM, slope float64) float64 {
	if lengthM <= 0 || slope <= 0 {
		return 0
	}
	return kirpichCoeff * math.Pow(lengthM, kirpichLenExp) * math.Pow(slope, kirpichSlopeExp)
}
