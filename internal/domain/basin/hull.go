package basin

import (
	"math"
	"slices"

	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
)

// Boundary returns the basin outline as a closed ring: the convex hull of
// the member cell centers. The hull overstates the area of concave basins.
// ok is false when the hull has fewer than 3 vertices.
func Boundary(r *raster.Raster, m *Mask) (orb.Ring, bool) {
	if m.Size() < MinCells {
		return nil, false
	}
	hull := ConvexHull(centers(r, m.Cells()))
	if len(hull) < 3 {
		return nil, false
	}
	ring := make(orb.Ring, 0, len(hull)+1)
	ring = append(ring, hull...)
	ring = append(ring, hull[0])
	return ring, true
}

// ConvexHull returns the counter-clockwise hull of pts without a closing
// point, using a Graham scan pivoting on the lowest (lat, lon) point.
// Collinear points are dropped.
func ConvexHull(pts []orb.Point) []orb.Point {
	uniq := dedupe(pts)
	if len(uniq) <= 2 {
		return uniq
	}

	pivot := uniq[0]
	for _, p := range uniq[1:] {
		if p[1] < pivot[1] || (p[1] == pivot[1] && p[0] < pivot[0]) {
			pivot = p
		}
	}

	slices.SortStableFunc(uniq, func(a, b orb.Point) int {
		switch {
		case a == b:
			return 0
		case a == pivot:
			return -1
		case b == pivot:
			return 1
		}
		aa, ba := polar(pivot, a), polar(pivot, b)
		if aa != ba {
			if aa < ba {
				return -1
			}
			return 1
		}
		ad, bd := dist2(pivot, a), dist2(pivot, b)
		switch {
		case ad < bd:
			return -1
		case ad > bd:
			return 1
		}
		return 0
	})

	hull := []orb.Point{uniq[0], uniq[1]}
	for _, p := range uniq[2:] {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

func dedupe(pts []orb.Point) []orb.Point {
	seen := make(map[orb.Point]struct{}, len(pts))
	out := make([]orb.Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func polar(o, p orb.Point) float64 { return math.Atan2(p[1]-o[1], p[0]-o[0]) }

func dist2(o, p orb.Point) float64 {
	dx, dy := p[0]-o[0], p[1]-o[1]
	return dx*dx + dy*dy
}

func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func centers(r *raster.Raster, cells []flow.Cell) []orb.Point {
	out := make([]orb.Point, len(cells))
	for i, c := range cells {
		out[i] = r.CellCenter(c.Row, c.Col)
	}
	return out
}
