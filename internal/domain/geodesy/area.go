package geodesy

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/geodesic"
)

const squareMetersPerHectare = 10000.0

// AreaHectares returns the WGS84 ellipsoidal area enclosed by ring in
// hectares. Rings with fewer than 3 distinct points, non-finite
// coordinates or self-intersections yield 0.
func AreaHectares(ring orb.Ring) float64 {
	pts := openRing(ring)
	if distinct(pts) < 3 || !finite(pts) || selfIntersects(pts) {
		return 0
	}

	p := geodesic.WGS84.PolygonInit(false)
	for _, pt := range pts {
		p.AddPoint(pt[1], pt[0])
	}
	var area, perimeter float64
	p.Compute(false, true, &area, &perimeter)

	area = math.Abs(area)
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return 0
	}
	return area / squareMetersPerHectare
}

// openRing drops the closing point of a closed ring.
func openRing(ring orb.Ring) []orb.Point {
	if len(ring) > 1 && ring[0].Equal(ring[len(ring)-1]) {
		return ring[:len(ring)-1]
	}
	return ring
}

func distinct(pts []orb.Point) int {
	seen := make(map[orb.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func finite(pts []orb.Point) bool {
	for _, p := range pts {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// selfIntersects reports whether any two non-adjacent edges of the open
// ring cross or touch.
func selfIntersects(pts []orb.Point) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := pts[j], pts[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func orient(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
