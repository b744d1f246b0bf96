// Package geodesy holds the earth-measurement helpers shared by the
// hydrology analyses: degree/meter conversions, haversine distances and
// WGS84 ellipsoidal polygon area.
package geodesy

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/umahmood/haversine"
)

// MetersPerDegreeLat is the approximate length of one degree of latitude.
const MetersPerDegreeLat = 111320.0

// MetersPerDegreeLon returns the length of one degree of longitude at lat.
func MetersPerDegreeLon(lat float64) float64 {
	return MetersPerDegreeLat * math.Cos(lat*math.Pi/180)
}

// BoundAround returns the square of half-side radiusM centred on (lon, lat).
func BoundAround(lon, lat, radiusM float64) orb.Bound {
	dlat := radiusM / MetersPerDegreeLat
	dlon := radiusM / MetersPerDegreeLon(lat)
	return orb.Bound{
		Min: orb.Point{lon - dlon, lat - dlat},
		Max: orb.Point{lon + dlon, lat + dlat},
	}
}

// CoverRadius returns the radius in meters of a square around the bound's
// center that covers the whole bound, widened by margin (1.2 = 20%).
func CoverRadius(b orb.Bound, margin float64) float64 {
	c := b.Center()
	halfW := (b.Max[0] - b.Min[0]) * MetersPerDegreeLon(c[1]) / 2
	halfH := (b.Max[1] - b.Min[1]) * MetersPerDegreeLat / 2
	return math.Hypot(halfW, halfH) * margin
}

// CellSize returns the diagonal ground size in meters of a cell of the given
// angular width and height at latitude lat.
func CellSize(cellWidthDeg, cellHeightDeg, lat float64) float64 {
	return math.Hypot(cellWidthDeg*MetersPerDegreeLon(lat), cellHeightDeg*MetersPerDegreeLat)
}

// Distance returns the great-circle distance in meters between two lon/lat points.
func Distance(a, b orb.Point) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a[1], Lon: a[0]},
		haversine.Coord{Lat: b[1], Lon: b[0]},
	)
	return km * 1000
}

// Length sums the great-circle length of a line in meters.
func Length(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}
