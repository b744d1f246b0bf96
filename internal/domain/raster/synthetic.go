package raster

import (
	"math"
	"math/rand/v2"

	"github.com/okian/watershed/internal/domain/geodesy"
)

// Synthetic terrain shape.
const (
	SyntheticSize   = 50
	syntheticPeak   = 200.0
	syntheticRelief = 50.0
	syntheticJitter = 5.0
)

// Synthetic returns a deterministic size x size dome of half-side radiusM
// centred on (lon, lat): elevation falls from the peak by syntheticRelief
// per radius with up to syntheticJitter meters of seeded noise. It stands
// in for real terrain when no elevation source covers a query.
func Synthetic(lon, lat, radiusM float64, size int, seed uint64) *Raster {
	if size < 3 {
		size = SyntheticSize
	}
	rng := rand.New(rand.NewPCG(seed, uint64(size)))

	mLon := geodesy.MetersPerDegreeLon(lat)
	tf := Transform{
		CellWidth:  2 * radiusM / float64(size) / mLon,
		CellHeight: 2 * radiusM / float64(size) / geodesy.MetersPerDegreeLat,
		OriginLon:  lon - radiusM/mLon,
		OriginLat:  lat + radiusM/geodesy.MetersPerDegreeLat,
	}

	c := float64(size / 2)
	data := make([]float64, size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			dist := math.Hypot(float64(i)-c, float64(j)-c) / c
			data[i*size+j] = syntheticPeak - dist*syntheticRelief + rng.Float64()*syntheticJitter
		}
	}
	return &Raster{rows: size, cols: size, data: data, tf: tf, nodata: DefaultNodata}
}

// SeedFor derives a stable seed from a query position so repeated requests
// for the same point see the same synthetic terrain.
func SeedFor(lon, lat float64) uint64 {
	return math.Float64bits(lon)*31 ^ math.Float64bits(lat)
}
