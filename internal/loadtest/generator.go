package loadtest

import (
	"math/rand/v2"

	"github.com/paulmach/orb"
)

const defaultTileDeg = 0.004

// generateTiles draws n square tiles inside area. The same seed always
// yields the same tiles.
func generateTiles(cfg *Config) []orb.Bound {
	side := cfg.TileDeg
	if side <= 0 {
		side = defaultTileDeg
	}
	w := max(cfg.Area.Max[0]-cfg.Area.Min[0]-side, 0)
	h := max(cfg.Area.Max[1]-cfg.Area.Min[1]-side, 0)

	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Jobs)))
	tiles := make([]orb.Bound, cfg.Jobs)
	for i := range tiles {
		minx := cfg.Area.Min[0] + rng.Float64()*w
		miny := cfg.Area.Min[1] + rng.Float64()*h
		tiles[i] = orb.Bound{
			Min: orb.Point{minx, miny},
			Max: orb.Point{minx + side, miny + side},
		}
	}
	return tiles
}
