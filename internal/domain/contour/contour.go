// Package contour extracts iso-elevation lines from a raster with marching
// squares and tags each line with a normalized jet value.
package contour

import (
	"math"

	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
)

// MinVertices is the shortest traced line kept.
const MinVertices = 3

// Line is one contour polyline.
type Line struct {
	Level float64
	// Jet is (Level-Min)/(Max-Min) rounded to 4 decimals, 0 for a flat range.
	Jet  float64
	Path orb.LineString
}

// Set is the result of one extraction.
type Set struct {
	Lines    []Line
	Min, Max float64
	Interval float64
}

// Levels returns the multiples of interval that fall inside [lo, hi].
func Levels(lo, hi, interval float64) []float64 {
	if interval <= 0 || math.IsNaN(lo) || math.IsNaN(hi) || hi < lo {
		return nil
	}
	first := math.Floor(lo / interval)
	last := math.Floor(hi/interval) + 1

	var out []float64
	for k := first; k <= last; k++ {
		level := k * interval
		if level < lo || level > hi {
			continue
		}
		out = append(out, level)
	}
	return out
}

// Jet normalizes level into [0, 1] over [lo, hi].
func Jet(level, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	v := (level - lo) / (hi - lo)
	return math.Round(math.Min(math.Max(v, 0), 1)*1e4) / 1e4
}

// Extract traces every level of the raster's valid range. Lines shorter
// than MinVertices are dropped.
func Extract(r *raster.Raster, interval float64) (Set, error) {
	if interval <= 0 {
		return Set{}, ErrInterval
	}
	lo, hi, ok := r.Range()
	if !ok {
		return Set{}, ErrNoData
	}

	set := Set{Min: lo, Max: hi, Interval: interval}
	for _, level := range Levels(lo, hi, interval) {
		jet := Jet(level, lo, hi)
		for _, path := range Trace(r, level) {
			if len(path) < MinVertices {
				continue
			}
			set.Lines = append(set.Lines, Line{Level: level, Jet: jet, Path: path})
		}
	}
	return set, nil
}

// Clip keeps the vertices of each line that fall inside b and drops lines
// left with fewer than two.
func Clip(lines []Line, b orb.Bound) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		kept := make(orb.LineString, 0, len(l.Path))
		for _, p := range l.Path {
			if b.Contains(p) {
				kept = append(kept, p)
			}
		}
		if len(kept) < 2 {
			continue
		}
		out = append(out, Line{Level: l.Level, Jet: l.Jet, Path: kept})
	}
	return out
}
