// Package rivers holds stream centerlines used to draw the river layer and
// to decide whether a flow path ends on a stream.
package rivers

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// ErrGeometry is returned for features that are not lines.
var ErrGeometry = errors.New("river feature is not a line")

type river struct {
	line  orb.MultiLineString
	bound orb.Bound
	props geojson.Properties
}

// Store keeps river lines in memory.
type Store struct {
	rivers []river
}

// New returns a store over lines with no properties.
func New(lines ...orb.MultiLineString) *Store {
	s := &Store{rivers: make([]river, 0, len(lines))}
	for _, mls := range lines {
		if len(mls) == 0 {
			continue
		}
		s.rivers = append(s.rivers, river{line: mls, bound: mls.Bound(), props: geojson.Properties{}})
	}
	return s
}

// Load reads a GeoJSON FeatureCollection of LineString or MultiLineString
// features.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rivers: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode rivers %s: %w", path, err)
	}
	s := &Store{rivers: make([]river, 0, len(fc.Features))}
	for i, f := range fc.Features {
		var mls orb.MultiLineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			mls = orb.MultiLineString{g}
		case orb.MultiLineString:
			mls = g
		default:
			return nil, fmt.Errorf("feature %d: %w", i, ErrGeometry)
		}
		if len(mls) == 0 {
			continue
		}
		s.rivers = append(s.rivers, river{line: mls, bound: mls.Bound(), props: f.Properties})
	}
	return s, nil
}

// Len returns the number of river features.
func (s *Store) Len() int { return len(s.rivers) }

// InBound returns the rivers whose extent touches b.
func (s *Store) InBound(b orb.Bound) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range s.rivers {
		if !r.bound.Intersects(b) {
			continue
		}
		var g orb.Geometry = r.line
		if len(r.line) == 1 {
			g = r.line[0]
		}
		f := geojson.NewFeature(orb.Clone(g))
		for k, v := range r.props {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return fc
}

// Near reports whether any river passes within tolM meters of p.
func (s *Store) Near(p orb.Point, tolM float64) bool {
	return s.Distance(p) <= tolM
}

// Distance returns the ground distance in meters from p to the closest
// river, or +Inf when there are none. Lines are measured in a local
// equirectangular frame around p.
func (s *Store) Distance(p orb.Point) float64 {
	mLon := geodesy.MetersPerDegreeLon(p[1])
	local := func(q orb.Point) orb.Point {
		return orb.Point{(q[0] - p[0]) * mLon, (q[1] - p[1]) * geodesy.MetersPerDegreeLat}
	}
	best := math.Inf(1)
	for _, r := range s.rivers {
		// the box lower bound skips lines that cannot beat the best so far
		if boxDistance(local, r.bound) > best {
			continue
		}
		g := project.MultiLineString(orb.Clone(r.line).(orb.MultiLineString), local)
		if d := planar.DistanceFrom(g, orb.Point{}); d < best {
			best = d
		}
	}
	return best
}

func boxDistance(local orb.Projection, b orb.Bound) float64 {
	lo, hi := local(b.Min), local(b.Max)
	dx := math.Max(0, math.Max(lo[0], -hi[0]))
	dy := math.Max(0, math.Max(lo[1], -hi[1]))
	return math.Hypot(dx, dy)
}
