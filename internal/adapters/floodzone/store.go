// Package floodzone loads flood hazard polygons and answers point and box
// queries against them.
package floodzone

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/watershed/internal/domain/placement"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Attribute names carrying the zone code, in lookup order.
var codeFields = []string{"FLD_ZONE", "ZONE"}

// DefaultCode is assumed for polygons without a zone attribute.
const DefaultCode = "X"

// Zone is one mapped flood hazard area.
type Zone struct {
	Code  string
	Shape orb.MultiPolygon
	bound orb.Bound
	Extra map[string]string
}

// Store holds zones in memory. It is immutable once loaded.
type Store struct {
	zones []Zone
}

// New builds a store from zones.
func New(zones ...Zone) *Store {
	s := &Store{zones: make([]Zone, 0, len(zones))}
	for _, z := range zones {
		if len(z.Shape) == 0 {
			continue
		}
		if z.Code == "" {
			z.Code = DefaultCode
		}
		z.bound = z.Shape.Bound()
		s.zones = append(s.zones, z)
	}
	return s
}

// Open loads a shapefile (.shp) or GeoJSON (.geojson, .json) file.
func Open(path string) (*Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return LoadShapefile(path)
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// LoadGeoJSON reads a FeatureCollection of Polygon or MultiPolygon features.
func LoadGeoJSON(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flood zones: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode flood zones %s: %w", path, err)
	}
	zones := make([]Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return nil, fmt.Errorf("feature %d: %w", i, ErrGeometry)
		}
		extra := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			extra[k] = fmt.Sprint(v)
		}
		zones = append(zones, Zone{Code: codeOf(extra), Shape: mp, Extra: extra})
	}
	return New(zones...), nil
}

func codeOf(attrs map[string]string) string {
	for _, f := range codeFields {
		if v := strings.TrimSpace(attrs[f]); v != "" {
			return v
		}
	}
	return DefaultCode
}

// Len returns the number of zones.
func (s *Store) Len() int { return len(s.zones) }

// ZoneAt returns the code of the first zone containing p.
func (s *Store) ZoneAt(ctx context.Context, p orb.Point) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	for i := range s.zones {
		z := &s.zones[i]
		if z.bound.Contains(p) && planar.MultiPolygonContains(z.Shape, p) {
			return z.Code, true, nil
		}
	}
	return "", false, nil
}

// InBound returns the zones whose extent touches b as GeoJSON features.
func (s *Store) InBound(b orb.Bound) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range s.zones {
		z := &s.zones[i]
		if !z.bound.Intersects(b) {
			continue
		}
		var g orb.Geometry = z.Shape
		if len(z.Shape) == 1 {
			g = z.Shape[0]
		}
		f := geojson.NewFeature(g)
		for k, v := range z.Extra {
			f.Properties[k] = v
		}
		f.Properties["FLD_ZONE"] = z.Code
		f.Properties["description"] = placement.Describe(z.Code).Description
		fc.Append(f)
	}
	return fc
}
