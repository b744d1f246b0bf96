package floodzone

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// LoadShapefile reads polygon records and their DBF attributes.
func LoadShapefile(path string) (*Store, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flood zones: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(string(f.Name[:]), "\x00 ")
	}

	var zones []Zone
	for shape.Next() {
		n, p := shape.Shape()
		poly, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.TrimRight(shape.ReadAttribute(n, i), "\x00 ")
		}
		zones = append(zones, Zone{Code: codeOf(attrs), Shape: polygons(poly), Extra: attrs})
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("read flood zones %s: %w", path, err)
	}
	return New(zones...), nil
}

// polygons splits a shapefile polygon into outer rings and holes. Outer
// rings wind clockwise; each counter-clockwise ring is a hole of the outer
// ring before it.
func polygons(p *shp.Polygon) orb.MultiPolygon {
	var out orb.MultiPolygon
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CCW && len(out) > 0 {
			last := len(out) - 1
			out[last] = append(out[last], ring)
			continue
		}
		out = append(out, orb.Polygon{ring})
	}
	return out
}
