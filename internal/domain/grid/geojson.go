package grid

import (
	"math"

	"github.com/okian/watershed/internal/domain/colormap"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Rect returns the rectangle of one lattice cell centred on c.
func (h Heatmap) Rect(c orb.Point) orb.Polygon {
	return orb.Polygon{orb.Bound{
		Min: orb.Point{c[0] - h.LonStep/2, c[1] - h.LatStep/2},
		Max: orb.Point{c[0] + h.LonStep/2, c[1] + h.LatStep/2},
	}.ToRing()}
}

// FeatureCollection renders the heatmap as cell rectangles with the run
// summary as top-level properties.
func (h Heatmap) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range h.Cells {
		f := geojson.NewFeature(h.Rect(c.Center))
		f.Properties["area_ha"] = round(c.AreaHa, 2)
		f.Properties["tc_min"] = round(c.TcMin, 2)
		f.Properties["jet_value_area"] = round(c.JetArea, 4)
		f.Properties["jet_value_tc"] = round(c.JetTc, 4)
		f.Properties["color_area"] = colormap.Hex(c.JetArea)
		f.Properties["color_tc"] = colormap.Hex(c.JetTc)
		fc.Append(f)
	}

	props := geojson.Properties{}
	if h.Diagnostic != "" {
		props["error"] = h.Diagnostic
	} else {
		props["grid_spacing_m"] = h.SpacingM
		props["point_count"] = len(h.Cells)
		props["min_area_ha"] = round(h.MinAreaHa, 2)
		props["max_area_ha"] = round(h.MaxAreaHa, 2)
		props["min_tc_min"] = round(h.MinTcMin, 2)
		props["max_tc_min"] = round(h.MaxTcMin, 2)
		props["dem_cell_size_m"] = round(h.CellSizeM, 2)
		props["terrain_source"] = h.Source
	}
	fc.ExtraMembers = geojson.Properties{"metadata": props}
	return fc
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
