package contour

import (
	"github.com/okian/watershed/internal/domain/colormap"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders lines as LineString features carrying
// elevation, jet_value and a jet colour.
func FeatureCollection(lines []Line) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range lines {
		f := geojson.NewFeature(l.Path)
		f.Properties["elevation"] = l.Level
		f.Properties["jet_value"] = l.Jet
		f.Properties["color"] = colormap.Hex(l.Jet)
		fc.Append(f)
	}
	return fc
}
