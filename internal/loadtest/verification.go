package loadtest

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// verifyResult checks a succeeded job payload and returns its cell count.
// A heatmap must carry metadata whose point_count matches its features.
func verifyResult(raw []byte) (int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return 0, fmt.Errorf("decode heatmap: %w", err)
	}
	meta, ok := fc.ExtraMembers["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("heatmap has no metadata")
	}
	if diag, ok := meta["error"].(string); ok {
		if len(fc.Features) != 0 {
			return 0, fmt.Errorf("diagnostic %q with %d cells", diag, len(fc.Features))
		}
		return 0, nil
	}
	count, ok := meta["point_count"].(float64)
	if !ok {
		return 0, fmt.Errorf("heatmap metadata has no point_count")
	}
	if int(count) != len(fc.Features) {
		return 0, fmt.Errorf("point_count %d but %d cells", int(count), len(fc.Features))
	}
	return len(fc.Features), nil
}
