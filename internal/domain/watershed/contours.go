package watershed

import (
	"errors"

	"github.com/okian/watershed/internal/domain/contour"
	"github.com/okian/watershed/internal/domain/flow"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Contours holds the iso-lines of one basin. Diagnostic is set instead of
// Lines when the basin could not be contoured.
type Contours struct {
	Lines      []contour.Line
	Min, Max   float64
	Interval   float64
	Outlet     orb.Point
	Diagnostic string
}

// Contours extracts lines at interval from the raster masked to the basin
// draining through p. Jet values span the basin's own elevation range.
func (a *Analysis) Contours(p orb.Point, interval float64) Contours {
	m := a.Basin(p)
	if m.Degenerate() {
		return Contours{Interval: interval, Diagnostic: DiagNoWatershed}
	}
	out := m.Outlet()
	outlet := a.r.CellCenter(out.Row, out.Col)

	masked := a.r.Keep(func(row, col int) bool {
		return m.Contains(flow.Cell{Row: row, Col: col})
	})
	set, err := contour.Extract(masked, interval)
	switch {
	case errors.Is(err, contour.ErrNoData):
		return Contours{Interval: interval, Outlet: outlet, Diagnostic: DiagNoElevations}
	case err != nil:
		return Contours{Interval: interval, Outlet: outlet, Diagnostic: err.Error()}
	}
	return Contours{
		Lines:    set.Lines,
		Min:      set.Min,
		Max:      set.Max,
		Interval: interval,
		Outlet:   outlet,
	}
}

// FeatureCollection renders the lines with the basin summary as metadata.
func (c Contours) FeatureCollection() *geojson.FeatureCollection {
	fc := contour.FeatureCollection(c.Lines)
	props := geojson.Properties{}
	if c.Diagnostic != "" {
		props["error"] = c.Diagnostic
	} else {
		props["min_elevation"] = round(c.Min, 2)
		props["max_elevation"] = round(c.Max, 2)
		props["interval_m"] = c.Interval
		props["contour_count"] = len(c.Lines)
		props["outlet_lat"] = c.Outlet[1]
		props["outlet_lon"] = c.Outlet[0]
	}
	fc.ExtraMembers = geojson.Properties{"properties": props}
	return fc
}
