package floodzone_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/okian/watershed/internal/adapters/floodzone"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

const zonesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"FLD_ZONE": "AE", "DFIRM_ID": "08013C"},
     "geometry": {"type": "Polygon", "coordinates": [[[-105,40],[-104.9,40],[-104.9,40.1],[-105,40.1],[-105,40]]]}},
    {"type": "Feature", "properties": {"ZONE": "X"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-104.8,40],[-104.7,40],[-104.7,40.1],[-104.8,40.1],[-104.8,40]]]]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[-104.6,40],[-104.5,40],[-104.5,40.1],[-104.6,40.1],[-104.6,40]]]}}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestGeoJSON(t *testing.T) {
	ctx := context.Background()

	Convey("Given zones loaded from GeoJSON", t, func() {
		s, err := floodzone.Open(writeFile(t, "zones.geojson", zonesJSON))
		So(err, ShouldBeNil)
		So(s.Len(), ShouldEqual, 3)

		Convey("Points should resolve to the containing zone", func() {
			code, ok, err := s.ZoneAt(ctx, orb.Point{-104.95, 40.05})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "AE")

			code, ok, _ = s.ZoneAt(ctx, orb.Point{-104.75, 40.05})
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "X")

			code, _, _ = s.ZoneAt(ctx, orb.Point{-104.55, 40.05})
			So(code, ShouldEqual, floodzone.DefaultCode)
		})

		Convey("Points outside every zone should not resolve", func() {
			_, ok, err := s.ZoneAt(ctx, orb.Point{-104.85, 40.05})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Box queries should return touching zones with descriptions", func() {
			fc := s.InBound(orb.Bound{Min: orb.Point{-105.1, 39.9}, Max: orb.Point{-104.75, 40.2}})
			So(len(fc.Features), ShouldEqual, 2)
			So(fc.Features[0].Properties["FLD_ZONE"], ShouldEqual, "AE")
			So(fc.Features[0].Properties["description"], ShouldEqual, "100-year flood zone with BFE")
			So(fc.Features[0].Properties["DFIRM_ID"], ShouldEqual, "08013C")
			_, isPoly := fc.Features[0].Geometry.(orb.Polygon)
			So(isPoly, ShouldBeTrue)
		})
	})

	Convey("Non-polygon features should be rejected", t, func() {
		body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
		_, err := floodzone.LoadGeoJSON(writeFile(t, "points.json", body))
		So(errors.Is(err, floodzone.ErrGeometry), ShouldBeTrue)
	})

	Convey("Unknown extensions should be rejected", t, func() {
		_, err := floodzone.Open("zones.kml")
		So(errors.Is(err, floodzone.ErrFormat), ShouldBeTrue)
	})
}

func TestShapefile(t *testing.T) {
	Convey("Given a shapefile with one zone A polygon", t, func() {
		base := filepath.Join(t.TempDir(), "zones")
		path := base + ".shp"
		w, err := shp.Create(path, shp.POLYGON)
		So(err, ShouldBeNil)
		So(w.SetFields([]shp.Field{shp.StringField("FLD_ZONE", 8)}), ShouldBeNil)
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
		}}))
		w.Write(&poly)
		So(w.WriteAttribute(0, 0, "A"), ShouldBeNil)
		w.Close()
		// the v0.1.1 writer names the attribute table without its dot
		So(os.Rename(base+"dbf", base+".dbf"), ShouldBeNil)

		s, err := floodzone.Open(path)
		So(err, ShouldBeNil)

		Convey("The zone code should come from the attribute table", func() {
			code, ok, err := s.ZoneAt(context.Background(), orb.Point{0.5, 0.5})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "A")
		})

		Convey("Points outside should not resolve", func() {
			_, ok, _ := s.ZoneAt(context.Background(), orb.Point{2, 2})
			So(ok, ShouldBeFalse)
		})
	})

	Convey("A missing shapefile should fail", t, func() {
		_, err := floodzone.LoadShapefile(filepath.Join(t.TempDir(), "none.shp"))
		So(err, ShouldNotBeNil)
	})
}
