package loadtest

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/watershed/internal/adapters/dem"
	"github.com/okian/watershed/internal/adapters/http/api"
	app "github.com/okian/watershed/internal/app"
	"github.com/okian/watershed/internal/client"
	"github.com/okian/watershed/internal/config"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/okian/watershed/pkg/logger"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var area = orb.Bound{Min: orb.Point{-105.008, 39.992}, Max: orb.Point{-104.992, 40.008}}

// bowl drains every cell to its centre so each tile keeps all its points.
func bowl() *raster.Raster {
	const n = 40
	tf := raster.Transform{CellWidth: 0.0005, CellHeight: 0.0005, OriginLon: -105.01, OriginLat: 40.01}
	vals := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			vals[r*n+c] = 100 + 2*math.Hypot(float64(r-20), float64(c-20))
		}
	}
	out, err := raster.NewFlat(n, n, vals, tf, raster.DefaultNodata)
	if err != nil {
		panic(err)
	}
	return out
}

func TestGenerateTiles(t *testing.T) {
	Convey("Given a tile generator", t, func() {
		cfg := &Config{Jobs: 20, Area: area, TileDeg: 0.005, Seed: 7}
		tiles := generateTiles(cfg)

		Convey("It yields one tile per job inside the area", func() {
			So(len(tiles), ShouldEqual, 20)
			for _, b := range tiles {
				So(b.Min[0], ShouldBeGreaterThanOrEqualTo, area.Min[0])
				So(b.Max[0], ShouldBeLessThanOrEqualTo, area.Max[0]+1e-12)
				So(b.Max[1]-b.Min[1], ShouldAlmostEqual, 0.005, 1e-12)
			}
		})

		Convey("It is deterministic per seed", func() {
			So(generateTiles(cfg), ShouldResemble, tiles)
			cfg.Seed = 8
			So(generateTiles(cfg), ShouldNotResemble, tiles)
		})
	})
}

func TestVerifyResult(t *testing.T) {
	Convey("Given heatmap payloads", t, func() {
		Convey("a consistent heatmap passes", func() {
			n, err := verifyResult([]byte(`{"type":"FeatureCollection","features":[
				{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}],
				"metadata":{"point_count":1}}`))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("a count mismatch fails", func() {
			_, err := verifyResult([]byte(`{"type":"FeatureCollection","features":[],"metadata":{"point_count":3}}`))
			So(err, ShouldNotBeNil)
		})

		Convey("missing metadata fails", func() {
			_, err := verifyResult([]byte(`{"type":"FeatureCollection","features":[]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("an empty diagnostic heatmap passes with no cells", func() {
			n, err := verifyResult([]byte(`{"type":"FeatureCollection","features":[],"metadata":{"error":"no terrain"}}`))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestRunAgainstServer(t *testing.T) {
	Convey("Given a live server over a bowl DEM", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		cfg := config.New(ctx)
		cfg.WorkerCount = 2
		cfg.GridParallelism = 2
		svc := app.New(app.WithConfig(cfg), app.WithDEMSources(dem.NewFileSource(bowl())))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c, err := client.New(srv.URL, client.WithPollInterval(10*time.Millisecond))
		So(err, ShouldBeNil)

		report := filepath.Join(t.TempDir(), "report.json")
		stats, err := Run(ctx, &Config{
			BaseURL:    srv.URL,
			Jobs:       4,
			Workers:    2,
			Area:       area,
			TileDeg:    0.004,
			Seed:       1,
			OutputFile: report,
		}, c)

		So(err, ShouldBeNil)
		So(stats.JobsGenerated, ShouldEqual, 4)
		So(stats.JobsAccepted+stats.JobsRejected, ShouldEqual, 4)
		So(stats.JobsSucceeded, ShouldEqual, stats.JobsAccepted)
		So(stats.Cells, ShouldBeGreaterThan, 0)

		data, err := os.ReadFile(report)
		So(err, ShouldBeNil)
		var saved Stats
		So(json.Unmarshal(data, &saved), ShouldBeNil)
		So(saved.JobsSucceeded, ShouldEqual, stats.JobsSucceeded)
	})
}
