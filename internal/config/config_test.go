package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/watershed/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DEMNodata, convey.ShouldEqual, -9999)
			convey.So(cfg.SyntheticFallback, convey.ShouldBeTrue)
			convey.So(cfg.ContourIntervalM, convey.ShouldEqual, 10)
			convey.So(cfg.GridSpacingM, convey.ShouldEqual, 200)
			convey.So(cfg.GridMaxPoints, convey.ShouldEqual, 10000)
			convey.So(cfg.ContourRadiusM, convey.ShouldEqual, 500)
			convey.So(cfg.GridParallelism, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.JobStore, convey.ShouldEqual, config.JobStoreMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(c *config.Config){
			"empty addr":           func(c *config.Config) { c.Addr = "" },
			"zero interval":        func(c *config.Config) { c.ContourIntervalM = 0 },
			"negative radius":      func(c *config.Config) { c.WatershedRadiusM = -1 },
			"inverted bounds":      func(c *config.Config) { c.GridMinSpacingM = 2000 },
			"spacing out of range": func(c *config.Config) { c.GridSpacingM = 10 },
			"no parallelism":       func(c *config.Config) { c.GridParallelism = 0 },
			"no grid points":       func(c *config.Config) { c.GridMaxPoints = 0 },
			"zero contour radius":  func(c *config.Config) { c.ContourRadiusM = 0 },
			"no workers":           func(c *config.Config) { c.WorkerCount = 0 },
			"unknown store":        func(c *config.Config) { c.JobStore = "redis" },
			"sqlite without path": func(c *config.Config) {
				c.JobStore = config.JobStoreSQLite
				c.SQLitePath = ""
			},
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
		}

		for name, mutate := range cases {
			c := *cfg
			mutate(&c)
			convey.Convey("When the config has "+name, func() {
				err := c.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
