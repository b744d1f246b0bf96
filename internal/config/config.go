// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and WATERSHED_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
)

// Job store backends.
const (
	JobStoreMemory = "memory"
	JobStoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DEMPath points at an ESRI ASCII grid. Empty means no file source.
	DEMPath string `koanf:"dem_path"`

	// DEMNodata overrides the grid's NODATA_value when the header lacks one.
	DEMNodata float64 `koanf:"dem_nodata"`

	// SyntheticFallback serves a synthetic bowl when no real DEM covers a window.
	SyntheticFallback bool `koanf:"synthetic_fallback"`

	// FloodZonesPath is a .shp or .geojson file of flood hazard polygons.
	FloodZonesPath string `koanf:"flood_zones_path"`

	// RiversPath is a GeoJSON file of river lines.
	RiversPath string `koanf:"rivers_path"`

	// StreamToleranceM is how close a flow path must end to a river to reach it.
	StreamToleranceM float64 `koanf:"stream_tolerance_m"`

	WatershedRadiusM float64 `koanf:"watershed_radius_m"`
	FlowRadiusM      float64 `koanf:"flow_radius_m"`
	ContourIntervalM float64 `koanf:"contour_interval_m"`
	ContourRadiusM   float64 `koanf:"contour_radius_m"`

	// Grid sampler lattice spacing and its accepted bounds.
	GridSpacingM    float64 `koanf:"grid_spacing_m"`
	GridMinSpacingM float64 `koanf:"grid_min_spacing_m"`
	GridMaxSpacingM float64 `koanf:"grid_max_spacing_m"`

	// GridMaxPoints caps the lattice of one grid request.
	GridMaxPoints int `koanf:"grid_max_points"`

	// GridParallelism bounds concurrent lattice points per grid run.
	GridParallelism int `koanf:"grid_parallelism"`

	// WorkerCount sets the number of grid job workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory grid job queue.
	QueueSize int `koanf:"queue_size"`

	// JobStore selects memory or sqlite; SQLitePath is used by the latter.
	JobStore   string `koanf:"job_store"`
	SQLitePath string `koanf:"sqlite_path"`

	PlacementRadiusM     float64 `koanf:"placement_radius_m"`
	PlacementSuggestions int     `koanf:"placement_suggestions"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DEMNodata:            -9999,
		SyntheticFallback:    true,
		StreamToleranceM:     30,
		WatershedRadiusM:     5000,
		FlowRadiusM:          2000,
		ContourIntervalM:     10,
		ContourRadiusM:       500,
		GridSpacingM:         200,
		GridMinSpacingM:      50,
		GridMaxSpacingM:      1000,
		GridMaxPoints:        10000,
		GridParallelism:      runtime.NumCPU(),
		WorkerCount:          2,
		QueueSize:            64,
		JobStore:             JobStoreMemory,
		SQLitePath:           "watershed-jobs.db",
		PlacementRadiusM:     500,
		PlacementSuggestions: 5,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ContourIntervalM <= 0:
		return fmt.Errorf("%w: contour_interval_m must be positive", ErrInvalidConfig)
	case c.WatershedRadiusM <= 0 || c.FlowRadiusM <= 0 || c.PlacementRadiusM <= 0 || c.ContourRadiusM <= 0:
		return fmt.Errorf("%w: radii must be positive", ErrInvalidConfig)
	case c.GridMinSpacingM <= 0 || c.GridMinSpacingM > c.GridMaxSpacingM:
		return fmt.Errorf("%w: grid spacing bounds [%g, %g]", ErrInvalidConfig, c.GridMinSpacingM, c.GridMaxSpacingM)
	case c.GridSpacingM < c.GridMinSpacingM || c.GridSpacingM > c.GridMaxSpacingM:
		return fmt.Errorf("%w: grid_spacing_m %g outside bounds", ErrInvalidConfig, c.GridSpacingM)
	case c.GridMaxPoints < 1:
		return fmt.Errorf("%w: grid_max_points must be positive", ErrInvalidConfig)
	case c.GridParallelism < 1:
		return fmt.Errorf("%w: grid_parallelism must be at least 1", ErrInvalidConfig)
	case c.WorkerCount < 1 || c.QueueSize < 1:
		return fmt.Errorf("%w: worker_count and queue_size must be positive", ErrInvalidConfig)
	case c.StreamToleranceM < 0:
		return fmt.Errorf("%w: stream_tolerance_m must not be negative", ErrInvalidConfig)
	case c.PlacementSuggestions < 1:
		return fmt.Errorf("%w: placement_suggestions must be positive", ErrInvalidConfig)
	}
	switch c.JobStore {
	case JobStoreMemory:
	case JobStoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path required for sqlite job store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown job_store %q", ErrInvalidConfig, c.JobStore)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
