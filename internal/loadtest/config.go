// Package loadtest drives a running watershed server with concurrent grid
// jobs and checks every finished heatmap.
package loadtest

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
)

// ErrNoJobs is returned when nothing was accepted by the server.
var ErrNoJobs = errors.New("no grid jobs were accepted")

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string    // Base URL of the service
	Jobs       int       // Number of grid jobs to submit
	Workers    int       // Number of concurrent submitters and pollers
	Area       orb.Bound // Box the job tiles are drawn from
	TileDeg    float64   // Side of each job tile in degrees
	SpacingM   float64   // Grid spacing per job, 0 for the server default
	Seed       uint64    // Tile generator seed
	OutputFile string    // Optional JSON report path
	Verbose    bool      // Log every job
}

// Stats holds run statistics.
type Stats struct {
	JobsGenerated int     `json:"jobs_generated"`
	JobsAccepted  int     `json:"jobs_accepted"`
	JobsRejected  int     `json:"jobs_rejected"`
	SubmitErrors  int     `json:"submit_errors"`
	JobsSucceeded int     `json:"jobs_succeeded"`
	JobsFailed    int     `json:"jobs_failed"`
	Cells         int     `json:"cells"`
	LatencyP50Ms  float64 `json:"latency_p50_ms"`
	LatencyP95Ms  float64 `json:"latency_p95_ms"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}
