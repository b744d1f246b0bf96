package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/watershed/internal/client"
	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/pkg/logger"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// accepted is a job the server took, with the time it was submitted.
type accepted struct {
	id   string
	tile orb.Bound
	at   time.Time
}

// Run submits cfg.Jobs grid jobs, waits for all of them, and verifies every
// heatmap. Backpressure rejections are counted, not treated as failures.
func Run(ctx context.Context, cfg *Config, c *client.Client) (*Stats, error) {
	log := logger.Get().Named("loadtest")
	stats := &Stats{StartTime: time.Now()}
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	log.Info(ctx, "starting watershed load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("jobs", cfg.Jobs),
		logger.Int("workers", workers),
		logger.Float64("spacingM", cfg.SpacingM))

	// Step 1: Check service health
	if _, err := c.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate tiles
	tiles := generateTiles(cfg)
	stats.JobsGenerated = len(tiles)

	// Step 3: Submit concurrently
	jobs, err := submit(ctx, c, tiles, cfg.SpacingM, workers, stats, log, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return stats, ErrNoJobs
	}

	// Step 4: Wait for every job and verify it
	latencies, err := await(ctx, c, jobs, workers, stats, log, cfg.Verbose)
	if err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if len(latencies) > 0 {
		slices.Sort(latencies)
		stats.LatencyP50Ms = stat.Quantile(0.5, stat.Empirical, latencies, nil)
		stats.LatencyP95Ms = stat.Quantile(0.95, stat.Empirical, latencies, nil)
	}

	// Step 5: Save the report
	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, stats); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	displayFinalStats(ctx, log, stats)
	if stats.JobsFailed > 0 {
		return stats, fmt.Errorf("%d of %d jobs failed", stats.JobsFailed, len(jobs))
	}
	return stats, nil
}

func submit(ctx context.Context, c *client.Client, tiles []orb.Bound, spacingM float64, workers int, stats *Stats, log logger.Logger, verbose bool) ([]accepted, error) {
	var (
		mu       sync.Mutex
		jobs     = make([]accepted, 0, len(tiles))
		rejected atomic.Int64
		failed   atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, tile := range tiles {
		g.Go(func() error {
			at := time.Now()
			acc, err := c.SubmitGridJob(gctx, tile, spacingM)
			switch {
			case errors.Is(err, client.ErrBackpressure):
				rejected.Add(1)
				return nil
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Warn(gctx, "submit failed", logger.Error(err))
				return nil
			}
			if verbose {
				log.Info(gctx, "job accepted", logger.String("id", acc.ID))
			}
			mu.Lock()
			jobs = append(jobs, accepted{id: acc.ID, tile: tile, at: at})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("job submission failed: %w", err)
	}

	stats.JobsAccepted = len(jobs)
	stats.JobsRejected = int(rejected.Load())
	stats.SubmitErrors = int(failed.Load())
	log.Info(ctx, "job submission completed",
		logger.Int("accepted", stats.JobsAccepted),
		logger.Int("rejected", stats.JobsRejected),
		logger.Int("errors", stats.SubmitErrors))
	return jobs, nil
}

func await(ctx context.Context, c *client.Client, jobs []accepted, workers int, stats *Stats, log logger.Logger, verbose bool) ([]float64, error) {
	var (
		mu        sync.Mutex
		latencies = make([]float64, 0, len(jobs))
		succeeded atomic.Int64
		failed    atomic.Int64
		cells     atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			st, err := c.WaitJob(gctx, job.id)
			if err != nil {
				return fmt.Errorf("wait %s: %w", job.id, err)
			}
			if st.State != string(model.JobSucceeded) {
				failed.Add(1)
				log.Warn(gctx, "job failed", logger.String("id", job.id), logger.String("error", st.Error))
				return nil
			}
			n, err := verifyResult(st.Result)
			if err != nil {
				failed.Add(1)
				log.Warn(gctx, "job result invalid", logger.String("id", job.id), logger.Error(err))
				return nil
			}
			succeeded.Add(1)
			cells.Add(int64(n))
			if verbose {
				log.Info(gctx, "job succeeded", logger.String("id", job.id), logger.Int("cells", n))
			}
			mu.Lock()
			latencies = append(latencies, float64(time.Since(job.at).Milliseconds()))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("waiting for jobs failed: %w", err)
	}

	stats.JobsSucceeded = int(succeeded.Load())
	stats.JobsFailed = int(failed.Load())
	stats.Cells = int(cells.Load())
	return latencies, nil
}

// saveReport writes the statistics as indented JSON.
func saveReport(path string, stats *Stats) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(path, data, reportPermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var jobsPerSecond float64
	if stats.Duration > 0 {
		jobsPerSecond = float64(stats.JobsSucceeded) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("jobsGenerated", stats.JobsGenerated),
		logger.Int("jobsAccepted", stats.JobsAccepted),
		logger.Int("jobsRejected", stats.JobsRejected),
		logger.Int("jobsSucceeded", stats.JobsSucceeded),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("cells", stats.Cells),
		logger.Float64("latencyP50Ms", stats.LatencyP50Ms),
		logger.Float64("latencyP95Ms", stats.LatencyP95Ms),
		logger.Duration("duration", stats.Duration),
		logger.Float64("jobsPerSecond", jobsPerSecond))
}
