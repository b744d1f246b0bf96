// Package service composes terrain sources, vector layers, the hydrology
// pipeline and the grid job machinery behind the methods the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/watershed/internal/adapters/dem"
	"github.com/okian/watershed/internal/adapters/floodzone"
	jobqueue "github.com/okian/watershed/internal/adapters/mq/queue"
	workerpool "github.com/okian/watershed/internal/adapters/mq/worker"
	"github.com/okian/watershed/internal/adapters/repository"
	"github.com/okian/watershed/internal/adapters/rivers"
	"github.com/okian/watershed/internal/config"
	"github.com/okian/watershed/internal/domain/dedupe"
	"github.com/okian/watershed/internal/domain/placement"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/okian/watershed/pkg/logger"
	"github.com/okian/watershed/pkg/metrics"
	"github.com/paulmach/orb"
)

// minInflight is the smallest number of request keys tracked for coalescing.
const minInflight = 64

// Service implements the API dependencies for the watershed analysis service.
type Service struct {
	mu sync.RWMutex

	// submitMu orders coalescing claims with the job store writes.
	submitMu sync.Mutex

	cfg *config.Config

	// Injected or built on Start
	sources  []dem.Source
	terrain  *dem.Chain
	zones    *floodzone.Store
	rivers   *rivers.Store
	jobs     repository.Store
	inflight dedupe.Deduper
	queue    jobqueue.Queue
	pool     *workerpool.Pool
	placer   *placement.Evaluator

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration; defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDEMSources replaces the configured terrain sources.
func WithDEMSources(sources ...dem.Source) Option {
	return func(s *Service) {
		if len(sources) > 0 {
			s.sources = sources
		}
	}
}

// WithFloodZones sets the flood zone store instead of loading flood_zones_path.
func WithFloodZones(zones *floodzone.Store) Option {
	return func(s *Service) {
		if zones != nil {
			s.zones = zones
		}
	}
}

// WithRivers sets the river store instead of loading rivers_path.
func WithRivers(r *rivers.Store) Option {
	return func(s *Service) {
		if r != nil {
			s.rivers = r
		}
	}
}

// WithJobStore sets the grid job store instead of building one from job_store.
func WithJobStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.jobs = store
		}
	}
}

// New constructs a new Service. Nothing is loaded until Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the data layers and starts the grid workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.cfg == nil {
		s.cfg = config.New(ctx)
	}

	s.logger.Info(ctx, "starting watershed service...")

	if err := s.loadTerrain(); err != nil {
		return err
	}
	if err := s.loadLayers(); err != nil {
		return err
	}
	if s.jobs == nil {
		store, err := s.openJobStore(ctx)
		if err != nil {
			return err
		}
		s.jobs = store
	}

	s.placer = placement.New(s.zones, placement.WithLookupErrorHandler(func(ctx context.Context, p orb.Point, err error) {
		metrics.RecordErrorByComponent("placement", "zone_lookup")
		s.logger.Warn(ctx, "flood zone lookup failed", logger.Float64("lon", p[0]), logger.Float64("lat", p[1]), logger.Error(err))
	}))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.cfg.QueueSize))
	s.inflight = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(max(2*s.cfg.QueueSize, minInflight)))
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, s, jobLedger{store: s.jobs, inflight: s.inflight})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "watershed service started",
		logger.Any("terrain", s.terrain.Sources()),
		logger.Int("flood_zones", s.zones.Len()),
		logger.Int("rivers", s.rivers.Len()),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queue_size", s.cfg.QueueSize),
		logger.String("job_store", s.cfg.JobStore),
	)
	return nil
}

func (s *Service) loadTerrain() error {
	sources := s.sources
	if len(sources) == 0 {
		if s.cfg.DEMPath != "" {
			f, err := dem.OpenFile(s.cfg.DEMPath, s.cfg.DEMNodata)
			if err != nil {
				return fmt.Errorf("open dem: %w", err)
			}
			sources = append(sources, f)
		}
		if s.cfg.SyntheticFallback {
			sources = append(sources, dem.NewSynthetic(raster.SyntheticSize))
		}
	}
	s.terrain = dem.NewChain(sources...)
	return nil
}

func (s *Service) loadLayers() error {
	if s.zones == nil {
		if s.cfg.FloodZonesPath == "" {
			s.zones = floodzone.New()
		} else {
			zones, err := floodzone.Open(s.cfg.FloodZonesPath)
			if err != nil {
				return fmt.Errorf("load flood zones: %w", err)
			}
			s.zones = zones
		}
	}
	if s.rivers == nil {
		if s.cfg.RiversPath == "" {
			s.rivers = rivers.New()
		} else {
			r, err := rivers.Load(s.cfg.RiversPath)
			if err != nil {
				return fmt.Errorf("load rivers: %w", err)
			}
			s.rivers = r
		}
	}
	return nil
}

func (s *Service) openJobStore(ctx context.Context) (repository.Store, error) {
	switch s.cfg.JobStore {
	case config.JobStoreSQLite:
		store, err := repository.NewSQLiteStore(ctx, s.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open job store: %w", err)
		}
		s.logger.Info(ctx, "using sqlite job store", logger.String("path", s.cfg.SQLitePath))
		return store, nil
	default:
		s.logger.Info(ctx, "using in-memory job store")
		return repository.NewMemoryStore(ctx), nil
	}
}

// Stop drains the workers and closes the job store. Jobs still running
// when Stop is called finish as failed.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, jobs := s.pool, s.jobs
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping watershed service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := jobs.Close(); err != nil {
		s.logger.Warn(ctx, "closing job store", logger.Error(err))
	}
	s.logger.Info(ctx, "watershed service stopped")
}

// running returns ErrNotStarted before Start.
func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	storedJobs := s.jobs.Count(ctx)
	processed, failed := s.pool.Processed()

	stats["terrainSources"] = s.terrain.Sources()
	stats["floodZones"] = s.zones.Len()
	stats["rivers"] = s.rivers.Len()
	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = queueLen
	stats["queueCapacity"] = s.queue.Cap()
	stats["storedJobs"] = storedJobs
	stats["jobsProcessed"] = processed
	stats["jobsFailed"] = failed
	stats["inflightRequests"] = s.inflight.Size()

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateStoredJobs(storedJobs)
	metrics.UpdateWorkerCount(s.pool.Size())

	return stats
}
