package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/pkg/metrics"
)

// MemoryStore keeps jobs in a map guarded by a RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
	cfg  settings

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore constructs an in-memory store and starts its background
// maintenance until ctx ends or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		jobs:     make(map[string]model.Job),
		cfg:      defaults(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	s.startMaintenance(ctx)
	return s
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		return ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	n := len(s.jobs)
	s.mu.Unlock()
	metrics.UpdateStoredJobs(n)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Job, error) {
	if err := ctx.Err(); err != nil {
		return model.Job{}, err
	}
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return model.Job{}, ErrNotFound
	}
	return job, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Prune drops finished jobs older than the retention and returns how many
// were removed.
func (s *MemoryStore) Prune(now time.Time) int {
	cutoff := now.Add(-s.cfg.retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.State.Terminal() && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Close stops the maintenance goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMaintenance(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				s.Prune(now)
				metrics.UpdateStoredJobs(s.Count(ctx))
			}
		}
	}()
}
