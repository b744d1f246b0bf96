package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jobqueue "github.com/okian/watershed/internal/adapters/mq/queue"
	"github.com/okian/watershed/internal/adapters/repository"
	"github.com/okian/watershed/internal/domain/dedupe"
	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/pkg/logger"
	"github.com/okian/watershed/pkg/metrics"
)

// RunGrid computes a grid request and encodes its heatmap. Workers call it
// for queued jobs.
func (s *Service) RunGrid(ctx context.Context, req model.GridRequest) ([]byte, error) {
	h, err := s.Grid(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(h.FeatureCollection())
	if err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}
	return out, nil
}

// SubmitGridJob validates req, records a queued job and hands it to the
// workers. A full queue returns jobqueue.ErrFull.
func (s *Service) SubmitGridJob(ctx context.Context, req model.GridRequest) (model.Job, error) {
	if err := s.running(); err != nil {
		return model.Job{}, err
	}
	if req.SpacingM == 0 {
		req.SpacingM = s.cfg.GridSpacingM
	}
	if err := req.Validate(s.cfg.GridMinSpacingM, s.cfg.GridMaxSpacingM, s.cfg.GridMaxPoints); err != nil {
		return model.Job{}, err
	}

	job, coalesced, err := s.admit(ctx, model.NewJob(req))
	if err != nil {
		return model.Job{}, err
	}
	if coalesced {
		metrics.RecordJob("coalesced", 0)
		s.logger.Debug(ctx, "grid job coalesced", logger.String("job_id", job.ID))
		return job, nil
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.inflight.Release(ctx, req.Key(), job.ID)
		job.State = model.JobFailed
		job.Error = err.Error()
		job.FinishedAt = time.Now().UTC()
		if perr := s.jobs.Put(ctx, job); perr != nil {
			s.logger.Warn(ctx, "could not mark rejected job", logger.String("job_id", job.ID), logger.Error(perr))
		}
		if errors.Is(err, jobqueue.ErrFull) {
			s.logger.Warn(ctx, "grid job rejected", logger.String("job_id", job.ID))
		}
		return model.Job{}, err
	}
	metrics.RecordJob(string(model.JobQueued), 0)
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	s.logger.Debug(ctx, "grid job queued", logger.String("job_id", job.ID))
	return job, nil
}

// admit stores job and claims its request key, or returns the unfinished job
// already holding that key. Claim and store happen under submitMu, so any
// holder seen by a later submission is already in the store.
func (s *Service) admit(ctx context.Context, job model.Job) (model.Job, bool, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	key := job.Request.Key()
	if existing, ok := s.coalesce(ctx, key, job.ID); ok {
		return existing, true, nil
	}
	if err := s.jobs.Put(ctx, job); err != nil {
		s.inflight.Release(ctx, key, job.ID)
		return model.Job{}, false, fmt.Errorf("store job: %w", err)
	}
	return job, false, nil
}

// coalesce claims key for id. When another job already holds it and has not
// finished, that job is returned instead. A holder that is finished or no
// longer stored is released. Callers hold submitMu.
func (s *Service) coalesce(ctx context.Context, key, id string) (model.Job, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		holder, held := s.inflight.Claim(ctx, key, id)
		if !held {
			return model.Job{}, false
		}
		existing, err := s.jobs.Get(ctx, holder)
		if err == nil && !existing.State.Terminal() {
			return existing, true
		}
		s.inflight.Release(ctx, key, holder)
	}
	return model.Job{}, false
}

// jobLedger records worker transitions and frees the request key once a job
// is finished.
type jobLedger struct {
	store    repository.Store
	inflight dedupe.Deduper
}

func (l jobLedger) Put(ctx context.Context, job model.Job) error {
	err := l.store.Put(ctx, job)
	if job.State.Terminal() {
		l.inflight.Release(ctx, job.Request.Key(), job.ID)
	}
	return err
}

// Job returns a grid job by id.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	if err := s.running(); err != nil {
		return model.Job{}, err
	}
	return s.jobs.Get(ctx, id)
}
