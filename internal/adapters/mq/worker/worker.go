// Package worker runs queued grid jobs and records their outcome.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/watershed/internal/adapters/mq/queue"
	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/pkg/logger"
	"github.com/okian/watershed/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Runner computes the encoded heatmap for a grid request.
type Runner interface {
	RunGrid(ctx context.Context, req model.GridRequest) ([]byte, error)
}

// Recorder persists job state transitions.
type Recorder interface {
	Put(ctx context.Context, job model.Job) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over an in-process queue.
type InMemoryWorker struct {
	queue    Queue
	runner   Runner
	recorder Recorder
	name     string

	processed atomic.Int64
	failed    atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "grid job failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of jobs handled, and how many failed.
func (w *InMemoryWorker) Processed() (total, failed int64) {
	return w.processed.Load(), w.failed.Load()
}

// process runs one job, recording the running and final states.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	job.State = model.JobRunning
	job.StartedAt = start.UTC()
	if err := w.recorder.Put(ctx, job); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark job running: %w", err)
	}
	metrics.RecordJob(string(model.JobRunning), 0)

	result, runErr := w.runner.RunGrid(ctx, job.Request)
	job.FinishedAt = time.Now().UTC()
	if runErr != nil {
		job.State = model.JobFailed
		job.Error = runErr.Error()
		w.failed.Add(1)
		metrics.RecordErrorByComponent("worker", "grid_error")
	} else {
		job.State = model.JobSucceeded
		job.Result = result
	}
	w.processed.Add(1)
	took := time.Since(start)
	metrics.RecordJob(string(job.State), took)

	// the final state is stored even when the run context is gone
	if err := w.recorder.Put(context.WithoutCancel(ctx), job); err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store job result: %w", err)
	}
	w.logger.Debug(ctx, "grid job finished",
		logger.String("job_id", job.ID),
		logger.String("state", string(job.State)),
		logger.Duration("took", took),
	)
	return runErr
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, runner Runner, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, runner, recorder, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Processed sums the per-worker counters.
func (p *Pool) Processed() (total, failed int64) {
	for _, w := range p.workers {
		t, f := w.Processed()
		total += t
		failed += f
	}
	return total, failed
}

// Shutdown closes the queue and waits for the workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
