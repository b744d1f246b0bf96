// Package repository stores grid jobs and their results.
package repository

import (
	"context"

	"github.com/okian/watershed/internal/domain/model"
)

// Store provides read/write access to jobs.
type Store interface {
	// Put inserts or replaces a job by id.
	Put(ctx context.Context, job model.Job) error

	// Get returns a job by id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Job, error)

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int

	// Close releases background resources.
	Close() error
}
