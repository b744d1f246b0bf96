// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/okian/watershed/internal/domain/grid"
	"github.com/paulmach/orb"
)

// JobState is the lifecycle stage of a grid job.
type JobState string

// Job states, in lifecycle order.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Sentinel errors shared by the service and its transports.
var (
	// ErrInvalidRequest is returned by GridRequest.Validate.
	ErrInvalidRequest = errors.New("invalid grid request")
	// ErrInvalidArgument marks a query the analyses cannot accept.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotStarted is returned by service calls before Start.
	ErrNotStarted = errors.New("service not started")
)

// GridRequest asks for a watershed heatmap over a box.
type GridRequest struct {
	Bound    orb.Bound // lon/lat box
	SpacingM float64   // lattice spacing in meters
}

// Validate checks the box and spacing against the allowed spacing range and
// rejects lattices of more than maxPoints points.
func (r GridRequest) Validate(minSpacing, maxSpacing float64, maxPoints int) error {
	for _, v := range []float64{r.Bound.Min[0], r.Bound.Min[1], r.Bound.Max[0], r.Bound.Max[1], r.SpacingM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidRequest)
		}
	}
	if r.Bound.Min[0] >= r.Bound.Max[0] || r.Bound.Min[1] >= r.Bound.Max[1] {
		return fmt.Errorf("%w: minx/miny must be below maxx/maxy", ErrInvalidRequest)
	}
	if r.Bound.Min[1] < -90 || r.Bound.Max[1] > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidRequest)
	}
	if r.Bound.Min[0] < -180 || r.Bound.Max[0] > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidRequest)
	}
	if r.SpacingM < minSpacing || r.SpacingM > maxSpacing {
		return fmt.Errorf("%w: grid_spacing_m must be within [%g, %g]", ErrInvalidRequest, minSpacing, maxSpacing)
	}
	if n := grid.LatticeSize(r.Bound, r.SpacingM); n > maxPoints {
		return fmt.Errorf("%w: %d grid points exceed the limit of %d", ErrInvalidRequest, n, maxPoints)
	}
	return nil
}

// Key identifies requests that would produce the same heatmap.
func (r GridRequest) Key() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f@%g", r.Bound.Min[0], r.Bound.Min[1], r.Bound.Max[0], r.Bound.Max[1], r.SpacingM)
}

// Job is an asynchronous grid run.
type Job struct {
	ID         string
	State      JobState
	Request    GridRequest
	Result     []byte // encoded FeatureCollection once succeeded
	Error      string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewJob returns a queued job with a fresh id.
func NewJob(req GridRequest) Job {
	return Job{
		ID:        uuid.NewString(),
		State:     JobQueued,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
}
