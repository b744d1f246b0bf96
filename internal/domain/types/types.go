// Package types contains the JSON shapes shared by the HTTP API and its client.
package types

import (
	"encoding/json"
	"time"

	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/internal/domain/placement"
)

// Health is the liveness answer.
type Health struct {
	Status string `json:"status"`
}

// FloodPoint is the flood zone at a point. Zone is null outside mapped zones.
type FloodPoint struct {
	Zone        *string `json:"zone"`
	Description string  `json:"description"`
}

// Suggestion is a candidate building site.
type Suggestion struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Suggestions wraps the placement answer.
type Suggestions struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Buildability is the verdict for one point.
type Buildability struct {
	CanBuild    bool           `json:"can_build"`
	Reasons     []string       `json:"reasons"`
	RiskFactors map[string]any `json:"risk_factors"`
}

// JobAccepted acknowledges a submitted grid job.
type JobAccepted struct {
	ID       string `json:"job_id"`
	State    string `json:"state"`
	Location string `json:"location"`
}

// JobStatus reports a grid job. Result holds the heatmap once succeeded.
type JobStatus struct {
	ID         string          `json:"job_id"`
	State      string          `json:"state"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// NewFloodPoint converts a lookup; ok false yields a null zone.
func NewFloodPoint(z placement.Zone, ok bool) FloodPoint {
	if !ok {
		return FloodPoint{Description: placement.NotMapped}
	}
	code := z.Code
	return FloodPoint{Zone: &code, Description: z.Description}
}

// NewSuggestions converts placement suggestions.
func NewSuggestions(in []placement.Suggestion) Suggestions {
	out := Suggestions{Suggestions: make([]Suggestion, len(in))}
	for i, s := range in {
		out.Suggestions[i] = Suggestion{Lat: s.Point[1], Lon: s.Point[0], Score: s.Score, Reason: s.Reason}
	}
	return out
}

// NewBuildability converts a placement verdict.
func NewBuildability(b placement.Buildability) Buildability {
	reasons := b.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return Buildability{CanBuild: b.CanBuild, Reasons: reasons, RiskFactors: b.RiskFactors}
}

// NewJobStatus converts a stored job.
func NewJobStatus(j model.Job) JobStatus { //nolint:gocritic // hugeParam: read-only conversion
	st := JobStatus{
		ID:        j.ID,
		State:     string(j.State),
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		st.StartedAt = &t
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		st.FinishedAt = &t
	}
	if j.State == model.JobSucceeded && len(j.Result) > 0 {
		st.Result = json.RawMessage(j.Result)
	}
	return st
}
