// Package placement scores candidate building sites around a point by flood
// exposure.
package placement

import (
	"context"
	"fmt"

	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/paulmach/orb"
)

const (
	// MinStepM is the smallest spacing between candidate sites.
	MinStepM = 50.0

	SuggestedScore = 0.8
	CenterScore    = 0.5

	ReasonSuggested = "Outside flood zone, adequate drainage"
	ReasonCenter    = "Center point"
	ReasonFlood     = "In FEMA flood zone"
	ReasonClear     = "No flood zone restriction at this point"
)

// Suggestion is one candidate building site.
type Suggestion struct {
	Point  orb.Point
	Score  float64
	Reason string
}

// Buildability is the verdict for a single point.
type Buildability struct {
	CanBuild    bool
	Reasons     []string
	RiskFactors map[string]any
}

// Evaluator answers placement questions against a flood-zone lookup.
type Evaluator struct {
	zones    ZoneLookup
	onLookup func(ctx context.Context, p orb.Point, err error)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLookupErrorHandler is called whenever the zone lookup fails. The
// point is then treated as unrestricted.
func WithLookupErrorHandler(fn func(ctx context.Context, p orb.Point, err error)) Option {
	return func(e *Evaluator) {
		if fn != nil {
			e.onLookup = fn
		}
	}
}

// New returns an evaluator over zones. A nil lookup treats every point as
// unrestricted.
func New(zones ZoneLookup, opts ...Option) *Evaluator {
	e := &Evaluator{zones: zones}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// zoneAt looks p up, turning a failed lookup into no zone.
func (e *Evaluator) zoneAt(ctx context.Context, p orb.Point) (Zone, bool) {
	z, ok, err := Lookup(ctx, e.zones, p)
	if err != nil {
		if e.onLookup != nil {
			e.onLookup(ctx, p, err)
		}
		return Zone{}, false
	}
	return z, ok
}

// Suggest scans an n x n lattice of offsets around center, row by row, and
// returns up to n sites outside regulated zones. When none qualify the
// center itself is returned with a lower score.
func (e *Evaluator) Suggest(ctx context.Context, center orb.Point, radiusM float64, n int) ([]Suggestion, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: suggestions must be positive", ErrInvalidInput)
	}
	if radiusM < 0 {
		return nil, fmt.Errorf("%w: radius must not be negative", ErrInvalidInput)
	}
	step := max(radiusM/float64(n+1), MinStepM)
	mid := float64(n+1) / 2
	mLon := geodesy.MetersPerDegreeLon(center[1])

	out := make([]Suggestion, 0, n)
	for i := 1; i <= n && len(out) < n; i++ {
		for j := 1; j <= n && len(out) < n; j++ {
			p := orb.Point{
				center[0] + (float64(j)-mid)*step/mLon,
				center[1] + (float64(i)-mid)*step/geodesy.MetersPerDegreeLat,
			}
			if z, ok := e.zoneAt(ctx, p); ok && Regulated(z.Code) {
				continue
			}
			out = append(out, Suggestion{Point: p, Score: SuggestedScore, Reason: ReasonSuggested})
		}
	}
	if len(out) == 0 {
		out = append(out, Suggestion{Point: center, Score: CenterScore, Reason: ReasonCenter})
	}
	return out, nil
}

// CanBuild checks the flood zone at p. Missing or failing zone data is no
// restriction.
func (e *Evaluator) CanBuild(ctx context.Context, p orb.Point) (Buildability, error) {
	if z, ok := e.zoneAt(ctx, p); ok && Regulated(z.Code) {
		return Buildability{
			CanBuild:    false,
			Reasons:     []string{ReasonFlood},
			RiskFactors: map[string]any{"flood_zone": z.Code},
		}, nil
	}
	return Buildability{CanBuild: true, Reasons: []string{ReasonClear}}, nil
}
