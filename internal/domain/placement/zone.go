package placement

import (
	"context"

	"github.com/paulmach/orb"
)

// ZoneLookup resolves the flood-zone code covering a point. ok is false when
// the point lies outside every mapped zone.
type ZoneLookup interface {
	ZoneAt(ctx context.Context, p orb.Point) (code string, ok bool, err error)
}

// Zone is a flood-zone code with its human description.
type Zone struct {
	Code        string
	Description string
}

var descriptions = map[string]string{
	"A":  "100-year flood zone",
	"AE": "100-year flood zone with BFE",
	"AH": "100-year shallow flooding",
	"AO": "100-year sheet flow",
	"X":  "Area of minimal flood hazard",
}

// NotMapped describes a point outside every mapped zone.
const NotMapped = "Not in mapped flood zone"

// Describe returns the zone for code. Unknown codes describe themselves.
func Describe(code string) Zone {
	if d, ok := descriptions[code]; ok {
		return Zone{Code: code, Description: d}
	}
	return Zone{Code: code, Description: code}
}

// Regulated reports whether code is a special flood hazard area where
// building is restricted.
func Regulated(code string) bool {
	switch code {
	case "A", "AE", "AH", "AO":
		return true
	}
	return false
}

// Lookup returns the zone at p, or ok false when none is mapped. A nil
// lookup maps nothing.
func Lookup(ctx context.Context, zones ZoneLookup, p orb.Point) (Zone, bool, error) {
	if zones == nil {
		return Zone{}, false, nil
	}
	code, ok, err := zones.ZoneAt(ctx, p)
	if err != nil || !ok {
		return Zone{}, false, err
	}
	return Describe(code), true, nil
}
