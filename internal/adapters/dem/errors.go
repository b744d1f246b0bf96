package dem

import "errors"

var (
	// ErrUnavailable is returned when a source has no terrain for a request.
	ErrUnavailable = errors.New("DEM unavailable")
	// ErrFormat is returned for a malformed ESRI ASCII grid.
	ErrFormat = errors.New("malformed ESRI ASCII grid")
)
