package contour

import "errors"

var (
	// ErrNoData is returned when the raster holds no valid elevation.
	ErrNoData = errors.New("contour: no valid elevations")
	// ErrInterval is returned for a non-positive contour interval.
	ErrInterval = errors.New("contour: interval must be positive")
)
