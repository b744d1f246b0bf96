package grid

import "errors"

var (
	// ErrSpacing is returned for a non-positive lattice spacing.
	ErrSpacing = errors.New("grid spacing must be positive")
	// ErrBounds is returned for an empty or inverted bounding box.
	ErrBounds = errors.New("invalid bounding box")
	// ErrTooLarge is returned when the lattice exceeds the point limit.
	ErrTooLarge = errors.New("grid has too many points")
)

// DiagNoPoints is reported when no lattice point produced a basin.
const DiagNoPoints = "No valid grid points"
