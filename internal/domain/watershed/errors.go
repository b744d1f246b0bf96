package watershed

import "errors"

// Reasons a point has no usable basin.
var (
	ErrNoData     = errors.New("outlet cell has no elevation")
	ErrDegenerate = errors.New("basin smaller than 3 cells")
	ErrNoBoundary = errors.New("basin boundary has fewer than 3 vertices")
	ErrZeroArea   = errors.New("basin boundary encloses no area")
)

// Diagnostics reported in result metadata when terrain is unusable.
const (
	DiagDEMUnavailable = "DEM unavailable"
	DiagEmptyDEM       = "Empty DEM"
	DiagNoWatershed    = "No watershed found"
	DiagNoElevations   = "No valid elevations"
)
