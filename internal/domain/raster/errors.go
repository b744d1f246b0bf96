package raster

import "errors"

// Sentinel errors for raster construction and windowing.
var (
	ErrEmptyRaster   = errors.New("raster is empty")
	ErrRaggedRaster  = errors.New("raster rows have different lengths")
	ErrZeroCellSize  = errors.New("raster cell size is zero")
	ErrOutOfBounds   = errors.New("window does not intersect raster")
	ErrShapeMismatch = errors.New("value count does not match raster shape")
)
