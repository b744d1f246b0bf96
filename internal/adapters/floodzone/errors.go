package floodzone

import "errors"

var (
	// ErrFormat is returned for files that are neither shapefiles nor GeoJSON.
	ErrFormat = errors.New("unsupported flood zone file")
	// ErrGeometry is returned when a record carries no usable polygon.
	ErrGeometry = errors.New("flood zone record is not a polygon")
)
