// Package raster models an immutable elevation grid georeferenced by a
// north-up affine transform. Nodata samples are stored as NaN so every
// analysis can treat them as absent.
package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// DefaultNodata is the sentinel used when a source does not declare one.
const DefaultNodata = -9999.0

// Transform maps pixel (col, row) to (lon, lat):
//
//	lon = OriginLon + col*CellWidth
//	lat = OriginLat - row*CellHeight
type Transform struct {
	CellWidth  float64
	CellHeight float64
	OriginLon  float64
	OriginLat  float64
}

// FromAffine builds a Transform from the six GDAL-style coefficients
// (a, b, c, d, e, f) where a is the cell width, c the origin longitude,
// e the negated cell height and f the origin latitude. Rotation terms are
// ignored.
func FromAffine(a [6]float64) Transform {
	return Transform{
		CellWidth:  math.Abs(a[0]),
		CellHeight: math.Abs(a[4]),
		OriginLon:  a[2],
		OriginLat:  a[5],
	}
}

// Affine returns the six coefficients of t.
func (t Transform) Affine() [6]float64 {
	return [6]float64{t.CellWidth, 0, t.OriginLon, 0, -t.CellHeight, t.OriginLat}
}

// Raster is a rectangular grid of elevations in row-major order.
type Raster struct {
	rows, cols int
	data       []float64
	tf         Transform
	nodata     float64
}

// New copies data into a Raster, replacing nodata samples with NaN.
func New(data [][]float64, tf Transform, nodata float64) (*Raster, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, ErrEmptyRaster
	}
	rows, cols := len(data), len(data[0])
	flat := make([]float64, 0, rows*cols)
	for r, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", r, len(row), cols, ErrRaggedRaster)
		}
		flat = append(flat, row...)
	}
	return build(rows, cols, flat, tf, nodata)
}

// NewFlat builds a Raster from row-major values, taking ownership of them.
func NewFlat(rows, cols int, values []float64, tf Transform, nodata float64) (*Raster, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmptyRaster
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%d values for %dx%d: %w", len(values), rows, cols, ErrShapeMismatch)
	}
	return build(rows, cols, values, tf, nodata)
}

func build(rows, cols int, values []float64, tf Transform, nodata float64) (*Raster, error) {
	if tf.CellWidth == 0 || tf.CellHeight == 0 {
		return nil, ErrZeroCellSize
	}
	for i, v := range values {
		if v == nodata || math.IsInf(v, 0) {
			values[i] = math.NaN()
		}
	}
	return &Raster{rows: rows, cols: cols, data: values, tf: tf, nodata: nodata}, nil
}

func (r *Raster) Rows() int            { return r.rows }
func (r *Raster) Cols() int            { return r.cols }
func (r *Raster) Len() int             { return r.rows * r.cols }
func (r *Raster) Transform() Transform { return r.tf }
func (r *Raster) Nodata() float64      { return r.nodata }

// Index returns the row-major offset of (row, col).
func (r *Raster) Index(row, col int) int { return row*r.cols + col }

// Contains reports whether (row, col) lies inside the grid.
func (r *Raster) Contains(row, col int) bool {
	return row >= 0 && row < r.rows && col >= 0 && col < r.cols
}

// At returns the elevation at (row, col), NaN for nodata.
func (r *Raster) At(row, col int) float64 { return r.data[row*r.cols+col] }

// Valid reports whether (row, col) is inside the grid and holds data.
func (r *Raster) Valid(row, col int) bool {
	return r.Contains(row, col) && !math.IsNaN(r.data[row*r.cols+col])
}

// Point returns the geographic position of fractional pixel (col, row).
func (r *Raster) Point(col, row float64) orb.Point {
	return orb.Point{r.tf.OriginLon + col*r.tf.CellWidth, r.tf.OriginLat - row*r.tf.CellHeight}
}

// Corner returns the upper-left corner of cell (row, col).
func (r *Raster) Corner(row, col int) orb.Point {
	return r.Point(float64(col), float64(row))
}

// CellCenter returns the center of cell (row, col).
func (r *Raster) CellCenter(row, col int) orb.Point {
	return r.Point(float64(col)+0.5, float64(row)+0.5)
}

// Locate maps a geographic point to the cell containing it. Points outside
// the grid snap to the nearest edge cell.
func (r *Raster) Locate(p orb.Point) (row, col int) {
	col = clampIndex((p[0]-r.tf.OriginLon)/r.tf.CellWidth, r.cols)
	row = clampIndex((r.tf.OriginLat-p[1])/r.tf.CellHeight, r.rows)
	return row, col
}

func clampIndex(v float64, n int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(n-1) {
		return n - 1
	}
	return int(v)
}

// Bound returns the geographic extent of the grid.
func (r *Raster) Bound() orb.Bound {
	return orb.Bound{Min: r.Corner(r.rows, 0), Max: r.Corner(0, r.cols)}
}

// Center returns the geographic center of the grid.
func (r *Raster) Center() orb.Point {
	return r.Bound().Center()
}

// ValidValues returns the non-NaN samples in row-major order.
func (r *Raster) ValidValues() []float64 {
	out := make([]float64, 0, len(r.data))
	for _, v := range r.data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Range returns the minimum and maximum valid elevation. ok is false when
// the grid holds no data.
func (r *Raster) Range() (lo, hi float64, ok bool) {
	vals := r.ValidValues()
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// Keep returns a copy in which every cell rejected by keep is nodata.
func (r *Raster) Keep(keep func(row, col int) bool) *Raster {
	out := &Raster{rows: r.rows, cols: r.cols, data: make([]float64, len(r.data)), tf: r.tf, nodata: r.nodata}
	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			i := row*r.cols + col
			if keep(row, col) {
				out.data[i] = r.data[i]
			} else {
				out.data[i] = math.NaN()
			}
		}
	}
	return out
}

// Window returns the sub-grid covering rows [row0, row0+rows) and columns
// [col0, col0+cols), clipped to the raster.
func (r *Raster) Window(row0, col0, rows, cols int) (*Raster, error) {
	r0, c0 := max(row0, 0), max(col0, 0)
	r1, c1 := min(row0+rows, r.rows), min(col0+cols, r.cols)
	if r0 >= r1 || c0 >= c1 {
		return nil, ErrOutOfBounds
	}
	out := &Raster{
		rows:   r1 - r0,
		cols:   c1 - c0,
		data:   make([]float64, 0, (r1-r0)*(c1-c0)),
		nodata: r.nodata,
		tf: Transform{
			CellWidth:  r.tf.CellWidth,
			CellHeight: r.tf.CellHeight,
			OriginLon:  r.tf.OriginLon + float64(c0)*r.tf.CellWidth,
			OriginLat:  r.tf.OriginLat - float64(r0)*r.tf.CellHeight,
		},
	}
	for row := r0; row < r1; row++ {
		out.data = append(out.data, r.data[row*r.cols+c0:row*r.cols+c1]...)
	}
	return out, nil
}

// Clip returns the sub-grid covering the geographic bound b.
func (r *Raster) Clip(b orb.Bound) (*Raster, error) {
	if !r.Bound().Intersects(b) {
		return nil, ErrOutOfBounds
	}
	col0 := int(math.Floor((b.Min[0] - r.tf.OriginLon) / r.tf.CellWidth))
	col1 := int(math.Ceil((b.Max[0] - r.tf.OriginLon) / r.tf.CellWidth))
	row0 := int(math.Floor((r.tf.OriginLat - b.Max[1]) / r.tf.CellHeight))
	row1 := int(math.Ceil((r.tf.OriginLat - b.Min[1]) / r.tf.CellHeight))
	return r.Window(row0, col0, row1-row0, col1-col0)
}
