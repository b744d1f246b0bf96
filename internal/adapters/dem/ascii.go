package dem

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/watershed/internal/domain/raster"
)

// MaxCells bounds the grid size a header may declare.
const MaxCells = 1 << 26

// preallocCells caps the up-front value buffer; larger grids grow as read.
const preallocCells = 1 << 20

// ReadASCII decodes an ESRI ASCII grid with geographic coordinates. When
// the header declares no NODATA_value, nodata is used. Rectangular cells may
// be given with the dx and dy headers in place of cellsize.
func ReadASCII(r io.Reader, nodata float64) (*raster.Raster, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	var (
		ncols, nrows int
		xll, yll     float64
		dx, dy       float64
		centered     bool
		seen         = map[string]bool{}
		first        string
	)
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: header %q has no value", ErrFormat, key)
		}
		val := sc.Text()
		var err error
		switch key {
		case "ncols":
			ncols, err = strconv.Atoi(val)
		case "nrows":
			nrows, err = strconv.Atoi(val)
		case "xllcorner":
			xll, err = strconv.ParseFloat(val, 64)
		case "xllcenter":
			xll, err = strconv.ParseFloat(val, 64)
			centered = true
		case "yllcorner":
			yll, err = strconv.ParseFloat(val, 64)
		case "yllcenter":
			yll, err = strconv.ParseFloat(val, 64)
			centered = true
		case "cellsize":
			dx, err = strconv.ParseFloat(val, 64)
			dy = dx
			seen["dx"], seen["dy"] = true, true
		case "dx":
			dx, err = strconv.ParseFloat(val, 64)
		case "dy":
			dy, err = strconv.ParseFloat(val, 64)
		case "nodata_value":
			nodata, err = strconv.ParseFloat(val, 64)
		default:
			return nil, fmt.Errorf("%w: unknown header %q", ErrFormat, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: header %s: %v", ErrFormat, key, err)
		}
		seen[strings.TrimSuffix(strings.TrimSuffix(key, "corner"), "center")] = true
	}
	for _, k := range []string{"ncols", "nrows", "xll", "yll", "dx", "dy"} {
		if !seen[k] {
			return nil, fmt.Errorf("%w: missing %s", ErrFormat, k)
		}
	}
	if ncols <= 0 || nrows <= 0 || dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions", ErrFormat)
	}
	if ncols > MaxCells/nrows {
		return nil, fmt.Errorf("%w: %dx%d grid exceeds %d cells", ErrFormat, nrows, ncols, MaxCells)
	}
	total := ncols * nrows

	values := make([]float64, 0, min(total, preallocCells))
	next := first
	for next != "" {
		v, err := strconv.ParseFloat(next, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrFormat, len(values), err)
		}
		values = append(values, v)
		if len(values) > total {
			return nil, fmt.Errorf("%w: more than %d values", ErrFormat, total)
		}
		next = ""
		if sc.Scan() {
			next = sc.Text()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	if len(values) != total {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrFormat, len(values), nrows, ncols)
	}

	if centered {
		xll -= dx / 2
		yll -= dy / 2
	}
	tf := raster.Transform{
		CellWidth:  dx,
		CellHeight: dy,
		OriginLon:  xll,
		OriginLat:  yll + float64(nrows)*dy,
	}
	return raster.NewFlat(nrows, ncols, values, tf, nodata)
}

// WriteASCII encodes r as an ESRI ASCII grid. Rectangular cells are written
// with dx and dy.
func WriteASCII(w io.Writer, r *raster.Raster) error {
	tf := r.Transform()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", r.Cols(), r.Rows())
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", ftoa(tf.OriginLon), ftoa(tf.OriginLat-float64(r.Rows())*tf.CellHeight))
	if tf.CellWidth == tf.CellHeight {
		fmt.Fprintf(bw, "cellsize %s\n", ftoa(tf.CellWidth))
	} else {
		fmt.Fprintf(bw, "dx %s\ndy %s\n", ftoa(tf.CellWidth), ftoa(tf.CellHeight))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", ftoa(r.Nodata()))
	for row := 0; row < r.Rows(); row++ {
		for col := 0; col < r.Cols(); col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := r.At(row, col)
			if math.IsNaN(v) {
				v = r.Nodata()
			}
			bw.WriteString(ftoa(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
