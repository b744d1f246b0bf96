package contour

import (
	"math"

	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
)

// cellEdge identifies a grid edge shared by at most two squares. A
// horizontal edge joins (row, col) and (row, col+1); a vertical edge joins
// (row, col) and (row+1, col).
type cellEdge struct {
	row, col int
	vertical bool
}

type segment struct {
	a, b cellEdge
}

// Square corner bits: a corner is set when it lies above the level.
const (
	topLeft     = 8
	topRight    = 4
	bottomRight = 2
	bottomLeft  = 1
)

// Trace runs marching squares over r at level and returns the iso-lines in
// geographic coordinates. Squares with a nodata corner are skipped, so
// lines stop at nodata. Closed loops repeat their first vertex.
func Trace(r *raster.Raster, level float64) []orb.LineString {
	crossings := make(map[cellEdge]orb.Point)
	var segs []segment

	at := func(e cellEdge) cellEdge {
		if _, ok := crossings[e]; !ok {
			crossings[e] = crossing(r, e, level)
		}
		return e
	}

	for row := 0; row < r.Rows()-1; row++ {
		for col := 0; col < r.Cols()-1; col++ {
			tl, tr := r.At(row, col), r.At(row, col+1)
			bl, br := r.At(row+1, col), r.At(row+1, col+1)
			if math.IsNaN(tl) || math.IsNaN(tr) || math.IsNaN(bl) || math.IsNaN(br) {
				continue
			}

			idx := 0
			if tl > level {
				idx |= topLeft
			}
			if tr > level {
				idx |= topRight
			}
			if br > level {
				idx |= bottomRight
			}
			if bl > level {
				idx |= bottomLeft
			}

			top := cellEdge{row: row, col: col}
			bottom := cellEdge{row: row + 1, col: col}
			left := cellEdge{row: row, col: col, vertical: true}
			right := cellEdge{row: row, col: col + 1, vertical: true}

			switch idx {
			case 1, 14:
				segs = append(segs, segment{at(bottom), at(left)})
			case 2, 13:
				segs = append(segs, segment{at(right), at(bottom)})
			case 3, 12:
				segs = append(segs, segment{at(right), at(left)})
			case 4, 11:
				segs = append(segs, segment{at(top), at(right)})
			case 5:
				segs = append(segs, segment{at(left), at(top)}, segment{at(bottom), at(right)})
			case 6, 9:
				segs = append(segs, segment{at(top), at(bottom)})
			case 7, 8:
				segs = append(segs, segment{at(left), at(top)})
			case 10:
				segs = append(segs, segment{at(left), at(bottom)}, segment{at(top), at(right)})
			}
		}
	}

	return stitch(segs, crossings)
}

// crossing interpolates where the level crosses edge e, in geographic
// coordinates.
func crossing(r *raster.Raster, e cellEdge, level float64) orb.Point {
	z0 := r.At(e.row, e.col)
	var z1 float64
	if e.vertical {
		z1 = r.At(e.row+1, e.col)
	} else {
		z1 = r.At(e.row, e.col+1)
	}
	t := 0.5
	if z1 != z0 {
		t = (level - z0) / (z1 - z0)
	}
	if e.vertical {
		return r.Point(float64(e.col), float64(e.row)+t)
	}
	return r.Point(float64(e.col)+t, float64(e.row))
}

// stitch joins segments sharing an edge into polylines.
func stitch(segs []segment, crossings map[cellEdge]orb.Point) []orb.LineString {
	byEdge := make(map[cellEdge][]int, len(segs)*2)
	for i, s := range segs {
		byEdge[s.a] = append(byEdge[s.a], i)
		byEdge[s.b] = append(byEdge[s.b], i)
	}
	used := make([]bool, len(segs))

	next := func(from cellEdge) (cellEdge, bool) {
		for _, i := range byEdge[from] {
			if used[i] {
				continue
			}
			used[i] = true
			if segs[i].a == from {
				return segs[i].b, true
			}
			return segs[i].a, true
		}
		return cellEdge{}, false
	}

	var lines []orb.LineString
	for i, s := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		chain := []cellEdge{s.a, s.b}

		closed := false
		for {
			e, ok := next(chain[len(chain)-1])
			if !ok {
				break
			}
			chain = append(chain, e)
			if e == chain[0] {
				closed = true
				break
			}
		}
		if !closed {
			var head []cellEdge
			for cur := chain[0]; ; {
				e, ok := next(cur)
				if !ok {
					break
				}
				head = append(head, e)
				cur = e
			}
			for l, r := 0, len(head)-1; l < r; l, r = l+1, r-1 {
				head[l], head[r] = head[r], head[l]
			}
			chain = append(head, chain...)
		}

		ls := make(orb.LineString, 0, len(chain))
		for _, e := range chain {
			p := crossings[e]
			if n := len(ls); n > 0 && ls[n-1] == p {
				continue
			}
			ls = append(ls, p)
		}
		lines = append(lines, ls)
	}
	return lines
}
