package flow

import (
	"math"

	"github.com/okian/watershed/internal/domain/raster"
)

// Grid holds one Direction per raster cell. It is read-only once built and
// safe to share between goroutines.
type Grid struct {
	rows, cols int
	dirs       []Direction
}

// Compute assigns every interior cell the direction of its neighbor with
// the strictly largest positive drop. Ties go to the first neighbor in
// East, SouthEast, South, SouthWest, West, NorthWest, North, NorthEast order.
// Edge cells, nodata cells and cells with no lower valid neighbor get None.
func Compute(r *raster.Raster) *Grid {
	rows, cols := r.Rows(), r.Cols()
	g := &Grid{rows: rows, cols: cols, dirs: make([]Direction, rows*cols)}

	for row := 1; row < rows-1; row++ {
		for col := 1; col < cols-1; col++ {
			z := r.At(row, col)
			if math.IsNaN(z) {
				continue
			}
			best, bestDrop := None, 0.0
			for i, o := range offsets {
				nz := r.At(row+o[0], col+o[1])
				if math.IsNaN(nz) {
					continue
				}
				if drop := z - nz; drop > bestDrop {
					bestDrop = drop
					best = Direction(i + 1)
				}
			}
			g.dirs[row*cols+col] = best
		}
	}
	return g
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Contains reports whether c lies inside the grid.
func (g *Grid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// At returns the direction stored for c.
func (g *Grid) At(c Cell) Direction {
	return g.dirs[c.Row*g.cols+c.Col]
}

// FlowsInto reports whether from drains directly into to.
func (g *Grid) FlowsInto(from, to Cell) bool {
	d := g.At(from)
	return d != None && from.Step(d) == to
}

// Upstream calls fn for every in-grid neighbor of c whose direction points
// at c, in the reverse D8 order.
func (g *Grid) Upstream(c Cell, fn func(Cell)) {
	for _, o := range offsets {
		n := Cell{Row: c.Row - o[0], Col: c.Col - o[1]}
		if g.Contains(n) && g.FlowsInto(n, c) {
			fn(n)
		}
	}
}

// Trace follows directions from start and returns the pour point: the
// first cell with no direction, whose next step leaves the grid, or whose
// next step revisits a cell already on this trace.
func (g *Grid) Trace(start Cell) Cell {
	cur := start
	visited := map[Cell]struct{}{cur: {}}
	for {
		d := g.At(cur)
		if d == None {
			return cur
		}
		next := cur.Step(d)
		if !g.Contains(next) {
			return cur
		}
		if _, seen := visited[next]; seen {
			return cur
		}
		visited[next] = struct{}{}
		cur = next
	}
}

// Count returns how many cells carry each direction, indexed by code.
func (g *Grid) Count() [9]int {
	var n [9]int
	for _, d := range g.dirs {
		n[d]++
	}
	return n
}

// NewGrid wraps precomputed directions in row-major order.
func NewGrid(rows, cols int, dirs []Direction) (*Grid, error) {
	if rows <= 0 || cols <= 0 || len(dirs) != rows*cols {
		return nil, ErrShape
	}
	return &Grid{rows: rows, cols: cols, dirs: dirs}, nil
}
