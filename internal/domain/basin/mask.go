// Package basin delineates drainage basins on a D8 flow grid and derives
// their geometry and hydrological metrics.
package basin

import "github.com/okian/watershed/internal/domain/flow"

// MinCells is the smallest basin considered non-degenerate.
const MinCells = 3

// Mask marks the cells that drain to an outlet.
type Mask struct {
	rows, cols int
	in         []bool
	cells      []flow.Cell
	outlet     flow.Cell
}

// Delineate collects every cell whose flow reaches outlet by breadth-first
// search over the inverse flow relation. Each cell is enqueued at most once,
// so the search ends even if the grid contains direction cycles.
func Delineate(g *flow.Grid, outlet flow.Cell) *Mask {
	m := &Mask{
		rows:   g.Rows(),
		cols:   g.Cols(),
		in:     make([]bool, g.Rows()*g.Cols()),
		outlet: outlet,
	}
	m.add(outlet)

	for head := 0; head < len(m.cells); head++ {
		g.Upstream(m.cells[head], func(n flow.Cell) {
			if !m.Contains(n) {
				m.add(n)
			}
		})
	}
	return m
}

func (m *Mask) add(c flow.Cell) {
	m.in[c.Row*m.cols+c.Col] = true
	m.cells = append(m.cells, c)
}

// Contains reports whether c belongs to the basin.
func (m *Mask) Contains(c flow.Cell) bool {
	if c.Row < 0 || c.Row >= m.rows || c.Col < 0 || c.Col >= m.cols {
		return false
	}
	return m.in[c.Row*m.cols+c.Col]
}

// Outlet returns the pour point the basin was delineated from.
func (m *Mask) Outlet() flow.Cell { return m.outlet }

// Size returns the number of member cells.
func (m *Mask) Size() int { return len(m.cells) }

// Cells returns the members in discovery order, outlet first.
func (m *Mask) Cells() []flow.Cell { return m.cells }

// Degenerate reports whether the basin is too small to describe an area.
func (m *Mask) Degenerate() bool { return len(m.cells) < MinCells }

// Equal reports whether both masks select the same cells.
func (m *Mask) Equal(o *Mask) bool {
	if m.rows != o.rows || m.cols != o.cols || m.outlet != o.outlet {
		return false
	}
	for i := range m.in {
		if m.in[i] != o.in[i] {
			return false
		}
	}
	return true
}
