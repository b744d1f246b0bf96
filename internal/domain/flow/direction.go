// Package flow implements single-direction (D8) flow routing over an
// elevation raster: the per-cell steepest-descent grid, the downstream
// tracer that finds a pour point, and the point flow-path trace.
package flow

import "fmt"

// Direction is a D8 flow direction. None marks a cell with no downhill
// neighbor: pits, flats, nodata and the raster's outer ring.
type Direction uint8

// D8 codes, in the order neighbors are examined.
const (
	None Direction = iota
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	North
	NorthEast
)

// offsets holds (drow, dcol) for each direction code, indexed by code-1.
var offsets = [8][2]int{
	{0, 1},   // E
	{1, 1},   // SE
	{1, 0},   // S
	{1, -1},  // SW
	{0, -1},  // W
	{-1, -1}, // NW
	{-1, 0},  // N
	{-1, 1},  // NE
}

// Offset returns the row and column step of d; None does not move.
func (d Direction) Offset() (drow, dcol int) {
	if d == None || d > NorthEast {
		return 0, 0
	}
	o := offsets[d-1]
	return o[0], o[1]
}

func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case North:
		return "N"
	case NorthEast:
		return "NE"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Cell addresses a raster cell.
type Cell struct {
	Row, Col int
}

// Step returns the neighbor of c in direction d.
func (c Cell) Step(d Direction) Cell {
	dr, dc := d.Offset()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}
