package flow_test

import (
	"math"
	"testing"

	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/raster"
	. "github.com/smartystreets/goconvey/convey"
)

var tf = raster.Transform{CellWidth: 0.001, CellHeight: 0.001, OriginLon: 10, OriginLat: 50}

// bowl returns an n x n raster whose elevation is the squared distance to
// the center cell.
func bowl(n int) *raster.Raster {
	c := n / 2
	vals := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			vals[r*n+col] = float64((r-c)*(r-c) + (col-c)*(col-c))
		}
	}
	out, err := raster.NewFlat(n, n, vals, tf, raster.DefaultNodata)
	if err != nil {
		panic(err)
	}
	return out
}

func grid3(vals ...float64) *raster.Raster {
	out, err := raster.NewFlat(3, 3, vals, tf, raster.DefaultNodata)
	if err != nil {
		panic(err)
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given a 5x5 bowl", t, func() {
		g := flow.Compute(bowl(5))

		Convey("Interior cells should point at the center", func() {
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.SouthEast)
			So(g.At(flow.Cell{Row: 2, Col: 1}), ShouldEqual, flow.East)
			So(g.At(flow.Cell{Row: 1, Col: 2}), ShouldEqual, flow.South)
			So(g.At(flow.Cell{Row: 3, Col: 3}), ShouldEqual, flow.NorthWest)
		})

		Convey("The pit and the outer ring should have no direction", func() {
			So(g.At(flow.Cell{Row: 2, Col: 2}), ShouldEqual, flow.None)
			for i := 0; i < 5; i++ {
				So(g.At(flow.Cell{Row: 0, Col: i}), ShouldEqual, flow.None)
				So(g.At(flow.Cell{Row: 4, Col: i}), ShouldEqual, flow.None)
				So(g.At(flow.Cell{Row: i, Col: 0}), ShouldEqual, flow.None)
				So(g.At(flow.Cell{Row: i, Col: 4}), ShouldEqual, flow.None)
			}
		})

		Convey("Upstream should list all eight neighbors of the pit", func() {
			var n int
			g.Upstream(flow.Cell{Row: 2, Col: 2}, func(flow.Cell) { n++ })
			So(n, ShouldEqual, 8)
		})
	})

	Convey("Given equal drops in several directions", t, func() {
		Convey("East should win over South", func() {
			g := flow.Compute(grid3(
				10, 10, 10,
				10, 10, 5,
				10, 5, 10,
			))
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.East)
		})

		Convey("SouthEast should win over NorthEast", func() {
			g := flow.Compute(grid3(
				10, 10, 5,
				10, 10, 10,
				10, 10, 5,
			))
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.SouthEast)
		})

		Convey("A strictly larger drop should win regardless of order", func() {
			g := flow.Compute(grid3(
				1, 10, 10,
				10, 10, 5,
				10, 10, 10,
			))
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.NorthWest)
		})
	})

	Convey("Given a flat raster", t, func() {
		vals := make([]float64, 36)
		for i := range vals {
			vals[i] = 42
		}
		r, _ := raster.NewFlat(6, 6, vals, tf, raster.DefaultNodata)
		g := flow.Compute(r)

		Convey("Every cell should have no direction", func() {
			So(g.Count()[flow.None], ShouldEqual, 36)
		})
	})

	Convey("Given nodata cells", t, func() {
		Convey("A nodata center gets no direction", func() {
			g := flow.Compute(grid3(
				1, 1, 1,
				1, raster.DefaultNodata, 1,
				1, 1, 1,
			))
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.None)
		})

		Convey("A nodata neighbor is never a target", func() {
			g := flow.Compute(grid3(
				10, 10, 10,
				10, 10, raster.DefaultNodata,
				10, 9, 10,
			))
			So(g.At(flow.Cell{Row: 1, Col: 1}), ShouldEqual, flow.South)
		})
	})
}

func TestTrace(t *testing.T) {
	Convey("Given a bowl", t, func() {
		g := flow.Compute(bowl(7))

		Convey("Any interior start should reach the pit", func() {
			So(g.Trace(flow.Cell{Row: 1, Col: 5}), ShouldResemble, flow.Cell{Row: 3, Col: 3})
			So(g.Trace(flow.Cell{Row: 3, Col: 3}), ShouldResemble, flow.Cell{Row: 3, Col: 3})
		})

		Convey("An edge start is its own outlet", func() {
			So(g.Trace(flow.Cell{Row: 0, Col: 0}), ShouldResemble, flow.Cell{Row: 0, Col: 0})
		})
	})

	Convey("Given a direction leaving the grid", t, func() {
		g, err := flow.NewGrid(1, 2, []flow.Direction{flow.West, flow.None})
		So(err, ShouldBeNil)
		So(g.Trace(flow.Cell{Row: 0, Col: 0}), ShouldResemble, flow.Cell{Row: 0, Col: 0})
	})

	Convey("Given a two-cell cycle", t, func() {
		g, err := flow.NewGrid(1, 2, []flow.Direction{flow.East, flow.West})
		So(err, ShouldBeNil)

		Convey("The trace should stop before revisiting", func() {
			So(g.Trace(flow.Cell{Row: 0, Col: 0}), ShouldResemble, flow.Cell{Row: 0, Col: 1})
		})
	})

	Convey("Given a four-cell loop", t, func() {
		g, err := flow.NewGrid(2, 2, []flow.Direction{flow.East, flow.South, flow.North, flow.West})
		So(err, ShouldBeNil)

		Convey("Every start should stop on the cell before itself", func() {
			So(g.Trace(flow.Cell{Row: 0, Col: 0}), ShouldResemble, flow.Cell{Row: 1, Col: 0})
			So(g.Trace(flow.Cell{Row: 1, Col: 1}), ShouldResemble, flow.Cell{Row: 0, Col: 1})
		})

		Convey("Each cell should have exactly one upstream neighbor", func() {
			var ups []flow.Cell
			g.Upstream(flow.Cell{Row: 1, Col: 0}, func(c flow.Cell) { ups = append(ups, c) })
			So(ups, ShouldResemble, []flow.Cell{{Row: 1, Col: 1}})
		})
	})

	Convey("Given a mismatched direction slice", t, func() {
		_, err := flow.NewGrid(2, 2, []flow.Direction{flow.None})
		So(err, ShouldEqual, flow.ErrShape)
	})
}

func TestTracePath(t *testing.T) {
	Convey("Given a 5x5 bowl", t, func() {
		r := bowl(5)

		Convey("A path from the corner should descend to the center", func() {
			p := flow.TracePath(r, r.CellCenter(0, 0), 0)
			So(len(p.Line), ShouldEqual, 3)
			So(p.Line[2][0], ShouldAlmostEqual, r.Corner(2, 2)[0], 1e-6)
			So(p.Line[2][1], ShouldAlmostEqual, r.Corner(2, 2)[1], 1e-6)
			So(p.DistanceM, ShouldBeGreaterThan, 0)
			So(p.ReachesStream, ShouldBeFalse)
		})

		Convey("The step budget should cap the vertex count", func() {
			p := flow.TracePath(r, r.CellCenter(0, 0), 2)
			So(len(p.Line), ShouldEqual, 2)
		})
	})

	Convey("Given a start on nodata", t, func() {
		r := grid3(
			1, 1, 1,
			1, raster.DefaultNodata, 1,
			1, 1, 1,
		)
		p := flow.TracePath(r, r.CellCenter(1, 1), 0)

		Convey("The path should be the start corner only", func() {
			So(len(p.Line), ShouldEqual, 1)
			So(p.DistanceM, ShouldEqual, 0)
			So(math.IsNaN(p.DistanceM), ShouldBeFalse)
		})
	})
}
