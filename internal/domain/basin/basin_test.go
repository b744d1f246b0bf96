package basin_test

import (
	"math"
	"testing"

	"github.com/okian/watershed/internal/domain/basin"
	"github.com/okian/watershed/internal/domain/flow"
	"github.com/okian/watershed/internal/domain/geodesy"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

var tf = raster.Transform{CellWidth: 0.001, CellHeight: 0.001, OriginLon: -90, OriginLat: 35}

func mustFlat(rows, cols int, vals []float64) *raster.Raster {
	r, err := raster.NewFlat(rows, cols, vals, tf, raster.DefaultNodata)
	if err != nil {
		panic(err)
	}
	return r
}

// bowl returns an n x n raster with its minimum at cell (n/2, n/2).
func bowl(n int) *raster.Raster {
	c := float64(n / 2)
	vals := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			vals[r*n+col] = 100 + 5*math.Hypot(float64(r)-c, float64(col)-c)
		}
	}
	return mustFlat(n, n, vals)
}

func TestDelineate(t *testing.T) {
	Convey("Given a 20x20 bowl", t, func() {
		r := bowl(20)
		g := flow.Compute(r)
		outlet := g.Trace(flow.Cell{Row: 4, Col: 15})
		m := basin.Delineate(g, outlet)

		Convey("The outlet should be the center cell", func() {
			So(outlet, ShouldResemble, flow.Cell{Row: 10, Col: 10})
		})

		Convey("Every interior cell should belong to the basin", func() {
			So(m.Size(), ShouldEqual, 18*18)
			So(m.Contains(outlet), ShouldBeTrue)
			So(m.Contains(flow.Cell{Row: 0, Col: 0}), ShouldBeFalse)
			So(m.Contains(flow.Cell{Row: -1, Col: 3}), ShouldBeFalse)
			So(m.Degenerate(), ShouldBeFalse)
		})

		Convey("Every member should trace to the outlet", func() {
			limit := r.Rows() * r.Cols()
			for _, c := range m.Cells() {
				cur, steps := c, 0
				for cur != outlet && steps <= limit {
					cur = cur.Step(g.At(cur))
					steps++
				}
				So(cur, ShouldResemble, outlet)
			}
		})

		Convey("Repeated delineation should be identical", func() {
			again := basin.Delineate(g, outlet)
			So(again.Equal(m), ShouldBeTrue)
			r1, ok1 := basin.Boundary(r, m)
			r2, ok2 := basin.Boundary(r, again)
			So(ok1 && ok2, ShouldBeTrue)
			So(r2, ShouldResemble, r1)
		})

		Convey("The boundary should be a closed ring with positive area", func() {
			ring, ok := basin.Boundary(r, m)
			So(ok, ShouldBeTrue)
			So(ring.Closed(), ShouldBeTrue)
			So(geodesy.AreaHectares(ring), ShouldBeGreaterThan, 0)
		})

		Convey("The basin should have a positive path, slope and Tc", func() {
			length, slope := basin.LongestPath(r, g, m)
			So(length, ShouldBeGreaterThan, 0)
			So(slope, ShouldBeGreaterThan, basin.MinSlope)
			So(basin.Kirpich(length, slope), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a flat raster", t, func() {
		vals := make([]float64, 100)
		for i := range vals {
			vals[i] = 7
		}
		r := mustFlat(10, 10, vals)
		g := flow.Compute(r)

		Convey("Every basin should be degenerate", func() {
			for row := 0; row < 10; row++ {
				for col := 0; col < 10; col++ {
					c := flow.Cell{Row: row, Col: col}
					m := basin.Delineate(g, g.Trace(c))
					So(m.Degenerate(), ShouldBeTrue)
					_, ok := basin.Boundary(r, m)
					So(ok, ShouldBeFalse)
				}
			}
		})

		Convey("The single-cell basin has no path", func() {
			m := basin.Delineate(g, flow.Cell{Row: 5, Col: 5})
			length, slope := basin.LongestPath(r, g, m)
			So(length, ShouldEqual, 0)
			So(slope, ShouldEqual, basin.MinSlope)
		})
	})

	Convey("Given a straight channel", t, func() {
		r := mustFlat(3, 6, []float64{
			20, 20, 20, 20, 20, 20,
			10, 9, 8, 7, 6, 5,
			20, 20, 20, 20, 20, 20,
		})
		g := flow.Compute(r)
		outlet := g.Trace(flow.Cell{Row: 1, Col: 1})
		m := basin.Delineate(g, outlet)

		Convey("The basin should be the channel cells", func() {
			So(outlet, ShouldResemble, flow.Cell{Row: 1, Col: 5})
			So(m.Size(), ShouldEqual, 5)
		})

		Convey("A collinear basin has no boundary", func() {
			_, ok := basin.Boundary(r, m)
			So(ok, ShouldBeFalse)
		})

		Convey("The path should count one cell size per step", func() {
			cell := geodesy.CellSize(0.001, 0.001, r.Center()[1])
			length, slope := basin.LongestPath(r, g, m)
			So(length, ShouldAlmostEqual, 4*cell, 1e-6)
			So(slope, ShouldAlmostEqual, 4/(4*cell), 1e-9)
		})
	})
}

func TestCycles(t *testing.T) {
	Convey("Given a two-cell direction cycle", t, func() {
		r := mustFlat(1, 2, []float64{10, 10})
		g, err := flow.NewGrid(1, 2, []flow.Direction{flow.East, flow.West})
		So(err, ShouldBeNil)
		outlet := g.Trace(flow.Cell{Row: 0, Col: 0})
		m := basin.Delineate(g, outlet)

		Convey("The mask should hold each cell once", func() {
			So(outlet, ShouldResemble, flow.Cell{Row: 0, Col: 1})
			So(m.Size(), ShouldEqual, 2)
			So(m.Cells(), ShouldResemble, []flow.Cell{{Row: 0, Col: 1}, {Row: 0, Col: 0}})
		})

		Convey("The path should stop after one step", func() {
			cell := geodesy.CellSize(0.001, 0.001, r.Center()[1])
			length, slope := basin.LongestPath(r, g, m)
			So(length, ShouldAlmostEqual, cell, 1e-6)
			So(slope, ShouldEqual, basin.MinSlope)
		})
	})

	Convey("Given a four-cell loop", t, func() {
		r := mustFlat(2, 2, []float64{4, 3, 1, 2})
		g, err := flow.NewGrid(2, 2, []flow.Direction{flow.East, flow.South, flow.North, flow.West})
		So(err, ShouldBeNil)
		outlet := g.Trace(flow.Cell{Row: 0, Col: 0})
		m := basin.Delineate(g, outlet)

		Convey("The trace should stop on the last cell before the start", func() {
			So(outlet, ShouldResemble, flow.Cell{Row: 1, Col: 0})
			So(m.Size(), ShouldEqual, 4)
		})

		Convey("The path should walk the loop once back to the outlet", func() {
			cell := geodesy.CellSize(0.001, 0.001, r.Center()[1])
			length, slope := basin.LongestPath(r, g, m)
			So(length, ShouldAlmostEqual, 3*cell, 1e-6)
			So(slope, ShouldAlmostEqual, 3/(3*cell), 1e-9)
		})
	})
}

func TestConvexHull(t *testing.T) {
	Convey("Given a square with interior, edge and duplicate points", t, func() {
		pts := []orb.Point{
			{1, 1}, {0, 0}, {2, 0}, {2, 2}, {0, 2},
			{1, 0}, {0, 1}, {1, 1}, {0.5, 1.5}, {2, 2},
		}
		hull := basin.ConvexHull(pts)

		Convey("Only the corners should remain, counter-clockwise from the lowest", func() {
			So(hull, ShouldResemble, []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
		})
	})

	Convey("Given two points", t, func() {
		So(len(basin.ConvexHull([]orb.Point{{0, 0}, {1, 1}, {0, 0}})), ShouldEqual, 2)
	})
}

func TestKirpich(t *testing.T) {
	Convey("Given L = 1000 m and S = 0.01", t, func() {
		tc := basin.Kirpich(1000, 0.01)

		Convey("Tc should match the closed form", func() {
			So(tc, ShouldAlmostEqual, 0.0078*math.Pow(1000, 0.77)*math.Pow(0.01, -0.385), 1e-12)
			So(tc, ShouldAlmostEqual, 9.3777, 1e-4)
		})
	})

	Convey("Given non-positive inputs", t, func() {
		So(basin.Kirpich(0, 0.01), ShouldEqual, 0)
		So(basin.Kirpich(-5, 0.01), ShouldEqual, 0)
		So(basin.Kirpich(1000, 0), ShouldEqual, 0)
	})
}
