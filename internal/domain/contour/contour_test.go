package contour_test

import (
	"testing"

	"github.com/okian/watershed/internal/domain/contour"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

var tf = raster.Transform{CellWidth: 0.01, CellHeight: 0.01, OriginLon: 5, OriginLat: 45}

// ramp rises 10 m per column from 0 to 100.
func ramp() *raster.Raster {
	rows, cols := 5, 11
	vals := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			vals[r*cols+c] = float64(c * 10)
		}
	}
	out, err := raster.NewFlat(rows, cols, vals, tf, raster.DefaultNodata)
	if err != nil {
		panic(err)
	}
	return out
}

func TestLevels(t *testing.T) {
	Convey("Given a 0..100 range and a 10 m interval", t, func() {
		So(contour.Levels(0, 100, 10), ShouldResemble,
			[]float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100})
	})

	Convey("Given a range between multiples", t, func() {
		So(contour.Levels(3, 27, 10), ShouldResemble, []float64{10, 20})
		So(contour.Levels(-12, -1, 5), ShouldResemble, []float64{-10, -5})
	})

	Convey("Given invalid inputs", t, func() {
		So(contour.Levels(0, 10, 0), ShouldBeEmpty)
		So(contour.Levels(10, 0, 1), ShouldBeEmpty)
	})
}

func TestJet(t *testing.T) {
	Convey("Jet values should normalize into [0, 1]", t, func() {
		So(contour.Jet(0, 0, 100), ShouldEqual, 0)
		So(contour.Jet(100, 0, 100), ShouldEqual, 1)
		So(contour.Jet(33.333333, 0, 100), ShouldEqual, 0.3333)
		So(contour.Jet(5, 5, 5), ShouldEqual, 0)
	})
}

func TestExtract(t *testing.T) {
	Convey("Given a ramp from 0 to 100", t, func() {
		set, err := contour.Extract(ramp(), 10)
		So(err, ShouldBeNil)

		Convey("The range should be reported", func() {
			So(set.Min, ShouldEqual, 0)
			So(set.Max, ShouldEqual, 100)
			So(set.Interval, ShouldEqual, 10)
		})

		Convey("Each traced level should give one line across the rows", func() {
			So(len(set.Lines), ShouldEqual, 10)
			for i, l := range set.Lines {
				So(l.Level, ShouldEqual, float64(i*10))
				So(len(l.Path), ShouldEqual, 5)
				So(l.Path[0][0], ShouldAlmostEqual, 5+float64(i)*0.01, 1e-9)
			}
		})

		Convey("Jet values should lie in [0, 1] and increase with level", func() {
			So(set.Lines[0].Jet, ShouldEqual, 0)
			for i, l := range set.Lines {
				So(l.Jet, ShouldBeBetweenOrEqual, 0, 1)
				if i > 0 {
					So(l.Jet, ShouldBeGreaterThan, set.Lines[i-1].Jet)
				}
			}
		})

		Convey("Every level should be one of the generated levels", func() {
			levels := contour.Levels(0, 100, 10)
			for _, l := range set.Lines {
				So(levels, ShouldContain, l.Level)
			}
		})
	})

	Convey("Given a single peak", t, func() {
		vals := make([]float64, 25)
		vals[12] = 10
		r, _ := raster.NewFlat(5, 5, vals, tf, raster.DefaultNodata)

		Convey("The mid level should trace a closed loop", func() {
			lines := contour.Trace(r, 5)
			So(len(lines), ShouldEqual, 1)
			So(len(lines[0]), ShouldEqual, 5)
			So(lines[0][0], ShouldResemble, lines[0][4])
		})
	})

	Convey("Given nodata between two halves", t, func() {
		r := ramp()
		cut := r.Keep(func(row, col int) bool { return row != 2 })

		Convey("Lines should break at the nodata row", func() {
			lines := contour.Trace(cut, 45)
			So(len(lines), ShouldEqual, 2)
			for _, l := range lines {
				So(len(l), ShouldEqual, 2)
			}
		})
	})

	Convey("Given bad input", t, func() {
		_, err := contour.Extract(ramp(), 0)
		So(err, ShouldEqual, contour.ErrInterval)

		empty, _ := raster.NewFlat(2, 2, []float64{-9999, -9999, -9999, -9999}, tf, raster.DefaultNodata)
		_, err = contour.Extract(empty, 10)
		So(err, ShouldEqual, contour.ErrNoData)
	})
}

func TestClip(t *testing.T) {
	Convey("Given a line crossing a bound", t, func() {
		lines := []contour.Line{
			{Level: 10, Jet: 0.5, Path: orb.LineString{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
			{Level: 20, Jet: 1, Path: orb.LineString{{0, 0}, {5, 5}}},
		}
		b := orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{2.5, 2.5}}

		Convey("Only inside vertices should remain", func() {
			out := contour.Clip(lines, b)
			So(len(out), ShouldEqual, 1)
			So(out[0].Path, ShouldResemble, orb.LineString{{1, 1}, {2, 2}})
			So(out[0].Level, ShouldEqual, 10)
		})
	})
}
