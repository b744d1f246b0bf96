package raster_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/watershed/internal/domain/raster"
	"github.com/paulmach/orb"
	. "github.com/smartystreets/goconvey/convey"
)

var unit = raster.Transform{CellWidth: 0.01, CellHeight: 0.01, OriginLon: -100, OriginLat: 40}

func TestNew(t *testing.T) {
	Convey("Given rows of elevations with nodata samples", t, func() {
		data := [][]float64{
			{1, 2, -9999},
			{4, 5, 6},
		}
		r, err := raster.New(data, unit, -9999)

		Convey("Then nodata should become absent", func() {
			So(err, ShouldBeNil)
			So(r.Rows(), ShouldEqual, 2)
			So(r.Cols(), ShouldEqual, 3)
			So(math.IsNaN(r.At(0, 2)), ShouldBeTrue)
			So(r.Valid(0, 2), ShouldBeFalse)
			So(r.Valid(1, 2), ShouldBeTrue)
			So(data[0][2], ShouldEqual, -9999)
		})

		Convey("Then the valid range should ignore nodata", func() {
			lo, hi, ok := r.Range()
			So(ok, ShouldBeTrue)
			So(lo, ShouldEqual, 1)
			So(hi, ShouldEqual, 6)
		})
	})

	Convey("Given malformed input", t, func() {
		_, err := raster.New(nil, unit, -9999)
		So(errors.Is(err, raster.ErrEmptyRaster), ShouldBeTrue)

		_, err = raster.New([][]float64{{1, 2}, {3}}, unit, -9999)
		So(errors.Is(err, raster.ErrRaggedRaster), ShouldBeTrue)

		_, err = raster.New([][]float64{{1}}, raster.Transform{}, -9999)
		So(errors.Is(err, raster.ErrZeroCellSize), ShouldBeTrue)

		_, err = raster.NewFlat(2, 2, []float64{1, 2, 3}, unit, -9999)
		So(errors.Is(err, raster.ErrShapeMismatch), ShouldBeTrue)
	})

	Convey("Given an all-nodata raster", t, func() {
		r, err := raster.NewFlat(1, 2, []float64{-9999, -9999}, unit, -9999)
		So(err, ShouldBeNil)
		_, _, ok := r.Range()
		So(ok, ShouldBeFalse)
	})
}

func TestCoordinates(t *testing.T) {
	Convey("Given a 10x10 raster", t, func() {
		r, err := raster.NewFlat(10, 10, make([]float64, 100), unit, -9999)
		So(err, ShouldBeNil)

		Convey("Pixel corners should follow the affine transform", func() {
			p := r.Corner(2, 3)
			So(p[0], ShouldAlmostEqual, -99.97, 1e-9)
			So(p[1], ShouldAlmostEqual, 39.98, 1e-9)
		})

		Convey("Cell centers should sit half a cell in", func() {
			p := r.CellCenter(0, 0)
			So(p[0], ShouldAlmostEqual, -99.995, 1e-9)
			So(p[1], ShouldAlmostEqual, 39.995, 1e-9)
		})

		Convey("Locate should invert the transform", func() {
			row, col := r.Locate(r.CellCenter(4, 7))
			So(row, ShouldEqual, 4)
			So(col, ShouldEqual, 7)
		})

		Convey("Locate should clamp outside points to the edge", func() {
			row, col := r.Locate(orb.Point{-120, 50})
			So(row, ShouldEqual, 0)
			So(col, ShouldEqual, 0)
			row, col = r.Locate(orb.Point{-80, 10})
			So(row, ShouldEqual, 9)
			So(col, ShouldEqual, 9)
		})

		Convey("The bound should span the grid", func() {
			b := r.Bound()
			So(b.Min[0], ShouldAlmostEqual, -100, 1e-9)
			So(b.Max[0], ShouldAlmostEqual, -99.9, 1e-9)
			So(b.Min[1], ShouldAlmostEqual, 39.9, 1e-9)
			So(b.Max[1], ShouldAlmostEqual, 40, 1e-9)
		})

		Convey("The affine round trip should be lossless", func() {
			So(raster.FromAffine(unit.Affine()), ShouldResemble, unit)
		})
	})
}

func TestWindowing(t *testing.T) {
	Convey("Given a 4x4 raster numbered row-major", t, func() {
		vals := make([]float64, 16)
		for i := range vals {
			vals[i] = float64(i)
		}
		r, err := raster.NewFlat(4, 4, vals, unit, -9999)
		So(err, ShouldBeNil)

		Convey("A window should shift the origin and copy values", func() {
			w, err := r.Window(1, 2, 2, 5)
			So(err, ShouldBeNil)
			So(w.Rows(), ShouldEqual, 2)
			So(w.Cols(), ShouldEqual, 2)
			So(w.At(0, 0), ShouldEqual, 6)
			So(w.At(1, 1), ShouldEqual, 11)
			So(w.Corner(0, 0)[0], ShouldAlmostEqual, r.Corner(1, 2)[0], 1e-12)
			So(w.Corner(0, 0)[1], ShouldAlmostEqual, r.Corner(1, 2)[1], 1e-12)
		})

		Convey("A disjoint window should fail", func() {
			_, err := r.Window(10, 10, 2, 2)
			So(errors.Is(err, raster.ErrOutOfBounds), ShouldBeTrue)
			_, err = r.Clip(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
			So(errors.Is(err, raster.ErrOutOfBounds), ShouldBeTrue)
		})

		Convey("Clip should cover the requested bound", func() {
			c, err := r.Clip(orb.Bound{Min: orb.Point{-99.985, 39.965}, Max: orb.Point{-99.975, 39.985}})
			So(err, ShouldBeNil)
			So(c.Cols(), ShouldEqual, 2)
			So(c.Rows(), ShouldEqual, 3)
		})

		Convey("Keep should blank rejected cells", func() {
			k := r.Keep(func(row, col int) bool { return row == col })
			So(k.At(2, 2), ShouldEqual, 10)
			So(math.IsNaN(k.At(2, 1)), ShouldBeTrue)
			So(r.At(2, 1), ShouldEqual, 9)
		})
	})
}

func TestSynthetic(t *testing.T) {
	Convey("Given a synthetic dome", t, func() {
		r := raster.Synthetic(-105, 40, 500, raster.SyntheticSize, raster.SeedFor(-105, 40))

		Convey("It should be centred on the query and peak in the middle", func() {
			c := r.Center()
			So(c[0], ShouldAlmostEqual, -105, 1e-9)
			So(c[1], ShouldAlmostEqual, 40, 1e-9)
			So(r.At(25, 25), ShouldBeGreaterThan, r.At(0, 0))
			lo, hi, ok := r.Range()
			So(ok, ShouldBeTrue)
			So(hi, ShouldBeLessThanOrEqualTo, 205)
			So(lo, ShouldBeGreaterThanOrEqualTo, 200-50*math.Sqrt2)
		})

		Convey("It should be deterministic for a seed", func() {
			again := raster.Synthetic(-105, 40, 500, raster.SyntheticSize, raster.SeedFor(-105, 40))
			So(again.ValidValues(), ShouldResemble, r.ValidValues())
		})
	})
}
