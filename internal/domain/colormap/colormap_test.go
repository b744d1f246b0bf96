package colormap_test

import (
	"math"
	"testing"

	"github.com/okian/watershed/internal/domain/colormap"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJet(t *testing.T) {
	Convey("Given jet values across the range", t, func() {
		Convey("The ends should be dark blue and dark red", func() {
			So(colormap.Hex(0), ShouldEqual, "#000080")
			So(colormap.Hex(1), ShouldEqual, "#800000")
		})

		Convey("The middle should be green-dominated", func() {
			c := colormap.Jet(0.5)
			So(c.G, ShouldEqual, 1)
			So(c.R, ShouldBeLessThan, 1)
			So(c.B, ShouldBeLessThan, 1)
		})

		Convey("Out of range values should clamp", func() {
			So(colormap.Hex(-3), ShouldEqual, colormap.Hex(0))
			So(colormap.Hex(7), ShouldEqual, colormap.Hex(1))
			So(colormap.Hex(math.NaN()), ShouldEqual, colormap.Hex(0))
		})
	})
}
