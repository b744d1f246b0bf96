// Package colormap turns normalized jet values into display colours.
package colormap

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Jet returns the classic blue-cyan-yellow-red jet colour for v in [0, 1].
// Values outside the range are clamped; NaN maps to 0.
func Jet(v float64) colorful.Color {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Min(math.Max(v, 0), 1)
	return colorful.Color{
		R: channel(4*v - 3),
		G: channel(4*v - 2),
		B: channel(4*v - 1),
	}.Clamped()
}

func channel(x float64) float64 {
	return 1.5 - math.Abs(x)
}

// Hex returns Jet(v) as a #rrggbb string.
func Hex(v float64) string {
	return Jet(v).Hex()
}
