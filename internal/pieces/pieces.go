// Package pieces assigns presentation attributes to decomposed polygons
// and maps them to the persisted JSON format and back to raster space.
package pieces

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/cutout/internal/geometry"
)

// Piece is one puzzle piece: a simple polygon in normalized coordinates
// plus the attributes the editor renders with.
type Piece struct {
	// ID is stable and sequential within one decomposition run.
	ID int
	// Polygon holds at least three normalized vertices.
	Polygon []geometry.Point
	// Color is a #rrggbb display color.
	Color string
	// Start is where the piece initially sits on the board. Rendering
	// only; never used by geometry.
	Start geometry.Point
}

// startJitter is the maximum offset applied to a piece's start position
// around its centroid, in normalized units.
const startJitter = 0.05

// Assemble turns decomposed polygons into pieces with sequential IDs,
// hue-spaced display colors and jittered start positions. The rng drives
// only presentation attributes, never geometry.
func Assemble(polys [][]geometry.Point, rng *rand.Rand) []Piece {
	out := make([]Piece, 0, len(polys))
	for i, poly := range polys {
		c := geometry.Centroid(poly)
		start := geometry.Point{
			X: clamp01(c.X + (rng.Float64()*2-1)*startJitter),
			Y: clamp01(c.Y + (rng.Float64()*2-1)*startJitter),
		}
		out = append(out, Piece{
			ID:      i + 1,
			Polygon: poly,
			Color:   paletteColor(i, len(polys)),
			Start:   start,
		})
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// paletteColor spaces hues evenly around the circle so neighboring IDs
// get visually distinct colors.
func paletteColor(i, n int) string {
	if n <= 0 {
		n = 1
	}
	hue := 360.0 * float64(i) / float64(n)
	r, g, b := hslToRGB(hue, 0.65, 0.55)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// hslToRGB converts hue (degrees), saturation and lightness in [0,1] to
// 8-bit RGB channels.
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return uint8(math.Round((r + m) * 255)),
		uint8(math.Round((g + m) * 255)),
		uint8(math.Round((b + m) * 255))
}
