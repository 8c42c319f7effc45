package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyPolygon_RemovesCollinear(t *testing.T) {
	pts := []Point{{0, 0}, {0.5, 0}, {1, 0}, {1, 1}, {0, 1}}
	out := SimplifyPolygon(pts, 0.01)
	assert.Equal(t, []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, out)
}

func TestSimplifyPolygon_KeepsSignificantDetail(t *testing.T) {
	// A spike well above tolerance must survive.
	pts := []Point{{0, 0}, {0.5, 0.2}, {1, 0}, {1, 1}, {0, 1}}
	out := SimplifyPolygon(pts, 0.01)
	assert.Contains(t, out, Point{0.5, 0.2})
}

func TestSimplifyPolygon_ShortInputsUnchanged(t *testing.T) {
	for _, pts := range [][]Point{nil, {{1, 2}}, {{0, 0}, {1, 1}}} {
		out := SimplifyPolygon(pts, 0.5)
		assert.Equal(t, pts, out)
	}
}

func TestSimplifyPolygon_ZeroToleranceCopies(t *testing.T) {
	pts := []Point{{0, 0}, {0.5, 0}, {1, 0}}
	out := SimplifyPolygon(pts, 0)
	assert.Equal(t, pts, out)
	// Must be a copy, not an alias.
	out[0].X = 42
	assert.Equal(t, 0.0, pts[0].X)
}

func TestSimplifyPolygon_NeverIncreasesPoints(t *testing.T) {
	pts := noisyCircle(64, 0.4)
	for _, tol := range []float64{0, 1e-4, 1e-3, 1e-2, 0.1, 1} {
		out := SimplifyPolygon(pts, tol)
		assert.LessOrEqual(t, len(out), len(pts), "tolerance %v", tol)
	}
}

func TestSimplifyPolygon_Idempotent(t *testing.T) {
	pts := noisyCircle(128, 0.45)
	for _, tol := range []float64{1e-3, DefaultSimplifyTolerance, 0.02} {
		once := SimplifyPolygon(pts, tol)
		twice := SimplifyPolygon(once, tol)
		require.Equal(t, once, twice, "tolerance %v", tol)
	}
}

// noisyCircle returns a closed polygon approximating a circle centered at
// (0.5, 0.5) with a small deterministic radial perturbation.
func noisyCircle(n int, radius float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := radius + 0.01*math.Sin(7*a)
		pts[i] = Point{X: 0.5 + r*math.Cos(a), Y: 0.5 + r*math.Sin(a)}
	}
	return pts
}
