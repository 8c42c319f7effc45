package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(size float64) []Point {
	return []Point{{0, 0}, {size, 0}, {size, size}, {0, size}}
}

func TestSignedArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"empty", nil, 0},
		{"single point", []Point{{1, 1}}, 0},
		{"two points", []Point{{0, 0}, {1, 1}}, 0},
		{"unit square CCW in y-down", square(1), 1},
		{"triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"collinear", []Point{{0, 0}, {1, 1}, {2, 2}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SignedArea(tt.pts), 1e-12)
		})
	}
}

func TestSignedArea_ReversalNegates(t *testing.T) {
	pts := []Point{{0.1, 0.2}, {0.9, 0.15}, {0.8, 0.7}, {0.3, 0.9}}
	rev := make([]Point, len(pts))
	for i, p := range pts {
		rev[len(pts)-1-i] = p
	}
	assert.InDelta(t, -SignedArea(pts), SignedArea(rev), 1e-12)
}

func TestIsClockwise(t *testing.T) {
	ccw := square(1)
	cw := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	assert.False(t, IsClockwise(ccw))
	assert.True(t, IsClockwise(cw))
	assert.False(t, IsClockwise(nil), "degenerate polygons are never clockwise")
	assert.False(t, IsClockwise([]Point{{0, 0}, {1, 1}}))
}

func TestPointInPolygon(t *testing.T) {
	poly := square(2)
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{1, 1}, true},
		{"outside right", Point{3, 1}, false},
		{"outside above", Point{1, -1}, false},
		{"near corner inside", Point{0.01, 0.01}, true},
		{"far away", Point{100, 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, poly))
		})
	}
}

func TestPointInPolygon_Concave(t *testing.T) {
	// An L-shape: the notch is outside.
	poly := []Point{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	assert.True(t, PointInPolygon(Point{0.5, 0.5}, poly))
	assert.True(t, PointInPolygon(Point{0.5, 1.5}, poly))
	assert.False(t, PointInPolygon(Point{1.5, 1.5}, poly))
}

func TestPointInPolygon_WindingInvariant(t *testing.T) {
	poly := []Point{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	rev := make([]Point, len(poly))
	for i, p := range poly {
		rev[len(poly)-1-i] = p
	}
	probes := []Point{{0.5, 0.5}, {1.5, 1.5}, {0.5, 1.5}, {-1, -1}, {1.9, 0.5}}
	for _, p := range probes {
		assert.Equal(t, PointInPolygon(p, poly), PointInPolygon(p, rev))
	}
}

func TestSegmentIntersection(t *testing.T) {
	t.Run("crossing diagonals", func(t *testing.T) {
		p, ok := SegmentIntersection(Point{0, 0}, Point{1, 1}, Point{0, 1}, Point{1, 0})
		require.True(t, ok)
		assert.InDelta(t, 0.5, p.X, 1e-9)
		assert.InDelta(t, 0.5, p.Y, 1e-9)
	})
	t.Run("parallel", func(t *testing.T) {
		_, ok := SegmentIntersection(Point{0, 0}, Point{1, 0}, Point{0, 1}, Point{1, 1})
		assert.False(t, ok)
	})
	t.Run("collinear", func(t *testing.T) {
		_, ok := SegmentIntersection(Point{0, 0}, Point{1, 0}, Point{2, 0}, Point{3, 0})
		assert.False(t, ok)
	})
	t.Run("lines cross outside segments", func(t *testing.T) {
		_, ok := SegmentIntersection(Point{0, 0}, Point{1, 0}, Point{5, -1}, Point{5, 1})
		assert.False(t, ok)
	})
	t.Run("intersection at shared endpoint", func(t *testing.T) {
		p, ok := SegmentIntersection(Point{0, 0}, Point{1, 1}, Point{1, 1}, Point{2, 0})
		require.True(t, ok)
		assert.InDelta(t, 1.0, p.X, 1e-9)
		assert.InDelta(t, 1.0, p.Y, 1e-9)
	})
}

func TestPerpendicularDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"above horizontal line", Point{0.5, 2}, Point{0, 0}, Point{1, 0}, 2},
		{"on the line", Point{0.5, 0}, Point{0, 0}, Point{1, 0}, 0},
		{"beyond endpoint still line distance", Point{5, 3}, Point{0, 0}, Point{1, 0}, 3},
		{"degenerate segment", Point{3, 4}, Point{0, 0}, Point{0, 0}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PerpendicularDistance(tt.p, tt.a, tt.b), 1e-12)
		})
	}
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox([]Point{{1, 5}, {-2, 3}, {4, -1}})
	assert.Equal(t, Box{MinX: -2, MinY: -1, MaxX: 4, MaxY: 5}, b)
	assert.Equal(t, Box{}, BoundingBox(nil))
	assert.InDelta(t, math.Hypot(6, 6), b.Diagonal(), 1e-12)
}

func TestBoxToRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	r := Box{MinX: 10.4, MinY: 20.6, MaxX: 30.2, MaxY: 40.9}.ToRect(bounds)
	assert.Equal(t, image.Rect(10, 20, 31, 41), r)

	// Clamped when exceeding bounds.
	r = Box{MinX: -5, MinY: -5, MaxX: 200, MaxY: 200}.ToRect(bounds)
	assert.Equal(t, bounds, r)
}

func TestCentroid(t *testing.T) {
	c := Centroid(square(2))
	assert.InDelta(t, 1.0, c.X, 1e-12)
	assert.InDelta(t, 1.0, c.Y, 1e-12)
	assert.Equal(t, Point{}, Centroid(nil))
}
