package geometry

import (
	"image"
	"math"
)

// Tolerances used across the geometry kernel.
const (
	// parallelEps is the determinant magnitude below which two segments
	// are treated as parallel.
	parallelEps = 1e-10
	// paramEps extends the [0,1] segment-parameter range slightly so that
	// intersections landing almost exactly on an endpoint still count.
	paramEps = 1e-5
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 { return math.Hypot(b.Width(), b.Height()) }

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SignedArea computes the signed area of a polygon using the shoelace
// formula. In the y-down coordinate system used throughout, a negative
// result means the vertices run clockwise. Polygons with fewer than
// three vertices have zero area.
func SignedArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// IsClockwise reports whether the polygon's vertices run clockwise.
// Degenerate polygons (fewer than three vertices) are not clockwise.
func IsClockwise(pts []Point) bool {
	return SignedArea(pts) < 0
}

// PointInPolygon reports whether p lies inside the polygon using the
// standard ray-casting parity test. Behavior exactly on the boundary is
// not defined, only consistent.
func PointInPolygon(p Point, pts []Point) bool {
	inside := false
	n := len(pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := pts[i], pts[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// SegmentIntersection computes the intersection of segments p1-p2 and
// p3-p4. The second return value is false when the segments are parallel
// or the intersection falls outside both segments (with a small tolerance
// past the endpoints).
func SegmentIntersection(p1, p2, p3, p4 Point) (Point, bool) {
	denom := (p4.Y-p3.Y)*(p2.X-p1.X) - (p4.X-p3.X)*(p2.Y-p1.Y)
	if math.Abs(denom) < parallelEps {
		return Point{}, false
	}
	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / denom
	ub := ((p2.X-p1.X)*(p1.Y-p3.Y) - (p2.Y-p1.Y)*(p1.X-p3.X)) / denom
	if ua < -paramEps || ua > 1+paramEps || ub < -paramEps || ub > 1+paramEps {
		return Point{}, false
	}
	return Point{X: p1.X + ua*(p2.X-p1.X), Y: p1.Y + ua*(p2.Y-p1.Y)}, true
}

// PerpendicularDistance returns the distance from p to the infinite line
// through a and b. When a and b coincide it degenerates to the Euclidean
// distance from p to a.
func PerpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// BoundingBox computes the axis-aligned bounding box of the points.
// For an empty slice the zero Box is returned.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}

// Centroid returns the vertex average of the points. Sufficient as a
// representative interior point for roughly convex pieces.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	return Point{X: cx / n, Y: cy / n}
}
