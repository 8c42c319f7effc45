package decompose

import (
	"math"

	"github.com/MeKo-Tech/cutout/internal/geometry"
)

// Clipping tolerances.
const (
	// onLineEps is the signed-distance band within which a vertex is
	// treated as lying exactly on the cut line.
	onLineEps = 1e-5
	// dedupeEps is the distance under which consecutive output points
	// are merged.
	dedupeEps = 1e-4
)

func samePoint(a, b geometry.Point) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) < dedupeEps
}

// cleanPolygon drops consecutive near-duplicate points and a trailing
// point that nearly duplicates the first.
func cleanPolygon(pts []geometry.Point) []geometry.Point {
	out := pts[:0:len(pts)]
	for _, p := range pts {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) >= 2 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// splitByLine clips the polygon by the infinite line through p with
// direction angle, returning the half on each side of the line and the
// chord length between the two farthest-apart intersection points.
// ok is false when either half degenerates or fewer than two distinct
// intersections were produced.
func splitByLine(poly []geometry.Point, p geometry.Point, angle float64) (front, back []geometry.Point, chord float64, ok bool) {
	if len(poly) < 3 {
		return nil, nil, 0, false
	}
	// Unit normal of the cut line; signed distance is the dot product
	// with the offset from p.
	nx := -math.Sin(angle)
	ny := math.Cos(angle)
	dist := func(v geometry.Point) float64 {
		return (v.X-p.X)*nx + (v.Y-p.Y)*ny
	}

	var frontPts, backPts, crossings []geometry.Point
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		da := dist(a)
		db := dist(b)

		switch {
		case math.Abs(da) <= onLineEps:
			// On-line vertices belong to both halves and count as
			// crossings.
			frontPts = append(frontPts, a)
			backPts = append(backPts, a)
			crossings = append(crossings, a)
		case da > 0:
			frontPts = append(frontPts, a)
		default:
			backPts = append(backPts, a)
		}

		if math.Abs(da) > onLineEps && math.Abs(db) > onLineEps && (da > 0) != (db > 0) {
			t := da / (da - db)
			ip := geometry.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
			frontPts = append(frontPts, ip)
			backPts = append(backPts, ip)
			crossings = append(crossings, ip)
		}
	}

	front = cleanPolygon(frontPts)
	back = cleanPolygon(backPts)
	if len(front) < 3 || len(back) < 3 {
		return nil, nil, 0, false
	}

	chord = maxPairDistance(crossings)
	if countDistinct(crossings) < 2 {
		return nil, nil, 0, false
	}
	return front, back, chord, true
}

func countDistinct(pts []geometry.Point) int {
	n := 0
	for i, p := range pts {
		dup := false
		for _, q := range pts[:i] {
			if samePoint(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			n++
		}
	}
	return n
}

func maxPairDistance(pts []geometry.Point) float64 {
	best := 0.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			d := math.Hypot(pts[i].X-pts[j].X, pts[i].Y-pts[j].Y)
			if d > best {
				best = d
			}
		}
	}
	return best
}

// ClipPolygon clips the subject polygon against a convex clip polygon
// using a Sutherland-Hodgman pass per clip edge. The clip polygon may be
// wound either way; its winding is detected and the inside test flipped
// accordingly. Degenerate inputs yield an empty result.
func ClipPolygon(subject, clip []geometry.Point) []geometry.Point {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}
	// For CCW clip polygons (positive area in y-down coordinates) the
	// interior is to the left of each directed edge.
	sign := 1.0
	if geometry.IsClockwise(clip) {
		sign = -1.0
	}

	out := append([]geometry.Point(nil), subject...)
	for i := range clip {
		if len(out) == 0 {
			return nil
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]
		out = clipAgainstEdge(out, a, b, sign)
	}
	out = cleanPolygon(out)
	if len(out) < 3 {
		return nil
	}
	return out
}

// clipAgainstEdge keeps the part of the polygon inside the half-plane to
// the interior side of edge a-b.
func clipAgainstEdge(poly []geometry.Point, a, b geometry.Point, sign float64) []geometry.Point {
	inside := func(p geometry.Point) bool {
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		return sign*cross >= -onLineEps
	}

	var out []geometry.Point
	for i := range poly {
		cur := poly[i]
		next := poly[(i+1)%len(poly)]
		curIn := inside(cur)
		nextIn := inside(next)

		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			if ip, ok := geometry.SegmentIntersection(cur, next, a, b); ok {
				out = append(out, ip)
			} else if ip, ok := lineIntersection(cur, next, a, b); ok {
				// The clip edge is finite but acts as an infinite
				// half-plane boundary; fall back to the line form.
				out = append(out, ip)
			}
		}
	}
	return out
}

// lineIntersection intersects the segment p1-p2 with the infinite line
// through p3-p4.
func lineIntersection(p1, p2, p3, p4 geometry.Point) (geometry.Point, bool) {
	denom := (p4.Y-p3.Y)*(p2.X-p1.X) - (p4.X-p3.X)*(p2.Y-p1.Y)
	if math.Abs(denom) < 1e-10 {
		return geometry.Point{}, false
	}
	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / denom
	return geometry.Point{X: p1.X + ua*(p2.X-p1.X), Y: p1.Y + ua*(p2.Y-p1.Y)}, true
}
