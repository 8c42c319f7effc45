package geometry

// DefaultSimplifyTolerance is the Douglas-Peucker tolerance applied to
// traced silhouettes, in normalized units.
const DefaultSimplifyTolerance = 0.0025

// SimplifyPolygon reduces the number of points in a closed polygon using
// the Douglas–Peucker algorithm with the given tolerance. The polygon is
// treated as an open path from the first to the last vertex; the implicit
// closing edge is never simplified away, so the first and last vertices
// are always kept.
func SimplifyPolygon(pts []Point, tolerance float64) []Point {
	if len(pts) <= 2 || tolerance <= 0 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	dpSimplify(pts, 0, len(pts)-1, tolerance, keep)
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// dpSimplify marks the interior points of pts[start..end] that survive
// simplification. Endpoints are handled by the caller.
func dpSimplify(pts []Point, start, end int, tolerance float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a, b := pts[start], pts[end]
	for i := start + 1; i < end; i++ {
		d := PerpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > tolerance {
		dpSimplify(pts, start, index, tolerance, keep)
		keep[index] = true
		dpSimplify(pts, index, end, tolerance, keep)
	}
}
