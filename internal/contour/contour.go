// Package contour extracts the boundary of a binary mask as a closed
// polygon in normalized coordinates using marching squares over 2x2
// pixel cells and a segment-graph walk.
package contour

import (
	"errors"
	"math"

	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/MeKo-Tech/cutout/internal/mask"
)

// ErrNoClosedLoop is returned when marching squares produces no closed
// boundary of at least three points.
var ErrNoClosedLoop = errors.New("no closed contour found in mask")

// pointQuantum is the coordinate tolerance used to deduplicate segment
// endpoints when assembling the graph.
const pointQuantum = 1e-4

// Trace extracts the silhouette of the mask. Pixels are treated as grid
// points; cells one pixel beyond the mask border are included so regions
// touching the border still yield closed loops. Among all closed loops
// the one with the largest absolute area (after normalization by the
// mask dimensions) is returned, with vertices clamped to [0, 1].
func Trace(m *mask.Mask) ([]geometry.Point, error) {
	g := newSegmentGraph()
	collectSegments(m, g)

	loops := g.closedLoops()
	if len(loops) == 0 {
		return nil, ErrNoClosedLoop
	}

	best := -1
	bestArea := 0.0
	normalized := make([][]geometry.Point, len(loops))
	for i, loop := range loops {
		normalized[i] = normalize(loop, m.W, m.H)
		a := math.Abs(geometry.SignedArea(normalized[i]))
		if a > bestArea {
			bestArea = a
			best = i
		}
	}
	if best < 0 || bestArea == 0 {
		return nil, ErrNoClosedLoop
	}
	return normalized[best], nil
}

// collectSegments runs marching squares over every 2x2 cell, including a
// one-cell apron around the mask so border subjects close properly.
func collectSegments(m *mask.Mask, g *segmentGraph) {
	for y := -1; y < m.H; y++ {
		for x := -1; x < m.W; x++ {
			emitCellSegments(m, x, y, g)
		}
	}
}

// emitCellSegments adds the 0, 1 or 2 boundary segments for the cell
// whose corners are the pixels (x,y), (x+1,y), (x,y+1) and (x+1,y+1).
func emitCellSegments(m *mask.Mask, x, y int, g *segmentGraph) {
	tl := m.At(x, y)
	tr := m.At(x+1, y)
	bl := m.At(x, y+1)
	br := m.At(x+1, y+1)

	idx := 0
	if tl {
		idx |= 1
	}
	if tr {
		idx |= 2
	}
	if br {
		idx |= 4
	}
	if bl {
		idx |= 8
	}
	if idx == 0 || idx == 15 {
		return
	}

	fx, fy := float64(x), float64(y)
	top := geometry.Point{X: fx + 0.5, Y: fy}
	right := geometry.Point{X: fx + 1, Y: fy + 0.5}
	bottom := geometry.Point{X: fx + 0.5, Y: fy + 1}
	left := geometry.Point{X: fx, Y: fy + 0.5}

	switch idx {
	case 1, 14:
		g.addSegment(left, top)
	case 2, 13:
		g.addSegment(top, right)
	case 4, 11:
		g.addSegment(right, bottom)
	case 8, 7:
		g.addSegment(bottom, left)
	case 3, 12:
		g.addSegment(left, right)
	case 6, 9:
		g.addSegment(top, bottom)
	case 5:
		// Saddle with subject corners on the tl-br diagonal: that
		// diagonal carries the higher corner sum, so keep it joined.
		g.addSegment(top, right)
		g.addSegment(bottom, left)
	case 10:
		// Saddle on the tr-bl diagonal, joined likewise.
		g.addSegment(left, top)
		g.addSegment(right, bottom)
	}
}

// normalize maps grid coordinates into [0, 1] relative to the mask
// dimensions, clamping the half-pixel apron overshoot.
func normalize(pts []geometry.Point, w, h int) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	fw, fh := float64(w), float64(h)
	for i, p := range pts {
		out[i] = geometry.Point{
			X: math.Min(1, math.Max(0, p.X/fw)),
			Y: math.Min(1, math.Max(0, p.Y/fh)),
		}
	}
	return out
}
