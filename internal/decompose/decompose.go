// Package decompose splits a silhouette polygon into a requested number
// of irregular, area-balanced pieces whose union exactly tiles the
// silhouette, using greedy recursive bisection along random lines.
package decompose

import (
	"math"
	"math/rand"

	"github.com/MeKo-Tech/cutout/internal/geometry"
)

// Splitting constraints.
const (
	// minPieceArea rejects split halves below this absolute area, in
	// normalized units.
	minPieceArea = 1e-4
	// minCutFloor and minCutRatio bound the chord length of a cut so no
	// thin sliver connectors appear.
	minCutFloor = 0.02
	minCutRatio = 0.12
	// triesPerAttempt is how many random lines are tried against one
	// polygon before the attempt is declared failed.
	triesPerAttempt = 25
	// attemptsPerPiece scales the overall attempt budget with the
	// target count.
	attemptsPerPiece = 30
)

// Result holds the outcome of a decomposition run.
type Result struct {
	// Polygons are the produced pieces; their union reconstructs the
	// silhouette and their interiors are pairwise disjoint.
	Polygons [][]geometry.Point
	// Achieved is the number of pieces produced. It can fall short of
	// the target when the attempt budget is exhausted.
	Achieved int
	// Degraded is true when Achieved is less than the requested count.
	Degraded bool
}

// Progress is invoked after every successful split with the current
// piece count.
type Progress func(achieved int)

// Decompose splits the silhouette into up to target pieces. Randomness
// comes exclusively from rng, so a fixed seed reproduces the same
// decomposition. Falling short of the target is a degraded result, not
// an error.
func Decompose(silhouette []geometry.Point, target int, rng *rand.Rand) Result {
	return DecomposeWithProgress(silhouette, target, rng, nil)
}

// DecomposeWithProgress is Decompose with a per-split progress callback.
func DecomposeWithProgress(silhouette []geometry.Point, target int, rng *rand.Rand, progress Progress) Result {
	if len(silhouette) < 3 || target < 1 {
		return Result{Degraded: target >= 1}
	}

	working := [][]geometry.Point{append([]geometry.Point(nil), silhouette...)}
	budget := attemptsPerPiece * target

	for len(working) < target && budget > 0 {
		idx := largestPolygon(working)
		front, back, ok := trySplit(working[idx], rng)
		if !ok {
			budget--
			continue
		}
		working[idx] = front
		working = append(working, back)
		if progress != nil {
			progress(len(working))
		}
	}

	return Result{
		Polygons: working,
		Achieved: len(working),
		Degraded: len(working) < target,
	}
}

// largestPolygon returns the index of the polygon with the largest
// absolute area. Splitting the biggest piece first avoids early
// fragmentation into slivers.
func largestPolygon(polys [][]geometry.Point) int {
	best := 0
	bestArea := -1.0
	for i, p := range polys {
		a := math.Abs(geometry.SignedArea(p))
		if a > bestArea {
			bestArea = a
			best = i
		}
	}
	return best
}

// trySplit makes up to triesPerAttempt attempts to split the polygon,
// widening the acceptance band as tries fail.
func trySplit(poly []geometry.Point, rng *rand.Rand) (front, back []geometry.Point, ok bool) {
	for attempt := 0; attempt < triesPerAttempt; attempt++ {
		if f, b, found := attemptSplit(poly, rng, attempt); found {
			return f, b, true
		}
	}
	return nil, nil, false
}

// attemptSplit is a single randomized split attempt: a uniformly random
// point inside the polygon's bounding box and a uniformly random line
// direction in [0, pi). It carries no retry state; the acceptance band
// depends only on the attempt index.
func attemptSplit(poly []geometry.Point, rng *rand.Rand, attempt int) (front, back []geometry.Point, ok bool) {
	bbox := geometry.BoundingBox(poly)
	p := geometry.Point{
		X: bbox.MinX + rng.Float64()*bbox.Width(),
		Y: bbox.MinY + rng.Float64()*bbox.Height(),
	}
	angle := rng.Float64() * math.Pi

	f, b, chord, ok := splitByLine(poly, p, angle)
	if !ok {
		return nil, nil, false
	}
	if chord < math.Max(minCutFloor, minCutRatio*bbox.Diagonal()) {
		return nil, nil, false
	}

	frontArea := math.Abs(geometry.SignedArea(f))
	backArea := math.Abs(geometry.SignedArea(b))
	if frontArea < minPieceArea || backArea < minPieceArea {
		return nil, nil, false
	}

	ratio := frontArea / (frontArea + backArea)
	minRatio, maxRatio := acceptanceBand(attempt)
	if ratio < minRatio || ratio > maxRatio {
		return nil, nil, false
	}
	return f, b, true
}

// acceptanceBand returns the area-ratio band for the given attempt
// index. Early attempts demand near-balanced halves; later attempts
// tolerate more skew, trading balance for progress.
func acceptanceBand(attempt int) (minRatio, maxRatio float64) {
	widen := math.Min(0.15+0.02*float64(attempt), 0.35)
	minRatio = math.Max(0.05, 0.3-widen)
	maxRatio = math.Min(0.95, 1-minRatio)
	return minRatio, maxRatio
}
