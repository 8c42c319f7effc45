package contour

import (
	"math"

	"github.com/MeKo-Tech/cutout/internal/geometry"
)

// nodeKey identifies a graph node by quantized coordinates, so that
// endpoints within pointQuantum of each other collapse into one node.
type nodeKey struct {
	X, Y int64
}

func keyOf(p geometry.Point) nodeKey {
	return nodeKey{
		X: int64(math.Round(p.X / pointQuantum)),
		Y: int64(math.Round(p.Y / pointQuantum)),
	}
}

// edgeKey identifies an undirected edge by its ordered node keys.
type edgeKey struct {
	a, b nodeKey
}

func newEdgeKey(a, b nodeKey) edgeKey {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

type node struct {
	pt        geometry.Point
	neighbors []nodeKey
}

// segmentGraph holds marching-squares segments as a multigraph with
// per-edge use counts. Insertion order is recorded so traversal is
// deterministic for a given mask.
type segmentGraph struct {
	nodes map[nodeKey]*node
	edges map[edgeKey]int
	order []edgeKey
}

func newSegmentGraph() *segmentGraph {
	return &segmentGraph{
		nodes: make(map[nodeKey]*node),
		edges: make(map[edgeKey]int),
	}
}

func (g *segmentGraph) addNode(p geometry.Point) nodeKey {
	k := keyOf(p)
	if _, ok := g.nodes[k]; !ok {
		g.nodes[k] = &node{pt: p}
	}
	return k
}

// addSegment registers an undirected segment, incrementing its use count.
// Marching squares emits a given edge at most twice (at saddle cells).
func (g *segmentGraph) addSegment(p1, p2 geometry.Point) {
	ka := g.addNode(p1)
	kb := g.addNode(p2)
	if ka == kb {
		return
	}
	ek := newEdgeKey(ka, kb)
	if g.edges[ek] == 0 {
		g.order = append(g.order, ek)
		g.nodes[ka].neighbors = append(g.nodes[ka].neighbors, kb)
		g.nodes[kb].neighbors = append(g.nodes[kb].neighbors, ka)
	}
	g.edges[ek]++
}

// closedLoops walks the graph consuming edge use counts and returns every
// closed loop of at least three points. The walk is an explicit loop
// rather than recursion so large contours cannot blow the stack.
func (g *segmentGraph) closedLoops() [][]geometry.Point {
	var loops [][]geometry.Point
	for _, ek := range g.order {
		for g.edges[ek] > 0 {
			loop, ok := g.walkLoop(ek)
			if !ok {
				break
			}
			if len(loop) >= 3 {
				loops = append(loops, loop)
			}
		}
	}
	return loops
}

// walkLoop traverses from the given edge until it returns to its starting
// node, decrementing each consumed edge. Returns false for walks that
// dead-end before closing (their edges stay consumed; an open chain
// cannot become a loop later).
func (g *segmentGraph) walkLoop(start edgeKey) ([]geometry.Point, bool) {
	startNode := start.a
	cur := start.b
	g.edges[start]--

	pts := []geometry.Point{g.nodes[startNode].pt, g.nodes[cur].pt}
	for cur != startNode {
		next, ok := g.nextFrom(cur)
		if !ok {
			return nil, false
		}
		g.edges[newEdgeKey(cur, next)]--
		cur = next
		if cur != startNode {
			pts = append(pts, g.nodes[cur].pt)
		}
	}
	return pts, true
}

// nextFrom picks the first neighbor of k with remaining edge capacity.
func (g *segmentGraph) nextFrom(k nodeKey) (nodeKey, bool) {
	for _, nb := range g.nodes[k].neighbors {
		if g.edges[newEdgeKey(k, nb)] > 0 {
			return nb, true
		}
	}
	return nodeKey{}, false
}
