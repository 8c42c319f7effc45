package mask

import (
	"container/list"

	"github.com/MeKo-Tech/cutout/internal/mempool"
)

// regionStats tracks per-component pixel count and bounds.
type regionStats struct {
	label int
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// LargestRegion returns a mask containing only the largest 4-connected
// subject region, discarding all smaller disjoint islands. Ties are
// broken by scan order: the first component encountered wins.
func LargestRegion(m *Mask) *Mask {
	w, h := m.W, m.H
	labels := mempool.GetInt(w * h)
	defer mempool.PutInt(labels)

	var best regionStats
	label := 0
	for y := range h {
		for x := range w {
			idx := y*w + x
			if !m.Bits[idx] || labels[idx] != 0 {
				continue
			}
			label++
			st := labelRegionBFS(m, labels, x, y, label)
			if st.count > best.count {
				best = st
			}
		}
	}

	out := New(w, h)
	if best.count == 0 {
		return out
	}
	for i, l := range labels {
		if l == best.label {
			out.Bits[i] = true
		}
	}
	return out
}

// labelRegionBFS labels the 4-connected component containing the seed
// pixel and returns its statistics.
func labelRegionBFS(m *Mask, labels []int, startX, startY, label int) regionStats {
	w, h := m.W, m.H
	st := regionStats{label: label, minX: startX, minY: startY, maxX: startX, maxY: startY}

	startIdx := startY*w + startX
	labels[startIdx] = label
	q := list.New()
	q.PushBack(startIdx)

	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if m.Bits[ni] && labels[ni] == 0 {
				labels[ni] = label
				q.PushBack(ni)
			}
		}
	}
	return st
}
