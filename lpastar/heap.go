package lpastar

import "github.com/JoshuaHaustein/hfts_grasp_planner/searchgraph"

// vertexData is a vertex's mutable LPA* bookkeeping: consistency estimates,
// parent pointer, heuristic, and the vertex's current slot in the priority
// queue (index, or -1 when not queued). Grounded on the astarHeap pattern in
// orange-dot-mapf-het/internal/algo/astar.go: an indexed container/heap
// element so decrease/increase-key is a heap.Fix, not a linear scan.
type vertexData struct {
	v         searchgraph.VertexID
	g, rhs, h float64
	parent    searchgraph.VertexID
	hasParent bool

	queued bool
	index  int
}

func (vd *vertexData) key() Key {
	m := vd.g
	if vd.rhs < m {
		m = vd.rhs
	}
	return Key{Primary: m + vd.h, Secondary: m}
}

// vertexHeap implements container/heap.Interface over *vertexData, ordered
// by Key.Less, keeping each element's index field in sync so Fix and Remove
// can address it directly instead of searching.
type vertexHeap []*vertexData

func (h vertexHeap) Len() int { return len(h) }

func (h vertexHeap) Less(i, j int) bool { return h[i].key().Less(h[j].key()) }

func (h vertexHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *vertexHeap) Push(x interface{}) {
	vd := x.(*vertexData)
	vd.index = len(*h)
	*h = append(*h, vd)
}

func (h *vertexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	vd := old[n-1]
	old[n-1] = nil
	vd.index = -1
	*h = old[:n-1]
	return vd
}
