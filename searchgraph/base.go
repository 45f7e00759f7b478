package searchgraph

import (
	"math"
	"sort"

	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// sortedNeighbors refreshes id's adjacency against the roadmap and returns
// its current neighbor ids in ascending order. A fixed order is required for
// determinism: tie-breaking during rhs argmin recomputation must not depend
// on Go's randomized map iteration.
func sortedNeighbors(rm *roadmap.Roadmap, id roadmap.NodeID) []roadmap.NodeID {
	rm.UpdateAdjacency(id)
	node, ok := rm.GetNode(id)
	if !ok {
		return nil
	}
	ids := node.Neighbors()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// filterIterator lazily applies build over a fixed snapshot of candidate
// node ids, skipping those build rejects (e.g. because they fail a validity
// check). This is the "explicit iterator object holding the underlying
// [snapshot] plus the filter predicate" shape: the filter runs per Next
// call, not all up front.
type filterIterator struct {
	ids   []roadmap.NodeID
	i     int
	build func(roadmap.NodeID) (VertexID, bool)
}

func (it *filterIterator) Next() (VertexID, bool) {
	for it.i < len(it.ids) {
		id := it.ids[it.i]
		it.i++
		if v, ok := it.build(id); ok {
			return v, true
		}
	}
	return VertexID{}, false
}

// staticIterator yields a fixed, already-materialized list of vertices; used
// for lift edges, where there is at most one neighbor to offer.
type staticIterator struct {
	vs []VertexID
	i  int
}

func (it *staticIterator) Next() (VertexID, bool) {
	if it.i >= len(it.vs) {
		return VertexID{}, false
	}
	v := it.vs[it.i]
	it.i++
	return v, true
}

func emptyIterator() SuccessorIterator { return &staticIterator{} }

// changeTracker accumulates EdgeChange records for a graph adapter's
// embedding; Drain satisfies the Graph.DrainEdgeChanges contract.
type changeTracker struct {
	pending []EdgeChange
}

func (t *changeTracker) track(u, v VertexID, old, newCost float64) {
	if old != newCost {
		t.pending = append(t.pending, EdgeChange{U: u, V: v, OldCost: old})
	}
}

func (t *changeTracker) DrainEdgeChanges() []EdgeChange {
	out := t.pending
	t.pending = nil
	return out
}

// graspEdgeCost resolves the cost of the roadmap edge between u.Node and
// v.Node under grasp gid, tracking a change if resolving it (lazy=false)
// reveals it differs from the cached estimate.
func graspEdgeCost(rm *roadmap.Roadmap, tracker *changeTracker, u, v VertexID, gid statespace.GraspID, lazy bool) float64 {
	uNode, ok := rm.GetNode(u.Node)
	if !ok {
		return math.Inf(1)
	}
	e, ok := uNode.Edge(v.Node)
	if !ok {
		return math.Inf(1)
	}
	old := rm.EdgeCost(e, &gid, true)
	if lazy {
		return old
	}
	resolved := rm.EdgeCost(e, &gid, false)
	tracker.track(u, v, old, resolved)
	return resolved
}

// baseEdgeCost is graspEdgeCost's grasp-agnostic counterpart, used by the
// folded graphs' shared base layer.
func baseEdgeCost(rm *roadmap.Roadmap, tracker *changeTracker, u, v VertexID, lazy bool) float64 {
	uNode, ok := rm.GetNode(u.Node)
	if !ok {
		return math.Inf(1)
	}
	e, ok := uNode.Edge(v.Node)
	if !ok {
		return math.Inf(1)
	}
	old := rm.EdgeCost(e, nil, true)
	if lazy {
		return old
	}
	resolved := rm.EdgeCost(e, nil, false)
	tracker.track(u, v, old, resolved)
	return resolved
}
