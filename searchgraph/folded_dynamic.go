package searchgraph

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// FoldedDynamic is FoldedStationary's structure (shared base layer, per-grasp
// lift-at-goal vertices) with one difference: the base layer's heuristic is
// computed only over a shrinking set of still-active grasps, narrowed by
// PruneGrasp as grasps are ruled out. Because that narrowing changes h
// mid-search, only LPA*-family algorithms can absorb it; plain A* would need
// to restart from scratch, which is why the reference design restricts this
// adapter to LPA*.
type FoldedDynamic struct {
	*FoldedStationary

	active map[statespace.GraspID]bool
}

// NewFoldedDynamic builds a FoldedDynamic graph rooted at start, with every
// grasp in grasps initially active.
func NewFoldedDynamic(rm *roadmap.Roadmap, goals *goalset.GoalSet, h *goalheuristic.GoalHeuristic, start roadmap.NodeID, grasps []statespace.GraspID) *FoldedDynamic {
	active := make(map[statespace.GraspID]bool, len(grasps))
	for _, gid := range grasps {
		active[gid] = true
	}
	return &FoldedDynamic{
		FoldedStationary: NewFoldedStationary(rm, goals, h, start),
		active:           active,
	}
}

// PruneGrasp removes gid from the active set, returning true if it was
// still active. The caller is responsible for triggering replanning: the
// base-layer heuristic for every untouched vertex is now a stale lower
// bound (it may have grown), which on its own would violate LPA*'s
// assumption that h never changes for a vertex already in the queue.
func (g *FoldedDynamic) PruneGrasp(gid statespace.GraspID) bool {
	if !g.active[gid] {
		return false
	}
	delete(g.active, gid)
	return true
}

// ActiveGrasps reports which grasps are still under consideration.
func (g *FoldedDynamic) ActiveGrasps() map[statespace.GraspID]bool {
	out := make(map[statespace.GraspID]bool, len(g.active))
	for gid := range g.active {
		out[gid] = true
	}
	return out
}

func (g *FoldedDynamic) Heuristic(v VertexID) float64 {
	if v.Grasp != "" {
		return 0
	}
	node, ok := g.rm.GetNode(v.Node)
	if !ok {
		return math.Inf(1)
	}
	c, err := g.h.CostToGoAmong(node.Config, g.active)
	if err != nil {
		return math.Inf(1)
	}
	return c
}

// Successors narrows lift targets to still-active grasps; base-layer
// traversal is otherwise identical to FoldedStationary.
func (g *FoldedDynamic) Successors(v VertexID, lazy bool) SuccessorIterator {
	if v.Grasp != "" {
		return g.FoldedStationary.Successors(v, lazy)
	}
	ids := sortedNeighbors(g.rm, v.Node)
	base := &filterIterator{ids: ids, build: func(id roadmap.NodeID) (VertexID, bool) {
		if !g.rm.IsValid(id) {
			return VertexID{}, false
		}
		return VertexID{Node: id}, true
	}}
	var lifts []VertexID
	for _, target := range g.liftTargets(v.Node) {
		if g.active[target.Grasp] {
			lifts = append(lifts, target)
		}
	}
	if len(lifts) == 0 {
		return base
	}
	return &chainIterator{first: base, second: &staticIterator{vs: lifts}}
}

func (g *FoldedDynamic) Predecessors(v VertexID, lazy bool) SuccessorIterator {
	return g.Successors(v, lazy)
}

// EdgeCost overrides FoldedStationary's unconditional zero-cost lift edge: a
// lift into a grasp PruneGrasp has since ruled out costs +Inf, regardless of
// lazy, so a persisted engine's already-materialized rhs for that lift
// vertex can be invalidated by an EdgeChange the same way a roadmap cost
// increase would be.
func (g *FoldedDynamic) EdgeCost(u, v VertexID, lazy bool) float64 {
	if u.Node == v.Node && u.Grasp != v.Grasp {
		grasp := u.Grasp
		if grasp == "" {
			grasp = v.Grasp
		}
		if !g.active[grasp] {
			return math.Inf(1)
		}
		return 0
	}
	return g.FoldedStationary.EdgeCost(u, v, lazy)
}
