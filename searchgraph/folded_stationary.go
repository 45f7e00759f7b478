package searchgraph

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// FoldedStationary shares one grasp-agnostic base layer (base_cost) across
// every grasp, and lifts into a per-grasp vertex at zero cost exactly at the
// roadmap nodes that host a goal for that grasp. A base-layer vertex is
// never itself a goal; only after lifting does IsGoal hold. The base-layer
// heuristic is grasp-agnostic: nearest goal over every grasp at once.
type FoldedStationary struct {
	changeTracker

	rm    *roadmap.Roadmap
	goals *goalset.GoalSet
	h     *goalheuristic.GoalHeuristic
	start roadmap.NodeID
}

// NewFoldedStationary builds a FoldedStationary graph rooted at start in the
// base layer.
func NewFoldedStationary(rm *roadmap.Roadmap, goals *goalset.GoalSet, h *goalheuristic.GoalHeuristic, start roadmap.NodeID) *FoldedStationary {
	return &FoldedStationary{rm: rm, goals: goals, h: h, start: start}
}

func (g *FoldedStationary) StartNode() VertexID { return VertexID{Node: g.start} }

func (g *FoldedStationary) CheckValidity(v VertexID) bool {
	if v.Grasp == "" {
		return g.rm.IsValid(v.Node)
	}
	return g.rm.IsValidGrasp(v.Node, v.Grasp)
}

// baseHeuristic is the grasp-agnostic cost-to-go used by the stationary
// variant's base layer: nearest goal over every grasp.
func (g *FoldedStationary) baseHeuristic(v VertexID) float64 {
	node, ok := g.rm.GetNode(v.Node)
	if !ok {
		return math.Inf(1)
	}
	c, err := g.h.CostToGo(node.Config)
	if err != nil {
		return math.Inf(1)
	}
	return c
}

func (g *FoldedStationary) Heuristic(v VertexID) float64 {
	if v.Grasp == "" {
		return g.baseHeuristic(v)
	}
	// A per-grasp vertex only exists at a goal node for that grasp: it is
	// the goal itself, zero steps from solving.
	return 0
}

func (g *FoldedStationary) Successors(v VertexID, _ bool) SuccessorIterator {
	if v.Grasp != "" {
		// The only way out of a lifted goal vertex is back down.
		return &staticIterator{vs: []VertexID{{Node: v.Node}}}
	}
	ids := sortedNeighbors(g.rm, v.Node)
	base := &filterIterator{ids: ids, build: func(id roadmap.NodeID) (VertexID, bool) {
		if !g.rm.IsValid(id) {
			return VertexID{}, false
		}
		return VertexID{Node: id}, true
	}}
	lifts := g.liftTargets(v.Node)
	if len(lifts) == 0 {
		return base
	}
	return &chainIterator{first: base, second: &staticIterator{vs: lifts}}
}

func (g *FoldedStationary) Predecessors(v VertexID, lazy bool) SuccessorIterator {
	return g.Successors(v, lazy)
}

// liftTargets returns the per-grasp vertices reachable by lifting out of
// base-layer node id: one per distinct, currently-valid grasp it hosts a
// goal for.
func (g *FoldedStationary) liftTargets(id roadmap.NodeID) []VertexID {
	goals := g.goals.GoalsAtNode(id)
	seen := make(map[statespace.GraspID]bool, len(goals))
	var out []VertexID
	for _, goal := range goals {
		if seen[goal.GraspID] {
			continue
		}
		seen[goal.GraspID] = true
		if g.rm.IsValidGrasp(id, goal.GraspID) {
			out = append(out, VertexID{Node: id, Grasp: goal.GraspID})
		}
	}
	return out
}

func (g *FoldedStationary) EdgeCost(u, v VertexID, lazy bool) float64 {
	if u.Node == v.Node && u.Grasp != v.Grasp {
		return 0 // lift edge
	}
	return baseEdgeCost(g.rm, &g.changeTracker, u, v, lazy)
}

func (g *FoldedStationary) IsGoal(v VertexID) bool {
	if v.Grasp == "" {
		return false
	}
	return g.goals.IsGoal(v.Node, v.Grasp)
}

func (g *FoldedStationary) GoalCost(v VertexID) float64 {
	if v.Grasp == "" {
		return math.Inf(1)
	}
	for _, goal := range g.goals.GoalsAtNode(v.Node) {
		if goal.GraspID != v.Grasp {
			continue
		}
		c, err := g.h.GoalCost(goal.Quality)
		if err != nil {
			return math.Inf(1)
		}
		return c
	}
	return math.Inf(1)
}

func (g *FoldedStationary) GraspRoadmapID(v VertexID) (roadmap.NodeID, statespace.GraspID) {
	return v.Node, v.Grasp
}

// chainIterator exhausts first, then second.
type chainIterator struct {
	first, second SuccessorIterator
}

func (it *chainIterator) Next() (VertexID, bool) {
	if it.first != nil {
		if v, ok := it.first.Next(); ok {
			return v, true
		}
		it.first = nil
	}
	return it.second.Next()
}
