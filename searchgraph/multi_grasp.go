package searchgraph

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// MultiGrasp presents the roadmap as the product of its nodes with a set of
// grasps: every roadmap node is replicated once per grasp, and edges only
// ever connect vertices within the same grasp's layer.
type MultiGrasp struct {
	changeTracker

	rm     *roadmap.Roadmap
	goals  *goalset.GoalSet
	h      *goalheuristic.GoalHeuristic
	grasps []statespace.GraspID

	start      roadmap.NodeID
	startGrasp statespace.GraspID
}

// NewMultiGrasp builds a MultiGrasp graph over grasps, rooted at (start,
// startGrasp).
func NewMultiGrasp(rm *roadmap.Roadmap, goals *goalset.GoalSet, h *goalheuristic.GoalHeuristic, grasps []statespace.GraspID, start roadmap.NodeID, startGrasp statespace.GraspID) *MultiGrasp {
	return &MultiGrasp{rm: rm, goals: goals, h: h, grasps: grasps, start: start, startGrasp: startGrasp}
}

func (g *MultiGrasp) StartNode() VertexID { return VertexID{Node: g.start, Grasp: g.startGrasp} }

func (g *MultiGrasp) CheckValidity(v VertexID) bool {
	return g.rm.IsValidGrasp(v.Node, v.Grasp)
}

func (g *MultiGrasp) Heuristic(v VertexID) float64 {
	node, ok := g.rm.GetNode(v.Node)
	if !ok {
		return math.Inf(1)
	}
	c, err := g.h.CostToGoGrasp(node.Config, v.Grasp)
	if err != nil {
		return math.Inf(1)
	}
	return c
}

func (g *MultiGrasp) neighborIterator(v VertexID) SuccessorIterator {
	ids := sortedNeighbors(g.rm, v.Node)
	gid := v.Grasp
	return &filterIterator{ids: ids, build: func(id roadmap.NodeID) (VertexID, bool) {
		if !g.rm.IsValidGrasp(id, gid) {
			return VertexID{}, false
		}
		return VertexID{Node: id, Grasp: gid}, true
	}}
}

func (g *MultiGrasp) Successors(v VertexID, _ bool) SuccessorIterator   { return g.neighborIterator(v) }
func (g *MultiGrasp) Predecessors(v VertexID, _ bool) SuccessorIterator { return g.neighborIterator(v) }

func (g *MultiGrasp) EdgeCost(u, v VertexID, lazy bool) float64 {
	return graspEdgeCost(g.rm, &g.changeTracker, u, v, u.Grasp, lazy)
}

func (g *MultiGrasp) IsGoal(v VertexID) bool {
	return g.goals.IsGoal(v.Node, v.Grasp)
}

func (g *MultiGrasp) GoalCost(v VertexID) float64 {
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

func (g *MultiGrasp) GraspRoadmapID(v VertexID) (roadmap.NodeID, statespace.GraspID) {
	return v.Node, v.Grasp
}
