package searchgraph

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// SingleGrasp presents the roadmap as a graph where every vertex shares one
// fixed grasp: costs and validity are all grasp-conditional on it.
type SingleGrasp struct {
	changeTracker

	rm    *roadmap.Roadmap
	goals *goalset.GoalSet
	h     *goalheuristic.GoalHeuristic
	gid   statespace.GraspID
	start roadmap.NodeID
}

// NewSingleGrasp builds a SingleGrasp graph rooted at start under grasp gid.
func NewSingleGrasp(rm *roadmap.Roadmap, goals *goalset.GoalSet, h *goalheuristic.GoalHeuristic, gid statespace.GraspID, start roadmap.NodeID) *SingleGrasp {
	return &SingleGrasp{rm: rm, goals: goals, h: h, gid: gid, start: start}
}

func (g *SingleGrasp) StartNode() VertexID { return VertexID{Node: g.start, Grasp: g.gid} }

func (g *SingleGrasp) CheckValidity(v VertexID) bool {
	return g.rm.IsValidGrasp(v.Node, g.gid)
}

func (g *SingleGrasp) Heuristic(v VertexID) float64 {
	node, ok := g.rm.GetNode(v.Node)
	if !ok {
		return math.Inf(1)
	}
	c, err := g.h.CostToGoGrasp(node.Config, g.gid)
	if err != nil {
		return math.Inf(1)
	}
	return c
}

func (g *SingleGrasp) neighborIterator(v VertexID) SuccessorIterator {
	ids := sortedNeighbors(g.rm, v.Node)
	return &filterIterator{ids: ids, build: func(id roadmap.NodeID) (VertexID, bool) {
		if !g.rm.IsValidGrasp(id, g.gid) {
			return VertexID{}, false
		}
		return VertexID{Node: id, Grasp: g.gid}, true
	}}
}

func (g *SingleGrasp) Successors(v VertexID, _ bool) SuccessorIterator   { return g.neighborIterator(v) }
func (g *SingleGrasp) Predecessors(v VertexID, _ bool) SuccessorIterator { return g.neighborIterator(v) }

func (g *SingleGrasp) EdgeCost(u, v VertexID, lazy bool) float64 {
	return graspEdgeCost(g.rm, &g.changeTracker, u, v, g.gid, lazy)
}

func (g *SingleGrasp) IsGoal(v VertexID) bool {
	return g.goals.IsGoal(v.Node, g.gid)
}

func (g *SingleGrasp) GoalCost(v VertexID) float64 {
	for _, goal := range g.goals.GoalsAtNode(v.Node) {
		if goal.GraspID != g.gid {
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

func (g *SingleGrasp) GraspRoadmapID(v VertexID) (roadmap.NodeID, statespace.GraspID) {
	return v.Node, v.Grasp
}
