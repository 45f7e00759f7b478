// Package searchgraph presents a roadmap.Roadmap, goalset.GoalSet and
// goalheuristic.GoalHeuristic as one of four logical graphs consumed by the
// lpastar search engine.
package searchgraph

import (
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// VertexID names a search-graph vertex. Grasp is empty ("") for vertices in
// a grasp-agnostic layer (a folded graph's base layer); otherwise it names
// which per-grasp layer the vertex belongs to.
type VertexID struct {
	Node  roadmap.NodeID
	Grasp statespace.GraspID
}

// EdgeChange is emitted when resolving an edge's exact cost reveals it
// differs from the cached estimate LPA* had been using.
type EdgeChange struct {
	U, V    VertexID
	OldCost float64
}

// SuccessorIterator lazily yields validity-filtered neighbor vertices.
type SuccessorIterator interface {
	// Next returns the next vertex, or ok=false once exhausted.
	Next() (VertexID, bool)
}

// Graph is the common surface LPA* (and plain A*) drive their search
// through, regardless of which of the four adapters backs it.
type Graph interface {
	StartNode() VertexID
	CheckValidity(v VertexID) bool
	Heuristic(v VertexID) float64
	Successors(v VertexID, lazy bool) SuccessorIterator
	Predecessors(v VertexID, lazy bool) SuccessorIterator
	EdgeCost(u, v VertexID, lazy bool) float64
	IsGoal(v VertexID) bool
	GoalCost(v VertexID) float64
	GraspRoadmapID(v VertexID) (roadmap.NodeID, statespace.GraspID)
	// DrainEdgeChanges returns and clears every EdgeChange accumulated by
	// non-lazy EdgeCost calls since the last drain.
	DrainEdgeChanges() []EdgeChange
}
