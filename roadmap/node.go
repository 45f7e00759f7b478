package roadmap

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// NodeID is a monotonically increasing, stable-for-lifetime node identifier.
type NodeID uint64

// Node is a roadmap vertex: a configuration plus its lazily-evaluated
// validity cache and adjacency.
type Node struct {
	ID     NodeID
	Config statespace.Configuration

	initialized bool
	condValid   map[statespace.GraspID]bool

	edges map[NodeID]*Edge

	densificationGen uint64
}

func newNode(id NodeID, cfg statespace.Configuration) *Node {
	return &Node{
		ID:        id,
		Config:    cfg.Clone(),
		condValid: make(map[statespace.GraspID]bool),
		edges:     make(map[NodeID]*Edge),
	}
}

// Neighbors returns the set of node ids this node currently has an edge to.
// The returned slice is a snapshot; mutating the roadmap afterwards does not
// affect it.
func (n *Node) Neighbors() []NodeID {
	out := make([]NodeID, 0, len(n.edges))
	for nb := range n.edges {
		out = append(out, nb)
	}
	return out
}

// Edge returns the edge to neighbor nb, if any.
func (n *Node) Edge(nb NodeID) (*Edge, bool) {
	e, ok := n.edges[nb]
	return e, ok
}

// EdgeState is the lazy-evaluation lifecycle stage of an Edge.
type EdgeState int

const (
	// Optimistic: base_evaluated=false, base_cost holds the lower bound.
	Optimistic EdgeState = iota
	// Resolved: base_evaluated=true, base_cost is a final finite cost.
	Resolved
	// Dead: base_evaluated=true, base_cost=+Inf; scheduled for pruning.
	Dead
)

// Edge is an undirected roadmap edge shared by exactly its two endpoints.
type Edge struct {
	a, b NodeID

	baseCost      float64
	baseEvaluated bool

	condCosts map[statespace.GraspID]float64
}

func newEdge(a, b NodeID, lowerBound float64) *Edge {
	return &Edge{
		a:         a,
		b:         b,
		baseCost:  lowerBound,
		condCosts: make(map[statespace.GraspID]float64),
	}
}

// Endpoints returns the two node ids this edge connects.
func (e *Edge) Endpoints() (NodeID, NodeID) { return e.a, e.b }

// Other returns the endpoint opposite from, i.e. the neighbor reached by
// crossing this edge away from from.
func (e *Edge) Other(from NodeID) NodeID {
	if e.a == from {
		return e.b
	}
	return e.a
}

// State reports the edge's current lazy-evaluation lifecycle stage.
func (e *Edge) State() EdgeState {
	switch {
	case !e.baseEvaluated:
		return Optimistic
	case math.IsInf(e.baseCost, 1):
		return Dead
	default:
		return Resolved
	}
}

// BaseCost returns the best currently-known base cost: the lower bound while
// Optimistic, the resolved cost once Resolved or Dead.
func (e *Edge) BaseCost() float64 { return e.baseCost }

// BaseEvaluated reports whether the unconditional cost has been resolved.
func (e *Edge) BaseEvaluated() bool { return e.baseEvaluated }
