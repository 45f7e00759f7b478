// Package roadmap maintains the shared probabilistic-roadmap substrate:
// node/edge storage, Halton-driven densification, PRM*-radius adjacency, and
// lazily-evaluated, cached validity and cost.
//
// There is no third-party spatial index anywhere in this module's retrieval
// pack to ground a k-d tree or similar structure against, so adjacency and
// nearest-neighbor queries are a linear scan over the node set. Roadmaps at
// the scale this planner targets (tens of thousands of nodes at most) make
// this an acceptable trade against guessing at an unverified API.
package roadmap

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/logging"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
	"github.com/JoshuaHaustein/hfts_grasp_planner/trace"
)

// Integrator is the subset of costintegrator.Integrator the roadmap depends
// on, kept narrow so tests can supply a stub without an oracle.
type Integrator interface {
	LowerBound(ss statespace.StateSpace, a, b statespace.Configuration) float64
	Cost(ss statespace.StateSpace, a, b statespace.Configuration) float64
	ConditionalCost(ss statespace.StateSpace, a, b statespace.Configuration, gid statespace.GraspID) (float64, error)
}

// Roadmap is the shared, grasp-agnostic substrate the search graphs are
// built on. It is not safe for concurrent use: the planner's scheduling
// model is single-threaded cooperative, and the roadmap assumes the same.
type Roadmap struct {
	ss         statespace.StateSpace
	integrator Integrator
	points     PointSource
	log        logging.Logger
	sinks      trace.Sinks

	nodes  map[NodeID]*Node
	nextID NodeID
	gen    uint64
}

// Option configures a Roadmap at construction time.
type Option func(*Roadmap)

// WithTraceSinks attaches optional line-oriented trace sinks.
func WithTraceSinks(sinks trace.Sinks) Option {
	return func(r *Roadmap) { r.sinks = sinks }
}

// WithLogger attaches a logger; the default is a no-op blank logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Roadmap) { r.log = l }
}

// New builds an empty Roadmap over ss, drawing densification points from
// points and evaluating edge cost via integrator.
func New(ss statespace.StateSpace, points PointSource, integrator Integrator, opts ...Option) *Roadmap {
	r := &Roadmap{
		ss:         ss,
		integrator: integrator,
		points:     points,
		log:        logging.NewBlankLogger("roadmap"),
		nodes:      make(map[NodeID]*Node),
		gen:        1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NumNodes returns the current node count.
func (r *Roadmap) NumNodes() int { return len(r.nodes) }

// GetNode looks up a node by id.
func (r *Roadmap) GetNode(id NodeID) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// AddNode unconditionally inserts cfg as a new node with no validity check
// performed yet, returning its fresh id.
func (r *Roadmap) AddNode(cfg statespace.Configuration) NodeID {
	id := r.nextID
	r.nextID++
	r.nodes[id] = newNode(id, cfg)
	if r.sinks.Nodes != nil {
		if err := r.sinks.Nodes.WriteNode(uint64(id), cfg); err != nil {
			r.log.Warnw("failed to write roadmap node trace", "err", err)
		}
	}
	return id
}

// Densify draws batch Halton points, affinely scaled into the oracle's
// bounds, and inserts a fresh node per point. batch=0 is a no-op: no node is
// added and densification_gen is left untouched.
func (r *Roadmap) Densify(batch int) []NodeID {
	if batch <= 0 {
		return nil
	}
	bounds := r.ss.Bounds()
	ids := make([]NodeID, 0, batch)
	for i := 0; i < batch; i++ {
		raw := r.points.Next()
		cfg := make(statespace.Configuration, len(raw))
		for d := range raw {
			cfg[d] = bounds.Lower[d] + raw[d]*(bounds.Upper[d]-bounds.Lower[d])
		}
		ids = append(ids, r.AddNode(cfg))
	}
	r.gen++
	r.log.Debugw("densified roadmap", "batch", batch, "total_nodes", len(r.nodes))
	return ids
}

// radius computes the PRM* connection radius gamma_PRM * (log n / n)^(1/D)
// for the current node count.
func (r *Roadmap) radius() float64 {
	n := len(r.nodes)
	if n < 2 {
		return 0
	}
	d := float64(r.ss.Dimension())
	bounds := r.ss.Bounds()
	mu := bounds.Volume()
	xiD := math.Pow(math.Pi, d/2) / math.Gamma(d/2+1)
	gammaPRM := 2 * math.Pow((1+1/d)*mu/xiD, 1/d)
	return gammaPRM * math.Pow(math.Log(float64(n))/float64(n), 1/d)
}

// UpdateAdjacency refreshes node's adjacency against the current roadmap if
// it has not already been refreshed at the current densification
// generation, creating fresh (Optimistic) edges to every node within the
// PRM* radius, then pruning any incident Dead edges. Calling it again
// without an intervening Densify is a no-op.
func (r *Roadmap) UpdateAdjacency(id NodeID) {
	node, ok := r.nodes[id]
	if !ok {
		return
	}
	if node.densificationGen >= r.gen {
		return
	}

	rad := r.radius()
	for otherID, other := range r.nodes {
		if otherID == id {
			continue
		}
		if _, exists := node.edges[otherID]; exists {
			continue
		}
		d := r.ss.Distance(node.Config, other.Config)
		if d > rad {
			continue
		}
		lb := r.integrator.LowerBound(r.ss, node.Config, other.Config)
		e := newEdge(id, otherID, lb)
		node.edges[otherID] = e
		other.edges[id] = e
	}
	node.densificationGen = r.gen
	r.pruneDead(node)
}

// pruneDead removes every Dead edge incident to node from both its own
// adjacency and the neighbor's, satisfying invariant I4.
func (r *Roadmap) pruneDead(node *Node) {
	for nb, e := range node.edges {
		if e.State() != Dead {
			continue
		}
		delete(node.edges, nb)
		if other, ok := r.nodes[nb]; ok {
			delete(other.edges, node.ID)
		}
	}
}

// kill marks every edge incident to id as Dead (base_cost=+Inf,
// base_evaluated=true, every conditional cost +Inf too) and removes the node
// itself. Neighbors learn of the deletion lazily, at their next
// UpdateAdjacency.
func (r *Roadmap) kill(id NodeID) {
	node, ok := r.nodes[id]
	if !ok {
		return
	}
	for _, e := range node.edges {
		e.baseCost = math.Inf(1)
		e.baseEvaluated = true
		for gid := range e.condCosts {
			e.condCosts[gid] = math.Inf(1)
		}
	}
	delete(r.nodes, id)
}

// IsValid reports the (cached) unconditional validity of node id. The first
// call performs the oracle check and, on failure, deletes the node; every
// later call against the same live id is a cache hit.
func (r *Roadmap) IsValid(id NodeID) bool {
	node, ok := r.nodes[id]
	if !ok {
		return false
	}
	if node.initialized {
		return true
	}
	valid := r.ss.IsValid(node.Config)
	if r.sinks.Events != nil {
		if err := r.sinks.Events.WriteValBase(uint64(id), valid); err != nil {
			r.log.Warnw("failed to write validity trace", "err", err)
		}
	}
	if !valid {
		r.kill(id)
		return false
	}
	node.initialized = true
	return true
}

// IsValidGrasp reports the (cached) grasp-conditional validity of node id,
// requiring unconditional validity first.
func (r *Roadmap) IsValidGrasp(id NodeID, gid statespace.GraspID) bool {
	node, ok := r.nodes[id]
	if !ok {
		return false
	}
	if !r.IsValid(id) {
		return false
	}
	if v, ok := node.condValid[gid]; ok {
		return v
	}
	valid := r.ss.IsValidGrasp(node.Config, gid, true)
	node.condValid[gid] = valid
	if r.sinks.Events != nil {
		if err := r.sinks.Events.WriteValGrasp(uint64(id), string(gid), valid); err != nil {
			r.log.Warnw("failed to write grasp validity trace", "err", err)
		}
	}
	return valid
}

// ComputeCost resolves (and caches) e's unconditional cost, short-circuiting
// if it was already evaluated. If cost resolves to +Inf, every already
// cached conditional cost is clamped to +Inf too (invariant I3), mirroring
// what kill does for a deleted node: a grasp can never be cheaper than the
// unconditional edge it rides on.
func (r *Roadmap) ComputeCost(e *Edge) float64 {
	if e.baseEvaluated {
		return e.baseCost
	}
	a, b := r.nodes[e.a], r.nodes[e.b]
	cost := r.integrator.Cost(r.ss, a.Config, b.Config)
	e.baseCost = cost
	e.baseEvaluated = true
	if math.IsInf(cost, 1) {
		for gid := range e.condCosts {
			e.condCosts[gid] = math.Inf(1)
		}
	}
	if r.sinks.Events != nil {
		if err := r.sinks.Events.WriteEdgeCost(uint64(e.a), uint64(e.b), cost); err != nil {
			r.log.Warnw("failed to write edge cost trace", "err", err)
		}
	}
	return cost
}

// ComputeCostGrasp resolves (and caches) e's cost under grasp gid. If the
// unconditional cost is already known infinite, every grasp is infinite too
// (invariant I3) and the integrator is never invoked.
func (r *Roadmap) ComputeCostGrasp(e *Edge, gid statespace.GraspID) float64 {
	if e.baseEvaluated && math.IsInf(e.baseCost, 1) {
		return math.Inf(1)
	}
	if c, ok := e.condCosts[gid]; ok {
		return c
	}
	a, b := r.nodes[e.a], r.nodes[e.b]
	cost, err := r.integrator.ConditionalCost(r.ss, a.Config, b.Config, gid)
	if err != nil {
		cost = math.Inf(1)
	}
	e.condCosts[gid] = cost
	if r.sinks.Events != nil {
		if werr := r.sinks.Events.WriteEdgeCostGrasp(uint64(e.a), uint64(e.b), string(gid), cost); werr != nil {
			r.log.Warnw("failed to write edge cost trace", "err", werr)
		}
	}
	return cost
}

// EdgeCost returns e's best currently cached estimate when lazy is true
// (the lower bound before resolution, the resolved cost after), or forces
// resolution when lazy is false. gid selects the grasp-conditional variant;
// a nil gid selects the unconditional one.
func (r *Roadmap) EdgeCost(e *Edge, gid *statespace.GraspID, lazy bool) float64 {
	if gid == nil {
		if lazy {
			return e.baseCost
		}
		return r.ComputeCost(e)
	}
	if lazy {
		if c, ok := e.condCosts[*gid]; ok {
			return c
		}
		return e.baseCost
	}
	return r.ComputeCostGrasp(e, *gid)
}
