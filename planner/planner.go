// Package planner is the public façade: it wires a roadmap, goal set, goal
// heuristic, one of the four search-graph adapters and the lpastar engine
// together behind the new/add_goal/remove_goals/plan surface, dispatching on
// the caller's chosen algorithm and graph family.
package planner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/JoshuaHaustein/hfts_grasp_planner/costintegrator"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/logging"
	"github.com/JoshuaHaustein/hfts_grasp_planner/lpastar"
	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/searchgraph"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
	"github.com/JoshuaHaustein/hfts_grasp_planner/trace"
)

// AlgoType selects which search strategy Plan drives over the chosen graph.
type AlgoType int

const (
	// AStar rebuilds a fresh search each Plan call and resolves every edge
	// on the winning path before returning, trusting no unresolved cost.
	AStar AlgoType = iota
	// LazyWeightedAStar rebuilds a fresh search each Plan call and returns
	// as soon as the lazy (optimistic/cached) costs converge, without
	// resolving the winning path's edges.
	LazyWeightedAStar
	// LPAStarAlgo reuses one lpastar.LPAStar across successive Plan calls,
	// absorbing roadmap/goal changes incrementally, and resolves the
	// winning path's edges before returning.
	LPAStarAlgo
	// LazyWeightedLPAStar reuses one lpastar.LPAStar across calls but never
	// resolves edges beyond what earlier calls already forced.
	LazyWeightedLPAStar
	// LazySPLPAStar reuses one lpastar.LPAStar across calls and always runs
	// the full lazy-search/resolve-path/absorb-and-repeat loop to
	// convergence, the LazySP technique proper.
	LazySPLPAStar
)

// isLPAFamily reports whether a the chosen algorithm keeps incremental
// search state across Plan calls.
func (a AlgoType) isLPAFamily() bool {
	return a == LPAStarAlgo || a == LazyWeightedLPAStar || a == LazySPLPAStar
}

// isEager reports whether a resolves the winning path's edges before
// returning, rather than trusting lazy/cached costs.
func (a AlgoType) isEager() bool {
	return a == AStar || a == LPAStarAlgo || a == LazySPLPAStar
}

// GraphType selects which of the four search-graph adapters backs the
// search.
type GraphType int

const (
	// SingleGraspGraphType fixes one grasp for the whole search.
	SingleGraspGraphType GraphType = iota
	// MultiGraspGraphType replicates the roadmap once per registered grasp.
	MultiGraspGraphType
	// FoldedStationaryGraphType shares a grasp-agnostic base layer across
	// every grasp, lifting into a per-grasp vertex only at goal nodes.
	FoldedStationaryGraphType
	// FoldedDynamicGraphType is FoldedStationary with a base-layer
	// heuristic that narrows as grasps are pruned mid-search; only valid
	// with an LPA*-family algorithm.
	FoldedDynamicGraphType
)

// Params configures a Planner at construction time.
type Params struct {
	AlgoType  AlgoType
	GraphType GraphType
	// Lambda is the raw quality-penalty weight fed to goalheuristic.New.
	Lambda float64
	// ExtremeLazy is reserved for a future laziness policy; it is never read
	// by any component.
	ExtremeLazy bool
}

// Solution is one planned path to one goal.
type Solution struct {
	GoalID statespace.GoalID
	Path   []statespace.Configuration
	Cost   float64
}

var (
	// ErrGraphRequiresLPAFamily is a programmer error: FoldedDynamicGraphType
	// was requested with an algorithm that does not keep incremental state.
	ErrGraphRequiresLPAFamily = errors.New("planner: folded-dynamic graph requires an LPA*-family algorithm")
	// ErrSingleGraspRequiresOneGrasp is a programmer error: SingleGraspGraphType
	// was requested without exactly one grasp registered.
	ErrSingleGraspRequiresOneGrasp = errors.New("planner: single-grasp graph requires exactly one registered grasp")
	// ErrNoGraspsRegistered is a programmer error: a multi-grasp or folded
	// graph type was requested with no grasp registered.
	ErrNoGraspsRegistered = errors.New("planner: graph type requires at least one registered grasp")
	// ErrUnknownGraphType is a programmer error: Params.GraphType held a
	// value outside the four known graph types.
	ErrUnknownGraphType = errors.New("planner: unknown graph type")
)

// Planner is the public façade over roadmap+goalset+goalheuristic+a
// search-graph adapter+lpastar.
type Planner struct {
	ss     statespace.StateSpace
	params Params

	rm    *roadmap.Roadmap
	goals *goalset.GoalSet
	h     *goalheuristic.GoalHeuristic

	grasps   []statespace.GraspID
	startCfg statespace.Configuration
	startID  roadmap.NodeID

	densifyBatch int
	densified    bool

	graph searchgraph.Graph

	engine      *lpastar.LPAStar
	engineGraph searchgraph.Graph

	rmOpts     []roadmap.Option
	integrator roadmap.Integrator

	log logging.Logger
}

// Option configures a Planner at construction.
type Option func(*Planner)

// WithLogger overrides the default blank logger.
func WithLogger(log logging.Logger) Option {
	return func(p *Planner) { p.log = log }
}

// WithTraceSinks attaches trace log sinks to the underlying roadmap.
func WithTraceSinks(sinks trace.Sinks) Option {
	return func(p *Planner) { p.rmOpts = append(p.rmOpts, roadmap.WithTraceSinks(sinks)) }
}

// WithIntegrator overrides the default costintegrator.Integrator used to
// resolve edge cost; mainly useful for tests that want a different step
// size.
func WithIntegrator(integrator roadmap.Integrator) Option {
	return func(p *Planner) { p.integrator = integrator }
}

// WithDensifyBatch overrides how many Halton points are added the first time
// Plan is called against an otherwise bare roadmap. Default 200.
func WithDensifyBatch(n int) Option {
	return func(p *Planner) { p.densifyBatch = n }
}

// New builds a Planner over ss, rooted at startCfg, per params. It registers
// startCfg as the roadmap's first node but performs no validity check or
// sampling yet; both happen lazily on the first Plan call.
func New(ss statespace.StateSpace, startCfg statespace.Configuration, params Params, opts ...Option) *Planner {
	p := &Planner{
		ss:           ss,
		params:       params,
		startCfg:     startCfg,
		densifyBatch: 200,
		log:          logging.NewBlankLogger("planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.integrator == nil {
		p.integrator = costintegrator.Integrator{StepSize: 0.01}
	}

	p.rm = roadmap.New(ss, roadmap.NewHaltonSource(ss.Dimension()), p.integrator, p.rmOpts...)
	p.goals = goalset.New(p.rm)
	p.h = goalheuristic.New(p.goals, ss.Distance, params.Lambda)
	p.startID = p.rm.AddNode(startCfg)
	return p
}

// AddGrasp registers a grasp with the underlying oracle and tracks it for
// graph construction. A grasp must be registered before it can back a
// MultiGrasp/FoldedStationary/FoldedDynamic graph or be named by a goal.
func (p *Planner) AddGrasp(g statespace.Grasp) error {
	if err := p.ss.AddGrasp(g); err != nil {
		return err
	}
	p.grasps = append(p.grasps, g.ID)
	p.invalidateEngine()
	return nil
}

// RemoveGrasp forgets a previously registered grasp. Against a live
// FoldedDynamic graph this narrows the graph's active-grasp set in place and
// feeds the resulting change into the persistent search engine, rather than
// discarding it: absorbing a grasp removal incrementally is the entire
// reason FoldedDynamicGraphType exists over FoldedStationaryGraphType. Every
// other graph type's topology depends on the grasp set directly, so it still
// forces a fresh graph and engine.
func (p *Planner) RemoveGrasp(gid statespace.GraspID) error {
	if err := p.ss.RemoveGrasp(gid); err != nil {
		return err
	}
	for i, id := range p.grasps {
		if id == gid {
			p.grasps = append(p.grasps[:i], p.grasps[i+1:]...)
			break
		}
	}

	if fd, ok := p.graph.(*searchgraph.FoldedDynamic); ok {
		p.pruneDynamicGrasp(fd, gid)
		return nil
	}

	p.invalidateEngine()
	return nil
}

// pruneDynamicGrasp narrows fd's active set and, if a persistent engine is
// already running over it, synthesizes an EdgeChange per lift edge gid used
// to offer (old cost 0, now +Inf per FoldedDynamic.EdgeCost) so UpdateEdges
// can repair any rhs that had settled on lifting through gid, then refreshes
// every materialized vertex's cached heuristic, which narrowed along with
// the active set.
func (p *Planner) pruneDynamicGrasp(fd *searchgraph.FoldedDynamic, gid statespace.GraspID) {
	if !fd.PruneGrasp(gid) || p.engine == nil {
		return
	}

	var changes []searchgraph.EdgeChange
	for _, goal := range p.goals.Goals() {
		if goal.GraspID != gid {
			continue
		}
		nodeID, ok := p.goals.NodeFor(goal.ID)
		if !ok {
			continue
		}
		changes = append(changes, searchgraph.EdgeChange{
			U:       searchgraph.VertexID{Node: nodeID},
			V:       searchgraph.VertexID{Node: nodeID, Grasp: gid},
			OldCost: 0,
		})
	}
	if len(changes) > 0 {
		p.engine.UpdateEdges(changes)
	}
	p.engine.RefreshHeuristic()
	// A goal reached only through the now-pruned grasp may have been the
	// tracked best candidate; re-derive it the same way a goal removal does.
	p.engine.ResetGoalTracking()
}

// AddGoal registers a goal. Duplicate ids surface goalset.ErrDuplicateGoalID.
func (p *Planner) AddGoal(g goalset.Goal) error {
	if err := p.goals.AddGoal(g); err != nil {
		return err
	}
	if p.engine != nil {
		p.engine.ResetGoalTracking()
	}
	return nil
}

// RemoveGoals deletes the named goals; unknown ids are ignored.
func (p *Planner) RemoveGoals(ids []statespace.GoalID) {
	p.goals.RemoveGoals(ids)
	if p.engine != nil {
		p.engine.ResetGoalTracking()
	}
}

// invalidateEngine drops any persistent incremental search state and the
// graph it was built over: the graph shape itself changed (a grasp came or
// went), so reusing the old g/rhs state would be searching the wrong graph.
func (p *Planner) invalidateEngine() {
	p.engine = nil
	p.engineGraph = nil
	p.graph = nil
}

// ensureGraph returns the cached search graph, building (and caching) it on
// first use or after invalidateEngine cleared it. Caching across Plan calls
// is what lets a FoldedDynamic graph's active-grasp narrowing in
// pruneDynamicGrasp survive to the next Plan call instead of being rebuilt
// fresh with every grasp back in the active set.
func (p *Planner) ensureGraph() (searchgraph.Graph, error) {
	if p.graph != nil {
		return p.graph, nil
	}
	g, err := p.buildGraph()
	if err != nil {
		return nil, err
	}
	p.graph = g
	return g, nil
}

func (p *Planner) buildGraph() (searchgraph.Graph, error) {
	switch p.params.GraphType {
	case SingleGraspGraphType:
		if len(p.grasps) != 1 {
			return nil, errors.Wrapf(ErrSingleGraspRequiresOneGrasp, "have %d", len(p.grasps))
		}
		return searchgraph.NewSingleGrasp(p.rm, p.goals, p.h, p.grasps[0], p.startID), nil
	case MultiGraspGraphType:
		if len(p.grasps) == 0 {
			return nil, ErrNoGraspsRegistered
		}
		return searchgraph.NewMultiGrasp(p.rm, p.goals, p.h, p.grasps, p.startID, p.grasps[0]), nil
	case FoldedStationaryGraphType:
		if len(p.grasps) == 0 {
			return nil, ErrNoGraspsRegistered
		}
		return searchgraph.NewFoldedStationary(p.rm, p.goals, p.h, p.startID), nil
	case FoldedDynamicGraphType:
		if !p.params.AlgoType.isLPAFamily() {
			return nil, ErrGraphRequiresLPAFamily
		}
		if len(p.grasps) == 0 {
			return nil, ErrNoGraspsRegistered
		}
		return searchgraph.NewFoldedDynamic(p.rm, p.goals, p.h, p.startID, p.grasps), nil
	default:
		return nil, errors.Wrapf(ErrUnknownGraphType, "%v", p.params.GraphType)
	}
}

func (p *Planner) ensureDensified() {
	if p.densified {
		return
	}
	p.densified = true
	p.rm.Densify(p.densifyBatch)
}

// Plan runs one planning attempt and returns the best solution found, or
// (nil, nil) if the query is infeasible (no path from the start
// configuration to any registered goal, or the start configuration itself
// is invalid). A non-nil error is either ctx's cancellation error, or a
// programmer error: no goals registered, an unknown graph type, or a
// graph/algorithm combination the façade refuses to build.
func (p *Planner) Plan(ctx context.Context) (*Solution, error) {
	if len(p.goals.Goals()) == 0 {
		return nil, goalheuristic.ErrNoGoals
	}

	p.ensureDensified()

	g, err := p.ensureGraph()
	if err != nil {
		return nil, err
	}

	// The start vertex's validity is grasp-conditional for every graph type
	// except the grasp-agnostic base layer (FoldedStationary/FoldedDynamic):
	// the task assumes the object is already grasped at the start, so a
	// configuration the bare arm could occupy but the held object cannot is
	// still an invalid start. CheckValidity is each adapter's own authority
	// on this, not the roadmap's unconditional IsValid.
	if !g.CheckValidity(g.StartNode()) {
		return nil, nil
	}

	engine := p.engineFor(g)

	var res lpastar.Result
	if p.params.AlgoType.isEager() {
		res, err = resolveToConvergence(ctx, engine, g)
		if err != nil {
			return nil, err
		}
	} else {
		res = engine.ComputeShortestPath(ctx)
	}

	if res.Interrupted {
		return nil, ctx.Err()
	}
	if !res.Solved {
		return nil, nil
	}

	path, err := engine.ExtractPath()
	if err != nil {
		return nil, err
	}
	return p.solutionFrom(g, res, path)
}

// engineFor returns the search engine to drive: a fresh one for A*-family
// algorithms (no state carries across Plan calls), or the persisted one for
// LPA*-family algorithms, building it on first use or after the graph shape
// changed.
func (p *Planner) engineFor(g searchgraph.Graph) *lpastar.LPAStar {
	if !p.params.AlgoType.isLPAFamily() {
		return lpastar.New(g, lpastar.WithLogger(p.log))
	}
	if p.engine == nil || p.engineGraph != g {
		p.engine = lpastar.New(g, lpastar.WithLogger(p.log))
		p.engineGraph = g
	}
	return p.engine
}

// resolveToConvergence runs the LazySP technique: search against lazy
// costs, resolve every edge on the reported path, and repeat for as long as
// resolving changes any of them. Once a pass resolves nothing new, the
// reported path is confirmed optimal under true (non-lazy) costs.
func resolveToConvergence(ctx context.Context, engine *lpastar.LPAStar, g searchgraph.Graph) (lpastar.Result, error) {
	for {
		res := engine.ComputeShortestPath(ctx)
		if res.Interrupted || !res.Solved {
			return res, nil
		}

		path, err := engine.ExtractPath()
		if err != nil {
			return res, err
		}
		for i := 0; i+1 < len(path); i++ {
			g.EdgeCost(path[i], path[i+1], false)
		}

		changes := g.DrainEdgeChanges()
		if len(changes) == 0 {
			return res, nil
		}
		engine.UpdateEdges(changes)
	}
}

// solutionFrom converts an LPA* result and its extracted vertex path into a
// Solution, recovering the goal_id of the vertex the search settled on.
func (p *Planner) solutionFrom(g searchgraph.Graph, res lpastar.Result, path []searchgraph.VertexID) (*Solution, error) {
	nodeID, gid := g.GraspRoadmapID(res.GoalNode)
	var goalID statespace.GoalID
	found := false
	for _, goal := range p.goals.GoalsAtNode(nodeID) {
		if goal.GraspID == gid {
			goalID = goal.ID
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("planner: resolved goal vertex has no matching goal record")
	}

	cfgs := make([]statespace.Configuration, 0, len(path))
	for _, v := range path {
		n, ok := p.rm.GetNode(v.Node)
		if !ok {
			return nil, errors.New("planner: path references an unknown roadmap node")
		}
		cfgs = append(cfgs, n.Config)
	}

	return &Solution{GoalID: goalID, Path: cfgs, Cost: res.PathCost}, nil
}
