// Package lpastar implements Lifelong Planning A*: an incremental shortest
// path search that reuses a previous search's g/rhs state across a graph's
// successive edge-cost updates instead of replanning from scratch. It is
// driven purely through the searchgraph.Graph interface, so it has no
// knowledge of roadmaps, grasps or configurations.
package lpastar

import (
	"container/heap"
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/JoshuaHaustein/hfts_grasp_planner/logging"
	"github.com/JoshuaHaustein/hfts_grasp_planner/searchgraph"
)

// ErrNoSolution is returned by ExtractPath when the search has not found a
// goal, or no longer has one after an edge-change absorption ruled it out.
var ErrNoSolution = errors.New("lpastar: no solution")

// ErrBrokenParentChain is returned by ExtractPath if the parent pointers
// rooted at the reported goal do not reach the start vertex. It signals a
// bug in the search-graph adapter or in the engine itself, never a normal
// planning outcome.
var ErrBrokenParentChain = errors.New("lpastar: parent chain does not reach start")

// Result is the outcome of a ComputeShortestPath call: the best goal found
// so far (which may improve on a later call, or be invalidated by an
// edge-change absorption), and whether the search completed or was stopped
// by context cancellation first.
type Result struct {
	Solved      bool
	GoalNode    searchgraph.VertexID
	PathCost    float64
	GoalCost    float64
	Interrupted bool
}

// TotalCost is PathCost+GoalCost, the quantity LPA*'s termination test
// compares against the open queue's minimum key.
func (r Result) TotalCost() float64 {
	if !r.Solved {
		return math.Inf(1)
	}
	return r.PathCost + r.GoalCost
}

// LPAStar holds one incremental search's state over a searchgraph.Graph.
// Vertex bookkeeping is materialized lazily as vertices are first touched,
// so its memory footprint tracks the explored frontier, not the whole
// graph.
type LPAStar struct {
	graph searchgraph.Graph
	start searchgraph.VertexID

	vertices map[searchgraph.VertexID]*vertexData
	queue    vertexHeap

	goalKey Key
	result  Result

	log logging.Logger
}

// Option configures an LPAStar at construction.
type Option func(*LPAStar)

// WithLogger overrides the default blank logger.
func WithLogger(log logging.Logger) Option {
	return func(l *LPAStar) { l.log = log }
}

// New builds an LPAStar over graph, rooted at graph.StartNode().
func New(graph searchgraph.Graph, opts ...Option) *LPAStar {
	l := &LPAStar{
		graph:    graph,
		start:    graph.StartNode(),
		vertices: make(map[searchgraph.VertexID]*vertexData),
		goalKey:  Key{Primary: math.Inf(1), Secondary: math.Inf(1)},
		log:      logging.NewBlankLogger("lpastar"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result returns the most recently computed outcome without running any
// more search; useful after UpdateEdges to inspect whether the previous
// solution is still standing before paying for ComputeShortestPath.
func (l *LPAStar) Result() Result { return l.result }

// getVertex lazily materializes v's bookkeeping on first reference:
// g=rhs=+Inf, h=graph.Heuristic(v), except the start vertex, whose rhs is 0
// per LPA*'s standard initialization (Initialize() sets rhs(start)=0 and
// leaves g(start)=+Inf, so the very first ComputeShortestPath pop drives it
// to g=rhs=0 and fans out from there; seeding g(start)=0 directly would
// leave it permanently consistent and never expanded).
func (l *LPAStar) getVertex(v searchgraph.VertexID) *vertexData {
	if vd, ok := l.vertices[v]; ok {
		return vd
	}
	vd := &vertexData{
		v:     v,
		g:     math.Inf(1),
		rhs:   math.Inf(1),
		h:     l.graph.Heuristic(v),
		index: -1,
	}
	if v == l.start {
		vd.rhs = 0
		vd.parent = v
		vd.hasParent = true
	}
	l.vertices[v] = vd
	l.updateVertex(vd)
	return vd
}

// updateVertex reconciles vd's queue membership with its current
// consistency (g==rhs means it has nothing left to propagate) and refreshes
// goal tracking. Call after any change to vd.g or vd.rhs.
func (l *LPAStar) updateVertex(vd *vertexData) {
	consistent := vd.g == vd.rhs
	switch {
	case !consistent && !vd.queued:
		vd.queued = true
		heap.Push(&l.queue, vd)
	case !consistent && vd.queued:
		heap.Fix(&l.queue, vd.index)
	case consistent && vd.queued:
		heap.Remove(&l.queue, vd.index)
		vd.queued = false
	}
	l.updateGoalTracking(vd)
}

// updateGoalTracking records vd as the current best solution if it is a
// goal vertex and beats the previous best by (g+goalCost, g) order, matching
// the same lexicographic key LPA* uses for its own termination test.
func (l *LPAStar) updateGoalTracking(vd *vertexData) {
	if !l.graph.IsGoal(vd.v) {
		return
	}
	gc := l.graph.GoalCost(vd.v)
	candidate := Key{Primary: vd.g + gc, Secondary: vd.g}
	if !candidate.Less(l.goalKey) {
		return
	}
	l.goalKey = candidate
	l.result = Result{
		Solved:   vd.g == vd.rhs,
		GoalNode: vd.v,
		PathCost: vd.g,
		GoalCost: gc,
	}
}

// tryRelax offers s a path through u of length u.g+cost, adopting it (and
// recording u as s's parent) only if it strictly improves s.rhs.
func (l *LPAStar) tryRelax(u *vertexData, sID searchgraph.VertexID, cost float64) {
	if math.IsInf(u.g, 1) {
		return
	}
	s := l.getVertex(sID)
	candidate := u.g + cost
	if candidate < s.rhs {
		s.rhs = candidate
		s.parent = u.v
		s.hasParent = true
		l.updateVertex(s)
	}
}

// recomputeRHS recomputes s.rhs from scratch as the minimum over every
// predecessor's g plus edge cost, breaking ties by predecessor traversal
// order (Predecessors already yields a deterministic, ascending order, so
// two runs pick the same parent on a tie).
func (l *LPAStar) recomputeRHS(s *vertexData) {
	if s.v == l.start {
		return
	}
	best := math.Inf(1)
	var bestParent searchgraph.VertexID
	hasBest := false

	it := l.graph.Predecessors(s.v, true)
	for {
		pID, ok := it.Next()
		if !ok {
			break
		}
		p := l.getVertex(pID)
		cost := l.graph.EdgeCost(pID, s.v, true)
		if math.IsInf(p.g, 1) || math.IsInf(cost, 1) {
			continue
		}
		candidate := p.g + cost
		if candidate < best {
			best = candidate
			bestParent = pID
			hasBest = true
		}
	}
	s.rhs = best
	s.hasParent = hasBest
	if hasBest {
		s.parent = bestParent
	}
}

// ComputeShortestPath runs LPA*'s main loop until the queue empties or the
// best goal's key no longer exceeds the queue's minimum (nothing left in
// the queue could beat it), or ctx is cancelled. It may be called again
// after UpdateEdges to resume from the current, partially-repaired state.
func (l *LPAStar) ComputeShortestPath(ctx context.Context) Result {
	l.getVertex(l.start)

	for l.queue.Len() > 0 {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return l.interruptedResult()
			default:
			}
		}

		top := l.queue[0]
		if l.result.Solved && !top.key().Less(l.goalKey) {
			break
		}

		u := heap.Pop(&l.queue).(*vertexData)
		u.queued = false

		if u.g > u.rhs {
			u.g = u.rhs
			l.relaxSuccessorsOf(u)
		} else {
			u.g = math.Inf(1)
			l.recomputeThroughParent(u)
		}
		l.updateVertex(u)
	}
	return l.result
}

func (l *LPAStar) interruptedResult() Result {
	r := l.result
	r.Interrupted = true
	return r
}

func (l *LPAStar) relaxSuccessorsOf(u *vertexData) {
	it := l.graph.Successors(u.v, true)
	for {
		sID, ok := it.Next()
		if !ok {
			break
		}
		cost := l.graph.EdgeCost(u.v, sID, true)
		l.tryRelax(u, sID, cost)
	}
}

// recomputeThroughParent re-derives rhs for every successor of u that had
// adopted u as its parent: u turning underconsistent->+Inf may have been
// their only reason to believe that path was cheapest.
func (l *LPAStar) recomputeThroughParent(u *vertexData) {
	it := l.graph.Successors(u.v, true)
	for {
		sID, ok := it.Next()
		if !ok {
			break
		}
		s := l.getVertex(sID)
		if s.hasParent && s.parent == u.v {
			l.recomputeRHS(s)
			l.updateVertex(s)
		}
	}
}

// UpdateEdges absorbs a batch of EdgeChange records reported by the
// search-graph adapter since the last resolution pass. A cost decrease is
// relaxed directly at v through u; a cost increase only matters if v had
// been relying on u as its parent, in which case rhs(v) is recomputed from
// scratch over all of v's predecessors. Call ComputeShortestPath again
// afterward to propagate the repair.
func (l *LPAStar) UpdateEdges(changes []searchgraph.EdgeChange) {
	for _, ch := range changes {
		u := l.getVertex(ch.U)
		v := l.getVertex(ch.V)
		newCost := l.graph.EdgeCost(ch.U, ch.V, true)

		if ch.OldCost > newCost {
			l.tryRelax(u, ch.V, newCost)
		} else if ch.V != l.start && v.hasParent && v.parent == ch.U {
			l.recomputeRHS(v)
			l.updateVertex(v)
		}
	}
}

// ResetGoalTracking re-derives the current best goal candidate from already
// materialized vertex state, without touching any g/rhs progress. Call this
// after the caller's goal set changes (a goal added or removed): goal
// membership is not modeled as an edge-cost change, so UpdateEdges has no
// other way to learn that the previous best goal may no longer qualify, or
// that a previously non-goal vertex now does.
func (l *LPAStar) ResetGoalTracking() {
	l.goalKey = Key{Primary: math.Inf(1), Secondary: math.Inf(1)}
	l.result = Result{}
	for _, vd := range l.vertices {
		l.updateGoalTracking(vd)
	}
}

// RefreshHeuristic re-queries graph.Heuristic for every materialized vertex
// and re-seats it in the priority queue if its key moved. Call this after
// something other than an edge-cost change alters h — such as
// searchgraph.FoldedDynamic.PruneGrasp narrowing the base layer's admissible
// estimate — since UpdateEdges has no other way to learn that a queued
// vertex's key is now stale.
func (l *LPAStar) RefreshHeuristic() {
	for _, vd := range l.vertices {
		vd.h = l.graph.Heuristic(vd.v)
		if vd.queued {
			heap.Fix(&l.queue, vd.index)
		}
	}
}

// ExtractPath walks parent pointers back from the most recently reported
// goal to the start vertex. It fails if no solution has been found yet, or
// if the parent chain is broken or cyclic (a bug, never a legitimate
// outcome of a correctly implemented search-graph adapter).
func (l *LPAStar) ExtractPath() ([]searchgraph.VertexID, error) {
	if !l.result.Solved {
		return nil, ErrNoSolution
	}

	var path []searchgraph.VertexID
	seen := make(map[searchgraph.VertexID]bool)
	cur := l.result.GoalNode

	for {
		if seen[cur] {
			return nil, ErrBrokenParentChain
		}
		seen[cur] = true
		path = append(path, cur)
		if cur == l.start {
			break
		}
		vd, ok := l.vertices[cur]
		if !ok || !vd.hasParent {
			return nil, ErrBrokenParentChain
		}
		cur = vd.parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
