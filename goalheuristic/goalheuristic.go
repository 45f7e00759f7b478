// Package goalheuristic turns a goal set into a cost-to-go estimate that
// blends a path-cost lower bound with a quality penalty, so the search
// engine can compare partial paths toward different goals on one scale.
package goalheuristic

import (
	"math"

	"github.com/pkg/errors"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// ErrNoGoals is a programmer error: a heuristic was queried before any goal
// was registered. Cost-to-go cannot be synthesized with no goals to aim at.
var ErrNoGoals = errors.New("goalheuristic: no goals known")

// minDeltaQ floors q_max - q_min so lambda' never divides by (near) zero
// when every known goal shares the same quality.
const minDeltaQ = 1e-9

// DistanceFunc is a path-cost lower bound between two configurations; it
// must be admissible (never overestimate true path cost) for the resulting
// heuristic to preserve search optimality.
type DistanceFunc func(a, b statespace.Configuration) float64

// GoalHeuristic estimates cost-to-go against a goalset.GoalSet, nearest
// over either all goals or only those reachable under one grasp. Goal
// counts in this domain are small (tens, not millions), so both lookups are
// a linear scan rather than a dedicated index structure.
type GoalHeuristic struct {
	goals  *goalset.GoalSet
	dist   DistanceFunc
	lambda float64
}

// New builds a GoalHeuristic over goals, using dist as the admissible
// path-cost lower bound and lambda as the raw quality-penalty weight (before
// normalization by the spread of currently known goal qualities).
func New(goals *goalset.GoalSet, dist DistanceFunc, lambda float64) *GoalHeuristic {
	return &GoalHeuristic{goals: goals, dist: dist, lambda: lambda}
}

// bounds returns the min/max quality among currently registered goals.
func (h *GoalHeuristic) bounds() (qmin, qmax float64, err error) {
	goals := h.goals.Goals()
	if len(goals) == 0 {
		return 0, 0, ErrNoGoals
	}
	qmin, qmax = goals[0].Quality, goals[0].Quality
	for _, g := range goals[1:] {
		if g.Quality < qmin {
			qmin = g.Quality
		}
		if g.Quality > qmax {
			qmax = g.Quality
		}
	}
	return qmin, qmax, nil
}

// lambdaPrime returns lambda' = lambda / max(q_max - q_min, minDeltaQ) and
// q_max, the reference quality every goal cost is measured against.
func (h *GoalHeuristic) lambdaPrime() (lambdaPrime, qmax float64, err error) {
	qmin, qmax, err := h.bounds()
	if err != nil {
		return 0, 0, err
	}
	deltaQ := math.Max(qmax-qmin, minDeltaQ)
	return h.lambda / deltaQ, qmax, nil
}

// goalDistance is d(a, g.config) + lambda'*(qmax - g.quality), the blended
// cost of reaching and terminating at g from a.
func goalDistance(dist DistanceFunc, a statespace.Configuration, g *goalset.Goal, lambdaPrime, qmax float64) float64 {
	return dist(a, g.Config) + lambdaPrime*(qmax-g.Quality)
}

// CostToGo returns the nearest blended goal distance over every registered
// goal, regardless of grasp.
func (h *GoalHeuristic) CostToGo(a statespace.Configuration) (float64, error) {
	lp, qmax, err := h.lambdaPrime()
	if err != nil {
		return 0, err
	}
	best := math.Inf(1)
	for _, g := range h.goals.Goals() {
		if d := goalDistance(h.dist, a, g, lp, qmax); d < best {
			best = d
		}
	}
	return best, nil
}

// CostToGoGrasp returns the nearest blended goal distance over goals
// reachable under grasp gid. If no goal uses gid, the result is +Inf: no
// path confined to that grasp's layer can reach a goal.
func (h *GoalHeuristic) CostToGoGrasp(a statespace.Configuration, gid statespace.GraspID) (float64, error) {
	lp, qmax, err := h.lambdaPrime()
	if err != nil {
		return 0, err
	}
	best := math.Inf(1)
	for _, g := range h.goals.Goals() {
		if g.GraspID != gid {
			continue
		}
		if d := goalDistance(h.dist, a, g, lp, qmax); d < best {
			best = d
		}
	}
	return best, nil
}

// CostToGoAmong returns the nearest blended goal distance over goals whose
// grasp is a member of active. Used by the folded-dynamic search graph,
// whose base-layer heuristic narrows as grasps are pruned from contention.
func (h *GoalHeuristic) CostToGoAmong(a statespace.Configuration, active map[statespace.GraspID]bool) (float64, error) {
	lp, qmax, err := h.lambdaPrime()
	if err != nil {
		return 0, err
	}
	best := math.Inf(1)
	for _, g := range h.goals.Goals() {
		if !active[g.GraspID] {
			continue
		}
		if d := goalDistance(h.dist, a, g, lp, qmax); d < best {
			best = d
		}
	}
	return best, nil
}

// GoalCost returns the terminal penalty lambda'*(qmax - quality) paid on
// arrival at a goal with the given quality.
func (h *GoalHeuristic) GoalCost(quality float64) (float64, error) {
	lp, qmax, err := h.lambdaPrime()
	if err != nil {
		return 0, err
	}
	return lp * (qmax - quality), nil
}
