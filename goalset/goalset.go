// Package goalset maps goal identifiers to (configuration, grasp, quality)
// records, cross-linked into roadmap nodes.
package goalset

import (
	"github.com/pkg/errors"

	"github.com/JoshuaHaustein/hfts_grasp_planner/roadmap"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// ErrDuplicateGoalID is a programmer error: AddGoal was called with an id
// already in use.
var ErrDuplicateGoalID = errors.New("goalset: duplicate goal id")

// ErrUnknownGoalID is a programmer error: a lookup referenced a goal id the
// set has no record of.
var ErrUnknownGoalID = errors.New("goalset: unknown goal id")

// Goal is a candidate terminal state: a configuration, the grasp it assumes
// the object is held in, and a quality score (higher is better).
type Goal struct {
	ID      statespace.GoalID
	Config  statespace.Configuration
	GraspID statespace.GraspID
	Quality float64
}

// GoalSet owns the goal_id -> Goal map and its cross-link into roadmap
// nodes.
type GoalSet struct {
	rm      *roadmap.Roadmap
	goals   map[statespace.GoalID]*Goal
	nodeOf  map[statespace.GoalID]roadmap.NodeID
	goalsAt map[roadmap.NodeID][]statespace.GoalID
}

// New builds an empty GoalSet backed by rm.
func New(rm *roadmap.Roadmap) *GoalSet {
	return &GoalSet{
		rm:      rm,
		goals:   make(map[statespace.GoalID]*Goal),
		nodeOf:  make(map[statespace.GoalID]roadmap.NodeID),
		goalsAt: make(map[roadmap.NodeID][]statespace.GoalID),
	}
}

// AddGoal inserts g's configuration as a roadmap node and remembers the
// goal_id <-> node association. Returns ErrDuplicateGoalID if g.ID is
// already present.
func (gs *GoalSet) AddGoal(g Goal) error {
	if _, exists := gs.goals[g.ID]; exists {
		return errors.Wrapf(ErrDuplicateGoalID, "%q", g.ID)
	}
	nodeID := gs.rm.AddNode(g.Config)
	stored := g
	gs.goals[g.ID] = &stored
	gs.nodeOf[g.ID] = nodeID
	gs.goalsAt[nodeID] = append(gs.goalsAt[nodeID], g.ID)
	return nil
}

// RemoveGoals deletes the goal_id <-> node associations for ids, leaving the
// roadmap nodes themselves in place. Unknown ids are ignored.
func (gs *GoalSet) RemoveGoals(ids []statespace.GoalID) {
	for _, id := range ids {
		nodeID, ok := gs.nodeOf[id]
		if !ok {
			continue
		}
		delete(gs.goals, id)
		delete(gs.nodeOf, id)

		remaining := gs.goalsAt[nodeID][:0]
		for _, gid := range gs.goalsAt[nodeID] {
			if gid != id {
				remaining = append(remaining, gid)
			}
		}
		if len(remaining) == 0 {
			delete(gs.goalsAt, nodeID)
		} else {
			gs.goalsAt[nodeID] = remaining
		}
	}
}

// Goal looks up a goal by id.
func (gs *GoalSet) Goal(id statespace.GoalID) (*Goal, error) {
	g, ok := gs.goals[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownGoalID, "%q", id)
	}
	return g, nil
}

// NodeFor returns the roadmap node id associated with goal id.
func (gs *GoalSet) NodeFor(id statespace.GoalID) (roadmap.NodeID, bool) {
	nodeID, ok := gs.nodeOf[id]
	return nodeID, ok
}

// Goals returns every currently registered goal. Order is unspecified.
func (gs *GoalSet) Goals() []*Goal {
	out := make([]*Goal, 0, len(gs.goals))
	for _, g := range gs.goals {
		out = append(out, g)
	}
	return out
}

// IsGoal reports whether nodeID, grasp-conditionally valid for gid, hosts a
// goal whose grasp is exactly gid.
func (gs *GoalSet) IsGoal(nodeID roadmap.NodeID, gid statespace.GraspID) bool {
	ids, ok := gs.goalsAt[nodeID]
	if !ok {
		return false
	}
	for _, goalID := range ids {
		g := gs.goals[goalID]
		if g.GraspID == gid && gs.rm.IsValidGrasp(nodeID, gid) {
			return true
		}
	}
	return false
}

// GoalsAtNode returns every goal (of any grasp) hosted at nodeID.
func (gs *GoalSet) GoalsAtNode(nodeID roadmap.NodeID) []*Goal {
	ids := gs.goalsAt[nodeID]
	out := make([]*Goal, 0, len(ids))
	for _, id := range ids {
		out = append(out, gs.goals[id])
	}
	return out
}
