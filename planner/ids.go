package planner

import (
	"github.com/google/uuid"

	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// NewGoalID returns a fresh, randomly generated goal id, for callers that
// have no natural identifier of their own to use.
func NewGoalID() statespace.GoalID {
	return statespace.GoalID(uuid.NewString())
}

// NewGraspID returns a fresh, randomly generated grasp id.
func NewGraspID() statespace.GraspID {
	return statespace.GraspID(uuid.NewString())
}
