package costintegrator

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

func TestCostOfZeroLengthEdgeIsZero(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{10, 10}, nil)
	ig := Integrator{}
	a := statespace.Configuration{3, 3}
	test.That(t, ig.Cost(ss, a, a), test.ShouldEqual, 0.0)
}

func TestCostMatchesUniformDensityTimesLength(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{10, 10}, func(float64) float64 { return 2.0 })
	ig := Integrator{StepSize: 0.01}
	a := statespace.Configuration{0, 0}
	b := statespace.Configuration{3, 4}

	cost := ig.Cost(ss, a, b)
	test.That(t, cost, test.ShouldAlmostEqual, 10.0, 0.05)
}

func TestCostShortCircuitsOnObstacle(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{10, 10}, nil)
	ss.AddObstacle(statespace.Configuration{4, 4}, statespace.Configuration{6, 6})
	ig := Integrator{StepSize: 0.1}

	cost := ig.Cost(ss, statespace.Configuration{0, 5}, statespace.Configuration{10, 5})
	test.That(t, math.IsInf(cost, 1), test.ShouldBeTrue)
}

func TestLowerBoundIsDistance(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{10, 10}, nil)
	ig := Integrator{}
	a := statespace.Configuration{0, 0}
	b := statespace.Configuration{3, 4}
	test.That(t, ig.LowerBound(ss, a, b), test.ShouldEqual, 5.0)
}

func TestConditionalCostAppliesAndReleasesGrasp(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{10, 10}, nil)
	ss.AddGraspObstacle("g1", statespace.Configuration{4, 4}, statespace.Configuration{6, 6})
	test.That(t, ss.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)

	ig := Integrator{StepSize: 0.1}
	cost, err := ig.ConditionalCost(ss, statespace.Configuration{0, 5}, statespace.Configuration{10, 5}, "g1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(cost, 1), test.ShouldBeTrue)

	// Grasp must have been released: the same obstacle is inert without it.
	test.That(t, ss.IsValid(statespace.Configuration{5, 5}), test.ShouldBeTrue)

	snap, err := ss.Snapshot()
	test.That(t, err, test.ShouldBeNil)
	_ = snap
	test.That(t, ss.ReleaseGrasp(), test.ShouldEqual, statespace.ErrNoGraspApplied)
}
