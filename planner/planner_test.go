package planner

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/JoshuaHaustein/hfts_grasp_planner/goalheuristic"
	"github.com/JoshuaHaustein/hfts_grasp_planner/goalset"
	"github.com/JoshuaHaustein/hfts_grasp_planner/searchgraph"
	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

func TestPlanFindsShortestPathOnIdentityOracle(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{1, 1}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0, 0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1}, WithDensifyBatch(400))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{1, 1}, GraspID: "g1"}), test.ShouldBeNil)

	sol, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldNotBeNil)
	test.That(t, sol.GoalID, test.ShouldEqual, statespace.GoalID("goal"))

	lb := math.Sqrt(2.0)
	test.That(t, sol.Cost, test.ShouldBeGreaterThanOrEqualTo, lb-1e-6)
	test.That(t, len(sol.Path), test.ShouldBeGreaterThanOrEqualTo, 2)
	test.That(t, sol.Path[0], test.ShouldResemble, statespace.Configuration{0, 0})
	last := sol.Path[len(sol.Path)-1]
	test.That(t, ss.Distance(last, statespace.Configuration{1, 1}), test.ShouldBeLessThan, 1e-9)
}

func TestPlanInfeasibleWhenStartInvalidOnlyUnderGrasp(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{1, 1}, statespace.IdentityCost)
	// The bare start configuration is unobstructed; only the object carried
	// in g1 collides with anything there.
	ss.AddGraspObstacle("g1", statespace.Configuration{-0.1, -0.1}, statespace.Configuration{0.1, 0.1})
	test.That(t, ss.IsValid(statespace.Configuration{0, 0}), test.ShouldBeTrue)

	p := New(ss, statespace.Configuration{0, 0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1}, WithDensifyBatch(100))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{1, 1}, GraspID: "g1"}), test.ShouldBeNil)

	sol, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldBeNil)
}

func TestPlanInfeasibleWhenObstacleSpansOnlyDimension(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{1}, statespace.IdentityCost)
	ss.AddObstacle(statespace.Configuration{0.4}, statespace.Configuration{0.6})

	p := New(ss, statespace.Configuration{0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1}, WithDensifyBatch(200))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{1}, GraspID: "g1"}), test.ShouldBeNil)

	sol, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldBeNil)
}

func TestPlanSelectsGoalByBlendedQualityNotRawDistance(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{10}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 5}, WithDensifyBatch(60))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)

	// lambda' = 5/(10-0) = 0.5.
	// Nearer goal, low quality: total cost ~= 2 + 0.5*(10-0) = 7.
	test.That(t, p.AddGoal(goalset.Goal{ID: "near-low-quality", Config: statespace.Configuration{2}, GraspID: "g1", Quality: 0}), test.ShouldBeNil)
	// Farther goal, top quality: total cost ~= 4 + 0.5*(10-10) = 4.
	test.That(t, p.AddGoal(goalset.Goal{ID: "far-high-quality", Config: statespace.Configuration{4}, GraspID: "g1", Quality: 10}), test.ShouldBeNil)

	sol, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldNotBeNil)
	test.That(t, sol.GoalID, test.ShouldEqual, statespace.GoalID("far-high-quality"))
}

func TestPlanReplansAfterGoalRemovalWithPersistentEngine(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{10}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: LPAStarAlgo, GraphType: SingleGraspGraphType, Lambda: 1}, WithDensifyBatch(60))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "far", Config: statespace.Configuration{8}, GraspID: "g1"}), test.ShouldBeNil)

	first, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldNotBeNil)
	test.That(t, first.GoalID, test.ShouldEqual, statespace.GoalID("far"))
	firstEngine := p.engine

	p.RemoveGoals([]statespace.GoalID{"far"})
	test.That(t, p.AddGoal(goalset.Goal{ID: "near", Config: statespace.Configuration{1}, GraspID: "g1"}), test.ShouldBeNil)

	second, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldNotBeNil)
	test.That(t, second.GoalID, test.ShouldEqual, statespace.GoalID("near"))
	test.That(t, second.Cost, test.ShouldBeLessThan, first.Cost)

	// The same incremental search engine survived across both Plan calls;
	// the graph shape (grasp set) never changed, so it was never invalidated.
	test.That(t, p.engine, test.ShouldEqual, firstEngine)
}

func TestPlanSurfacesNoGoalsAsProgrammerError(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{1}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1})

	sol, err := p.Plan(context.Background())
	test.That(t, sol, test.ShouldBeNil)
	test.That(t, err, test.ShouldEqual, goalheuristic.ErrNoGoals)
}

func TestPlanSurfacesWrongGraspCountForSingleGrasp(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{1}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1})
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{1}, GraspID: "g1"}), test.ShouldBeNil)

	_, err := p.Plan(context.Background())
	test.That(t, errors.Is(err, ErrSingleGraspRequiresOneGrasp), test.ShouldBeTrue)
}

func TestFoldedDynamicRejectsNonLPAFamilyAlgo(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{1}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: AStar, GraphType: FoldedDynamicGraphType, Lambda: 1})
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{1}, GraspID: "g1"}), test.ShouldBeNil)

	_, err := p.Plan(context.Background())
	test.That(t, errors.Is(err, ErrGraphRequiresLPAFamily), test.ShouldBeTrue)
}

func TestRemoveGraspPrunesFoldedDynamicWithoutDiscardingEngine(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0}, statespace.Configuration{10}, statespace.IdentityCost)
	p := New(ss, statespace.Configuration{0}, Params{AlgoType: LPAStarAlgo, GraphType: FoldedDynamicGraphType, Lambda: 1}, WithDensifyBatch(60))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "near-grasp"}), test.ShouldBeNil)
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "far-grasp"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "near", Config: statespace.Configuration{2}, GraspID: "near-grasp"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "far", Config: statespace.Configuration{8}, GraspID: "far-grasp"}), test.ShouldBeNil)

	first, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldNotBeNil)
	test.That(t, first.GoalID, test.ShouldEqual, statespace.GoalID("near"))
	firstEngine := p.engine
	firstGraph := p.graph

	// Removing the grasp that was never winning exercises PruneGrasp against
	// the live graph without depending on the already-settled best path.
	test.That(t, p.RemoveGrasp("far-grasp"), test.ShouldBeNil)

	fd, ok := p.graph.(*searchgraph.FoldedDynamic)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, fd.ActiveGrasps(), test.ShouldNotContainKey, statespace.GraspID("far-grasp"))

	// The engine and graph were narrowed in place, not rebuilt.
	test.That(t, p.graph, test.ShouldEqual, firstGraph)
	test.That(t, p.engine, test.ShouldEqual, firstEngine)

	second, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldNotBeNil)
	test.That(t, second.GoalID, test.ShouldEqual, statespace.GoalID("near"))
	test.That(t, p.engine, test.ShouldEqual, firstEngine)
}

func TestPlanFindsDetourAroundObstacle(t *testing.T) {
	ss := statespace.NewBoxObstacleStateSpace(statespace.Configuration{0, 0}, statespace.Configuration{1, 1}, statespace.IdentityCost)
	ss.AddObstacle(statespace.Configuration{0.4, 0}, statespace.Configuration{0.6, 0.8})

	p := New(ss, statespace.Configuration{0.1, 0.5}, Params{AlgoType: AStar, GraphType: SingleGraspGraphType, Lambda: 1}, WithDensifyBatch(500))
	test.That(t, p.AddGrasp(statespace.Grasp{ID: "g1"}), test.ShouldBeNil)
	test.That(t, p.AddGoal(goalset.Goal{ID: "goal", Config: statespace.Configuration{0.9, 0.5}, GraspID: "g1"}), test.ShouldBeNil)

	sol, err := p.Plan(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldNotBeNil)
	// The obstacle blocks the straight line; any valid detour costs strictly
	// more than the straight-line lower bound.
	straight := ss.Distance(statespace.Configuration{0.1, 0.5}, statespace.Configuration{0.9, 0.5})
	test.That(t, sol.Cost, test.ShouldBeGreaterThan, straight)
}
