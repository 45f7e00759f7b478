// Package costintegrator evaluates edge cost along a straight-line segment
// in configuration space by sampling the oracle's point-cost density at a
// fixed step and summing a left Riemann sum, short-circuiting as soon as any
// sample reports infinite cost.
package costintegrator

import (
	"math"

	"github.com/JoshuaHaustein/hfts_grasp_planner/statespace"
)

// DefaultStepSize is the sampling step h along an edge, in the same units as
// the oracle's Distance metric.
const DefaultStepSize = 0.001

// Integrator turns a StateSpace's point-cost density into an edge cost.
type Integrator struct {
	// StepSize is the left-Riemann-sum sampling interval h. Zero means
	// DefaultStepSize.
	StepSize float64
}

func (ig Integrator) step() float64 {
	if ig.StepSize <= 0 {
		return DefaultStepSize
	}
	return ig.StepSize
}

// LowerBound returns a cost lower bound for the edge (a, b): the oracle's
// distance metric, which the planner's admissibility invariant requires
// every resolved edge cost to dominate.
func (ig Integrator) LowerBound(ss statespace.StateSpace, a, b statespace.Configuration) float64 {
	return ss.Distance(a, b)
}

func interp(a, b statespace.Configuration, t float64) statespace.Configuration {
	out := make(statespace.Configuration, len(a))
	for i := range a {
		out[i] = a[i] + t*(b[i]-a[i])
	}
	return out
}

// sampleCosts walks the segment (a,b) in steps of h, calling pointCost at
// each sample and weighting it by the sub-interval it represents. It returns
// +Inf as soon as any sample is infinite, without evaluating the rest.
func sampleCosts(d, h float64, pointCost func(t float64) float64) float64 {
	if d == 0 {
		return 0
	}
	n := int(math.Ceil(d / h))
	sum := 0.0
	for k := 0; k < n; k++ {
		t := float64(k) * h / d
		remaining := d - float64(k)*h
		width := h
		if remaining < h {
			width = remaining
		}
		c := pointCost(t)
		if math.IsInf(c, 1) {
			return math.Inf(1)
		}
		sum += c * width
	}
	return sum
}

// Cost integrates the oracle's unconditional point cost along (a, b).
func (ig Integrator) Cost(ss statespace.StateSpace, a, b statespace.Configuration) float64 {
	d := ss.Distance(a, b)
	return sampleCosts(d, ig.step(), func(t float64) float64 {
		return ss.Cost(interp(a, b, t))
	})
}

// ConditionalCost integrates the oracle's point cost along (a, b) with grasp
// gid engaged for the whole edge: the grasp is applied once before sampling
// and released once after, rather than once per sample point, so the oracle
// only pays the apply/restore cost a single time per edge.
func (ig Integrator) ConditionalCost(ss statespace.StateSpace, a, b statespace.Configuration, gid statespace.GraspID) (float64, error) {
	snap, err := ss.Snapshot()
	if err != nil {
		return math.Inf(1), err
	}
	defer ss.Restore(snap) //nolint:errcheck

	if err := ss.ApplyGrasp(gid); err != nil {
		return math.Inf(1), err
	}
	defer ss.ReleaseGrasp() //nolint:errcheck

	d := ss.Distance(a, b)
	cost := sampleCosts(d, ig.step(), func(t float64) float64 {
		return ss.Cost(interp(a, b, t))
	})
	return cost, nil
}
