// Package metrics provides per-step accumulators for a simulator run.
package metrics

import (
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/sim"
)

// Standard returns the metrics reported for every run. sol may be nil when
// no exact solution is known.
func Standard(sol dynamo.Solution, tolerance float64) []sim.Metric {
	ms := []sim.Metric{
		NewMaxDiscrepancy(),
		NewMeanDiscrepancy(),
		NewViolations(tolerance),
	}
	if sol != nil {
		ms = append(ms, NewGlobalError(sol))
	}
	return ms
}
