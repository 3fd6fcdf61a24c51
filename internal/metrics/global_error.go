package metrics

import (
	"math"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// GlobalError tracks the largest |y - y_exact| against a known solution.
type GlobalError struct {
	name    string
	sol     dynamo.Solution
	maxErr  float64
	lastErr float64
}

func NewGlobalError(sol dynamo.Solution) *GlobalError {
	return &GlobalError{
		name: "global_error",
		sol:  sol,
	}
}

func (g *GlobalError) Name() string { return g.name }

func (g *GlobalError) Observe(s dynamo.Sample, _ dynamo.StepResult) {
	if g.sol == nil {
		return
	}
	g.lastErr = math.Abs(s.Y - g.sol.Exact(s.X))
	g.maxErr = math.Max(g.maxErr, g.lastErr)
}

func (g *GlobalError) Value() float64 {
	return g.maxErr
}

// Final is the error at the most recent sample.
func (g *GlobalError) Final() float64 {
	return g.lastErr
}

func (g *GlobalError) Reset() {
	g.maxErr = 0
	g.lastErr = 0
}
