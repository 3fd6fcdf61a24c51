package integrators

import (
	"fmt"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// Hybrid uses a different starter for each bootstrap step. Steps past the
// end of the list reuse the last one.
type Hybrid struct {
	steps []dynamo.Integrator
}

func NewHybrid(steps ...dynamo.Integrator) (*Hybrid, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("hybrid needs at least one starter: %w", dynamo.ErrInvalidConfig)
	}
	for i, s := range steps {
		if s == nil {
			return nil, fmt.Errorf("hybrid starter %d is nil: %w", i, dynamo.ErrInvalidConfig)
		}
	}
	return &Hybrid{steps: append([]dynamo.Integrator(nil), steps...)}, nil
}

// At returns the starter for step i (0-based).
func (h *Hybrid) At(i int) dynamo.Integrator {
	if i >= len(h.steps) {
		i = len(h.steps) - 1
	}
	if i < 0 {
		i = 0
	}
	return h.steps[i]
}

func (h *Hybrid) Step(f dynamo.Derivative, x, y, dx float64) float64 {
	return h.At(0).Step(f, x, y, dx)
}
