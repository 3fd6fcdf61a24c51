package integrators

import (
	"fmt"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// SeedCount is the number of starting samples Milne's method needs.
const SeedCount = 4

// Sequence is implemented by starters that change method between steps.
type Sequence interface {
	At(i int) dynamo.Integrator
}

// Bootstrap produces the samples at x0, x0+h, x0+2h and x0+3h with a
// single-step starter.
func Bootstrap(starter dynamo.Integrator, f dynamo.Derivative, x0, y0, h float64) ([]dynamo.Sample, error) {
	if starter == nil {
		return nil, fmt.Errorf("bootstrap: no starter: %w", dynamo.ErrInvalidConfig)
	}
	if !(h > 0) {
		return nil, fmt.Errorf("bootstrap: h=%g: %w", h, dynamo.ErrInvalidConfig)
	}

	first, err := dynamo.SampleAt(f, x0, y0)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	seeds := make([]dynamo.Sample, 0, SeedCount)
	seeds = append(seeds, first)

	y := y0
	for i := 1; i < SeedCount; i++ {
		step := starter
		if seq, ok := starter.(Sequence); ok {
			step = seq.At(i - 1)
		}

		x := x0 + float64(i-1)*h
		y = step.Step(f, x, y, h)

		s, err := dynamo.SampleAt(f, x0+float64(i)*h, y)
		if err != nil {
			return nil, fmt.Errorf("bootstrap step %d: %w", i, err)
		}
		seeds = append(seeds, s)
	}

	return seeds, nil
}
