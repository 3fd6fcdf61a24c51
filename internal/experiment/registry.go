package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
	"github.com/san-kum/milnesim/internal/integrators"
	"github.com/san-kum/milnesim/internal/metrics"
	"github.com/san-kum/milnesim/internal/sim"
)

type Registry struct {
	starters map[string]func(equations.Equation) dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		starters: make(map[string]func(equations.Equation) dynamo.Integrator),
	}

	r.starters["euler"] = func(equations.Equation) dynamo.Integrator { return integrators.NewEuler() }
	r.starters["rk4"] = func(equations.Equation) dynamo.Integrator { return integrators.NewRK4() }
	r.starters["rk45"] = func(equations.Equation) dynamo.Integrator { return integrators.NewRK45() }
	r.starters["taylor"] = func(eq equations.Equation) dynamo.Integrator { return integrators.NewTaylor(eq) }

	return r
}

func (r *Registry) GetEquation(name string) (equations.Equation, error) {
	return equations.Lookup(name)
}

// GetStarter builds the starter for names. More than one name yields a
// hybrid that uses names[i] for bootstrap step i.
func (r *Registry) GetStarter(names []string, eq equations.Equation) (dynamo.Integrator, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no starter given: %w", dynamo.ErrInvalidConfig)
	}

	steps := make([]dynamo.Integrator, 0, len(names))
	for _, name := range names {
		fn, ok := r.starters[name]
		if !ok {
			return nil, fmt.Errorf("unknown starter: %s", name)
		}
		steps = append(steps, fn(eq))
	}

	if len(steps) == 1 {
		return steps[0], nil
	}
	hybrid, err := integrators.NewHybrid(steps...)
	if err != nil {
		return nil, err
	}
	return hybrid, nil
}

func (r *Registry) ListEquations() []string {
	return equations.Names()
}

func (r *Registry) ListStarters() []string {
	names := make([]string, 0, len(r.starters))
	for name := range r.starters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(eq equations.Equation, tolerance float64) []sim.Metric {
	return metrics.Standard(eq, tolerance)
}
