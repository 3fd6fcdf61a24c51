// Package dynamo provides the core primitives for multistep integration of
// a scalar first-order ODE y' = f(x, y).
//
// The package defines the fundamental interfaces and types shared by the
// starters, the Milne stepper and the run orchestration:
//
//   - [Sample]: one (x, y, y') point of the solution
//   - [Derivative]: the right-hand side f(x, y)
//   - [Series]: successive derivatives of y, used by Taylor starters
//   - [StepResult]: predictor, corrector and their discrepancy
//   - [Config]: run parameters (step, tolerance, endpoints)
//   - [Result]: the trace of a run split into epochs
//
// # Example
//
//	f := dynamo.Func(func(x, y float64) float64 { return x + y })
//	seeds, _ := integrators.Bootstrap(integrators.NewRK4(), f, 0, 1, 0.1)
//	s := sim.New(f, nil)
//	result, _ := s.RunFrom(ctx, seeds, cfg)
//
// # Thread Safety
//
// Everything in this package is a value or a pure function. Simulators built
// on top of it are NOT thread-safe; use [sim.Sweep] for parallel runs.
package dynamo
