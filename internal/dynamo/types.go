package dynamo

import (
	"fmt"
	"math"
)

// Sample is one point of the solution: x, y(x) and y'(x).
type Sample struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	YPrime float64 `json:"y_prime"`
}

func (s Sample) IsValid() bool {
	return finite(s.X) && finite(s.Y) && finite(s.YPrime)
}

func (s Sample) String() string {
	return fmt.Sprintf("(x=%g, y=%g, y'=%g)", s.X, s.Y, s.YPrime)
}

// Derivative evaluates the right-hand side of y' = f(x, y). Implementations
// must be side-effect free.
type Derivative interface {
	Derive(x, y float64) float64
}

// Func adapts an ordinary function to the Derivative interface.
type Func func(x, y float64) float64

func (f Func) Derive(x, y float64) float64 { return f(x, y) }

// Series returns y', y'', y''' and y'''' at (x, y).
type Series interface {
	Derivatives(x, y float64) [4]float64
}

// SeriesFunc adapts an ordinary function to the Series interface.
type SeriesFunc func(x, y float64) [4]float64

func (f SeriesFunc) Derivatives(x, y float64) [4]float64 { return f(x, y) }

// Solution is implemented by equations with a known closed form.
type Solution interface {
	Exact(x float64) float64
}

// SampleAt evaluates f at (x, y) and returns the resulting sample.
func SampleAt(f Derivative, x, y float64) (Sample, error) {
	s := Sample{X: x, Y: y, YPrime: f.Derive(x, y)}
	if !s.IsValid() {
		return s, fmt.Errorf("sample %v: %w", s, ErrNumericInstability)
	}
	return s, nil
}

// StepResult is the outcome of one predict/correct pass.
type StepResult struct {
	X              float64 `json:"x"`
	H              float64 `json:"h"`
	Predicted      float64 `json:"predicted"`
	PredictedSlope float64 `json:"predicted_slope"`
	Corrected      float64 `json:"corrected"`
	Discrepancy    float64 `json:"discrepancy"`
}

// Exceeds reports whether |D| is strictly above tol.
func (r StepResult) Exceeds(tol float64) bool {
	return math.Abs(r.Discrepancy) > tol
}

type RefinePolicy string

const (
	RefineNone   RefinePolicy = "none"
	RefineOnce   RefinePolicy = "once"
	RefineRepeat RefinePolicy = "repeat"
)

func (p RefinePolicy) Valid() bool {
	switch p {
	case RefineNone, RefineOnce, RefineRepeat:
		return true
	}
	return false
}

// Limit returns how many refinements the policy allows given the configured
// maximum for RefineRepeat.
func (p RefinePolicy) Limit(maxRefinements int) int {
	switch p {
	case RefineOnce:
		return 1
	case RefineRepeat:
		return maxRefinements
	default:
		return 0
	}
}

type Config struct {
	X0             float64
	Y0             float64
	TargetX        float64
	H              float64
	MaxErr         float64
	Policy         RefinePolicy
	MaxRefinements int
	MinH           float64
	// HalveAtX, when set, forces one refinement once x reaches it regardless
	// of the discrepancy.
	HalveAtX *float64
	Strict   bool
}

func DefaultConfig() Config {
	return Config{
		X0:             0,
		Y0:             1,
		TargetX:        1,
		H:              0.1,
		MaxErr:         5e-5,
		Policy:         RefineOnce,
		MaxRefinements: 8,
		MinH:           1e-8,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.H > 0) || !finite(c.H):
		return fmt.Errorf("h must be positive, got %g: %w", c.H, ErrInvalidConfig)
	case !(c.MaxErr > 0) || !finite(c.MaxErr):
		return fmt.Errorf("max_err must be positive, got %g: %w", c.MaxErr, ErrInvalidConfig)
	case !finite(c.X0) || !finite(c.Y0) || !finite(c.TargetX):
		return fmt.Errorf("x0, y0 and target_x must be finite: %w", ErrInvalidConfig)
	case !(c.TargetX > c.X0):
		return fmt.Errorf("target_x %g must be greater than x0 %g: %w", c.TargetX, c.X0, ErrInvalidConfig)
	case !c.Policy.Valid():
		return fmt.Errorf("unknown refine policy %q: %w", c.Policy, ErrInvalidConfig)
	case c.Policy == RefineRepeat && c.MaxRefinements <= 0:
		return fmt.Errorf("max_refinements must be positive for repeat policy: %w", ErrInvalidConfig)
	case c.MinH < 0:
		return fmt.Errorf("min_h must not be negative, got %g: %w", c.MinH, ErrInvalidConfig)
	}
	return nil
}

// Epoch is a maximal run of steps at one fixed h.
type Epoch struct {
	Index  int       `json:"index"`
	H      float64   `json:"h"`
	StartX float64   `json:"start_x"`
	EndX   float64   `json:"end_x"`
	Steps  int       `json:"steps"`
	Seeds  [4]Sample `json:"seeds"`
	Reason string    `json:"reason"`
}

const (
	ReasonStart     = "start"
	ReasonTolerance = "tolerance"
	ReasonScheduled = "scheduled"
)

type Result struct {
	Samples     []Sample
	Steps       []StepResult
	Epochs      []Epoch
	Warnings    []Warning
	Metrics     map[string]float64
	Refinements int
	H           float64
	StepsTaken  int
}

// Final returns the last sample of the run.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// MaxDiscrepancy returns the largest |D| seen during the run.
func (r *Result) MaxDiscrepancy() float64 {
	m := 0.0
	for _, s := range r.Steps {
		m = math.Max(m, math.Abs(s.Discrepancy))
	}
	return m
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite reports whether every value is neither NaN nor Inf.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// Integrator is a single-step method used to produce starting values for
// the multistep scheme.
type Integrator interface {
	Step(f Derivative, x, y, h float64) float64
}
