package metrics

import "github.com/san-kum/milnesim/internal/dynamo"

// Violations counts steps whose discrepancy exceeded the tolerance, whether
// or not a refinement followed.
type Violations struct {
	name       string
	tolerance  float64
	violations int
}

func NewViolations(tolerance float64) *Violations {
	return &Violations{
		name:      "violations",
		tolerance: tolerance,
	}
}

func (v *Violations) Name() string {
	return v.name
}

func (v *Violations) Observe(_ dynamo.Sample, r dynamo.StepResult) {
	if r.Exceeds(v.tolerance) {
		v.violations++
	}
}

func (v *Violations) Value() float64 {
	return float64(v.violations)
}

func (v *Violations) Reset() {
	v.violations = 0
}
