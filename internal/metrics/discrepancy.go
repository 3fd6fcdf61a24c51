package metrics

import (
	"math"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// MeanDiscrepancy is the mean of |y_c - y_p| over all steps.
type MeanDiscrepancy struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDiscrepancy() *MeanDiscrepancy {
	return &MeanDiscrepancy{
		name: "mean_discrepancy",
	}
}

func (m *MeanDiscrepancy) Name() string {
	return m.name
}

func (m *MeanDiscrepancy) Observe(_ dynamo.Sample, r dynamo.StepResult) {
	m.sum += math.Abs(r.Discrepancy)
	m.samples++
}

func (m *MeanDiscrepancy) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDiscrepancy) Reset() {
	m.sum = 0
	m.samples = 0
}

type MaxDiscrepancy struct {
	name string
	max  float64
}

func NewMaxDiscrepancy() *MaxDiscrepancy {
	return &MaxDiscrepancy{name: "max_discrepancy"}
}

func (m *MaxDiscrepancy) Name() string { return m.name }

func (m *MaxDiscrepancy) Observe(_ dynamo.Sample, r dynamo.StepResult) {
	m.max = math.Max(m.max, math.Abs(r.Discrepancy))
}

func (m *MaxDiscrepancy) Value() float64 { return m.max }
func (m *MaxDiscrepancy) Reset()         { m.max = 0 }
