package integrators

import "github.com/san-kum/milnesim/internal/dynamo"

// Taylor expands y to five terms around the current point using the
// derivatives supplied by a Series. The Derivative passed to Step is unused.
type Taylor struct {
	series dynamo.Series
}

func NewTaylor(series dynamo.Series) *Taylor {
	return &Taylor{series: series}
}

func (t *Taylor) Step(_ dynamo.Derivative, x, y, h float64) float64 {
	return Expand(t.series.Derivatives(x, y), y, h)
}

// Expand evaluates y + h y' + h^2/2 y'' + h^3/6 y''' + h^4/24 y''''.
func Expand(d [4]float64, y, h float64) float64 {
	h2 := h * h
	h3 := h2 * h
	h4 := h3 * h
	return y + h*d[0] + h2*(d[1]/2) + h3*(d[2]/6) + h4*(d[3]/24)
}
