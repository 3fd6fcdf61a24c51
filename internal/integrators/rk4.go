package integrators

import "github.com/san-kum/milnesim/internal/dynamo"

// RK4 is the classical four-stage Runge-Kutta formula.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(f dynamo.Derivative, x, y, h float64) float64 {
	half := h * 0.5

	k1 := f.Derive(x, y)
	k2 := f.Derive(x+half, y+half*k1)
	k3 := f.Derive(x+half, y+half*k2)
	k4 := f.Derive(x+h, y+h*k3)

	h6 := h / 6.0
	return y + h6*(k1+2*k2+2*k3+k4)
}
