package integrators

import "github.com/san-kum/milnesim/internal/dynamo"

// Euler is the polygonal method: y_{n+1} = y_n + h f(x_n, y_n).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f dynamo.Derivative, x, y, h float64) float64 {
	return y + h*f.Derive(x, y)
}
