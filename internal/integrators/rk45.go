package integrators

import "github.com/san-kum/milnesim/internal/dynamo"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0
)

// RK45 takes the fifth-order Dormand-Prince solution as its step.
type RK45 struct{}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Step(f dynamo.Derivative, x, y, h float64) float64 {
	k1 := f.Derive(x, y)
	k2 := f.Derive(x+a2*h, y+h*b21*k1)
	k3 := f.Derive(x+a3*h, y+h*(b31*k1+b32*k2))
	k4 := f.Derive(x+a4*h, y+h*(b41*k1+b42*k2+b43*k3))
	k5 := f.Derive(x+a5*h, y+h*(b51*k1+b52*k2+b53*k3+b54*k4))
	k6 := f.Derive(x+h, y+h*(b61*k1+b62*k2+b63*k3+b64*k4+b65*k5))

	return y + h*(c1*k1+c3*k3+c4*k4+c5*k5+c6*k6)
}
