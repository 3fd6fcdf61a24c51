package equations

import "math"

// XSquaredPlusY is y' = x^2 + y with general solution
// y = C e^x - x^2 - 2x - 2.
type XSquaredPlusY struct{ c float64 }

func NewXSquaredPlusY() *XSquaredPlusY {
	e := &XSquaredPlusY{}
	e.SetInitial(0, 1)
	return e
}

func (e *XSquaredPlusY) Name() string { return "x2+y" }
func (e *XSquaredPlusY) Expr() string { return "y' = x^2 + y" }

func (e *XSquaredPlusY) Derive(x, y float64) float64 { return x*x + y }

func (e *XSquaredPlusY) Derivatives(x, y float64) [4]float64 {
	d1 := x*x + y
	d2 := 2*x + d1
	d3 := 2 + d2
	return [4]float64{d1, d2, d3, d3}
}

func (e *XSquaredPlusY) SetInitial(x0, y0 float64) {
	e.c = (y0 + x0*x0 + 2*x0 + 2) * math.Exp(-x0)
}

func (e *XSquaredPlusY) Exact(x float64) float64 {
	return e.c*math.Exp(x) - x*x - 2*x - 2
}
