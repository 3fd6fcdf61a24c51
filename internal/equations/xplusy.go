package equations

import "math"

// XPlusY is y' = x + y with general solution y = C e^x - x - 1.
type XPlusY struct{ c float64 }

func NewXPlusY() *XPlusY {
	e := &XPlusY{}
	e.SetInitial(0, 1)
	return e
}

func (e *XPlusY) Name() string { return "x+y" }
func (e *XPlusY) Expr() string { return "y' = x + y" }

func (e *XPlusY) Derive(x, y float64) float64 { return x + y }

func (e *XPlusY) Derivatives(x, y float64) [4]float64 {
	d1 := x + y
	d2 := 1 + d1
	return [4]float64{d1, d2, d2, d2}
}

func (e *XPlusY) SetInitial(x0, y0 float64) {
	e.c = (y0 + x0 + 1) * math.Exp(-x0)
}

func (e *XPlusY) Exact(x float64) float64 {
	return e.c*math.Exp(x) - x - 1
}
