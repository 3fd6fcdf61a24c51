// Package stepsize chooses an initial h for the multistep integrator by
// comparing one Taylor step against two half steps.
//
// With a fourth-order expansion the local error scales with h^5, so the
// difference between the two estimates gives Richardson-style error bounds:
//
//	E(one step)  = (16/15)(y_two - y_one)
//	E(two steps) = (1/15)(y_two - y_one)
package stepsize

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/integrators"
)

// DefaultMaxTrials bounds the number of halvings Search performs.
const DefaultMaxTrials = 32

// ErrNoConvergence indicates the error estimate never dropped below the
// tolerance within the allowed number of halvings.
var ErrNoConvergence = errors.New("stepsize: no step size met the tolerance")

// Comparison is one trial of the search.
type Comparison struct {
	H          float64 `json:"h"`
	OneStep    float64 `json:"one_step"`
	TwoStep    float64 `json:"two_step"`
	ErrOneStep float64 `json:"err_one_step"`
	ErrTwoStep float64 `json:"err_two_step"`
}

// Compare computes y(x0+h) with one Taylor step and with two steps of h/2.
func Compare(series dynamo.Series, x0, y0, h float64) (Comparison, error) {
	half := h / 2

	d0 := series.Derivatives(x0, y0)
	one := integrators.Expand(d0, y0, h)
	mid := integrators.Expand(d0, y0, half)
	two := integrators.Expand(series.Derivatives(x0+half, mid), mid, half)

	diff := two - one
	c := Comparison{
		H:          h,
		OneStep:    one,
		TwoStep:    two,
		ErrOneStep: (16.0 / 15.0) * diff,
		ErrTwoStep: (1.0 / 15.0) * diff,
	}
	if !dynamo.Finite(one, two, c.ErrOneStep) {
		return c, fmt.Errorf("compare at h=%g: %w", h, dynamo.ErrNumericInstability)
	}
	return c, nil
}

// Result is the outcome of a search. H is the first trial step whose one
// step error is within tolerance. It is not halved once more after passing,
// as a loop that halves at the end of each failed iteration would do.
type Result struct {
	H      float64      `json:"h"`
	Trials []Comparison `json:"trials"`
}

// Search halves h, starting from h0, until |E(one step)| <= maxErr.
func Search(series dynamo.Series, x0, y0, h0, maxErr float64, maxTrials int) (*Result, error) {
	if !(h0 > 0) || !(maxErr > 0) {
		return nil, fmt.Errorf("search h0=%g max_err=%g: %w", h0, maxErr, dynamo.ErrInvalidConfig)
	}
	if maxTrials <= 0 {
		maxTrials = DefaultMaxTrials
	}

	res := &Result{}
	h := h0
	for i := 0; i < maxTrials; i++ {
		c, err := Compare(series, x0, y0, h)
		if err != nil {
			return res, err
		}
		res.Trials = append(res.Trials, c)

		if math.Abs(c.ErrOneStep) <= maxErr {
			res.H = h
			return res, nil
		}
		h /= 2
	}

	return res, fmt.Errorf("after %d trials down to h=%g: %w", maxTrials, h*2, ErrNoConvergence)
}
