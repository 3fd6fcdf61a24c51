package multistep

import (
	"fmt"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/history"
)

// Predict is Milne's open (predictor) formula. y0 is the sample three steps
// before the newest and d3, d2, d1 the three most recent derivatives, oldest
// first.
func Predict(h, y0, d3, d2, d1 float64) float64 {
	return y0 + ((4*h)/3)*(2*d3-d2+2*d1)
}

// Correct is Milne's closed (corrector) formula, Simpson's rule over the
// last two intervals. y2 is the sample before the newest and dp the
// derivative evaluated at the predicted point.
func Correct(h, y2, d2, d1, dp float64) float64 {
	return y2 + (h/3)*(d2+4*d1+dp)
}

// Step performs one predict, derive, correct pass.
func Step(h, y0, d3, d2, d1, y2, xNext float64, f dynamo.Derivative) (dynamo.StepResult, error) {
	yp := Predict(h, y0, d3, d2, d1)
	dp := f.Derive(xNext, yp)
	yc := Correct(h, y2, d2, d1, dp)

	r := dynamo.StepResult{
		X:              xNext,
		H:              h,
		Predicted:      yp,
		PredictedSlope: dp,
		Corrected:      yc,
		Discrepancy:    yc - yp,
	}
	if !dynamo.Finite(yp, dp, yc) {
		return r, fmt.Errorf("milne step at x=%g: %w", xNext, dynamo.ErrNumericInstability)
	}
	return r, nil
}

// Advance takes one Milne step from the newest sample of w and returns the
// window with the corrected sample appended.
func Advance(w history.Window, f dynamo.Derivative) (history.Window, dynamo.StepResult, error) {
	q, err := w.Last4()
	if err != nil {
		return w, dynamo.StepResult{}, err
	}

	h := w.H()
	xNext := q.Newest.X + h

	r, err := Step(h,
		q.Oldest.Y,
		q.SecondOldest.YPrime, q.SecondNewest.YPrime, q.Newest.YPrime,
		q.SecondNewest.Y,
		xNext, f)
	if err != nil {
		return w, r, err
	}

	s, err := dynamo.SampleAt(f, xNext, r.Corrected)
	if err != nil {
		return w, r, err
	}

	next, err := w.Push(s)
	if err != nil {
		return w, r, err
	}
	return next, r, nil
}
