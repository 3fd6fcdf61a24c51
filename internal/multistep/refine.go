package multistep

import (
	"fmt"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/history"
)

// Halve interpolates y(x - h/2) from y(x), y(x-h), y(x-2h) and y(x-3h) with
// the four-point Lagrange weights 5/16, 15/16, -5/16, 1/16.
func Halve(yn, yn1, yn2, yn3 float64) float64 {
	return (1.0 / 16.0) * (5*yn + 15*yn1 - 5*yn2 + yn3)
}

// Refine rebuilds w at spacing h/2 ending at the same newest sample:
//
//	[y(x - 3h/2), y(x - h), y(x - h/2), y(x)]
//
// The two midpoints are interpolated and their derivatives evaluated through
// f. Five samples at the old spacing are required.
func Refine(w history.Window, f dynamo.Derivative) (history.Window, error) {
	q, err := w.Last5()
	if err != nil {
		return w, err
	}

	h2 := w.H() / 2

	yHalf := Halve(q.Newest.Y, q.SecondNewest.Y, q.SecondOldest.Y, q.Oldest.Y)
	y3Half := Halve(q.SecondNewest.Y, q.SecondOldest.Y, q.Oldest.Y, q.Fifth.Y)

	s3Half, err := dynamo.SampleAt(f, q.SecondNewest.X-h2, y3Half)
	if err != nil {
		return w, fmt.Errorf("refine: %w", err)
	}
	sHalf, err := dynamo.SampleAt(f, q.Newest.X-h2, yHalf)
	if err != nil {
		return w, fmt.Errorf("refine: %w", err)
	}

	next, err := history.New(h2, s3Half, q.SecondNewest, sHalf, q.Newest)
	if err != nil {
		return w, fmt.Errorf("refine: %w", err)
	}
	return next, nil
}
