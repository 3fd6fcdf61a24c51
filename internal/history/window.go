// Package history holds the sliding window of samples read by the Milne
// stepper.
//
// A [Window] is a value: Push returns a new Window and never touches the
// receiver, so a caller can keep an old window around (for replay or
// provenance) while stepping continues on the new one.
package history

import (
	"fmt"
	"math"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// Capacity is the number of trailing samples retained: four for a Milne step
// plus one more for halving the step.
const Capacity = 5

// spacingTol is the relative tolerance on x_{i+1} - x_i - h.
const spacingTol = 1e-9

type Window struct {
	buf  [Capacity]dynamo.Sample
	head int
	n    int
	h    float64
}

// New returns a window with spacing h holding samples, oldest first.
func New(h float64, samples ...dynamo.Sample) (Window, error) {
	if !(h > 0) || math.IsInf(h, 0) {
		return Window{}, fmt.Errorf("history: spacing %g: %w", h, dynamo.ErrInvalidConfig)
	}
	w := Window{h: h}
	for _, s := range samples {
		var err error
		if w, err = w.Push(s); err != nil {
			return Window{}, err
		}
	}
	return w, nil
}

// Push returns a copy of w with s appended, dropping the oldest sample once
// the window is full.
func (w Window) Push(s dynamo.Sample) (Window, error) {
	if !s.IsValid() {
		return w, fmt.Errorf("history: push %v: %w", s, dynamo.ErrNumericInstability)
	}
	if w.n > 0 {
		prev := w.Newest()
		if math.Abs(s.X-prev.X-w.h) > spacingTol*w.h {
			return w, fmt.Errorf("history: x=%g after x=%g with h=%g: %w", s.X, prev.X, w.h, dynamo.ErrIrregularSpacing)
		}
	}
	w.buf[w.head] = s
	w.head = (w.head + 1) % Capacity
	if w.n < Capacity {
		w.n++
	}
	return w, nil
}

func (w Window) Len() int    { return w.n }
func (w Window) H() float64  { return w.h }
func (w Window) Empty() bool { return w.n == 0 }

// Back returns the sample k positions before the newest (k = 0 is the newest).
func (w Window) Back(k int) (dynamo.Sample, bool) {
	if k < 0 || k >= w.n {
		return dynamo.Sample{}, false
	}
	return w.buf[(w.head-1-k+2*Capacity)%Capacity], true
}

// Newest returns the most recent sample, or the zero sample when empty.
func (w Window) Newest() dynamo.Sample {
	s, _ := w.Back(0)
	return s
}

// Samples returns the retained samples, oldest first.
func (w Window) Samples() []dynamo.Sample {
	out := make([]dynamo.Sample, w.n)
	for i := 0; i < w.n; i++ {
		out[w.n-1-i], _ = w.Back(i)
	}
	return out
}

// Quad is the four most recent samples, named by age.
type Quad struct {
	Oldest       dynamo.Sample
	SecondOldest dynamo.Sample
	SecondNewest dynamo.Sample
	Newest       dynamo.Sample
}

// Last4 returns the samples a Milne step reads.
func (w Window) Last4() (Quad, error) {
	if w.n < 4 {
		return Quad{}, fmt.Errorf("history: have %d samples: %w", w.n, dynamo.ErrInsufficientHistory)
	}
	return w.quad(), nil
}

// Quint is the five most recent samples; Fifth precedes Quad.Oldest.
type Quint struct {
	Fifth dynamo.Sample
	Quad
}

// Last5 returns the samples a step refinement reads.
func (w Window) Last5() (Quint, error) {
	if w.n < 5 {
		return Quint{}, fmt.Errorf("history: have %d samples: %w", w.n, dynamo.ErrInsufficientHistoryForRefinement)
	}
	fifth, _ := w.Back(4)
	return Quint{Fifth: fifth, Quad: w.quad()}, nil
}

func (w Window) quad() Quad {
	var q Quad
	q.Newest, _ = w.Back(0)
	q.SecondNewest, _ = w.Back(1)
	q.SecondOldest, _ = w.Back(2)
	q.Oldest, _ = w.Back(3)
	return q
}
