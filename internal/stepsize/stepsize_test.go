package stepsize

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
)

// lumpedSeries returns x + y for every derivative order, the generator
// used by the worked example this search is checked against.
var lumpedSeries = dynamo.SeriesFunc(func(x, y float64) [4]float64 {
	d := x + y
	return [4]float64{d, d, d, d}
})

func TestCompare(t *testing.T) {
	c, err := Compare(lumpedSeries, 0, 1, 0.1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if math.Abs(c.OneStep-1.1051708333333332) > 1e-12 {
		t.Errorf("one step = %.14f", c.OneStep)
	}
	if math.Abs(c.TwoStep-1.1077344672418215) > 1e-12 {
		t.Errorf("two steps = %.14f", c.TwoStep)
	}
	if math.Abs(c.ErrOneStep-16*c.ErrTwoStep) > 1e-15 {
		t.Errorf("E1 = %g is not 16 * E2 = %g", c.ErrOneStep, c.ErrTwoStep)
	}
}

func TestSearch_ReferenceRun(t *testing.T) {
	res, err := Search(lumpedSeries, 0, 1, 0.1, 5e-5, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []struct {
		h   float64
		err float64
	}{
		{0.1, 0.002734542835720788},
		{0.05, 0.0006750725008139114},
		{0.025, 0.00016771276883792058},
		{0.0125, 4.179714923916814e-05},
	}

	if len(res.Trials) != len(want) {
		t.Fatalf("expected %d trials, got %d", len(want), len(res.Trials))
	}
	for i, w := range want {
		c := res.Trials[i]
		if c.H != w.h {
			t.Errorf("trial %d: h=%g, want %g", i, c.H, w.h)
		}
		if math.Abs(c.ErrOneStep-w.err) > 1e-12 {
			t.Errorf("trial %d: error %.6e, want %.6e", i, c.ErrOneStep, w.err)
		}
	}
	if res.H != 0.0125 {
		t.Errorf("accepted h = %g, want 0.0125", res.H)
	}
}

func TestSearch_ErrorsStrictlyDecrease(t *testing.T) {
	series := []struct {
		name   string
		series dynamo.Series
		h0     float64
	}{
		{"lumped", lumpedSeries, 0.1},
		{"x+y", equations.NewXPlusY(), 0.8},
		{"x2+y", equations.NewXSquaredPlusY(), 0.8},
		{"x-y", equations.NewXMinusY(), 0.8},
	}

	for _, tt := range series {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Search(tt.series, 0, 1, tt.h0, 5e-5, 0)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}

			for i := 1; i < len(res.Trials); i++ {
				prev := math.Abs(res.Trials[i-1].ErrOneStep)
				cur := math.Abs(res.Trials[i].ErrOneStep)
				if !(cur < prev) {
					t.Errorf("trial %d: |E| %.3e not below %.3e", i, cur, prev)
				}
			}

			last := res.Trials[len(res.Trials)-1]
			if math.Abs(last.ErrOneStep) > 5e-5 {
				t.Errorf("search stopped with |E| = %.3e", last.ErrOneStep)
			}
			if res.H != last.H {
				t.Errorf("accepted h %g differs from last trial %g", res.H, last.H)
			}
		})
	}
}

func TestSearch_ExactSeriesAcceptsFirstTrial(t *testing.T) {
	res, err := Search(equations.NewXPlusY(), 0, 1, 0.1, 5e-5, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Trials) != 1 || res.H != 0.1 {
		t.Errorf("expected h=0.1 after one trial, got h=%g after %d", res.H, len(res.Trials))
	}
}

func TestSearch_NoConvergence(t *testing.T) {
	_, err := Search(lumpedSeries, 0, 1, 0.1, 1e-30, 3)
	if !errors.Is(err, ErrNoConvergence) {
		t.Errorf("expected ErrNoConvergence, got %v", err)
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	if _, err := Search(lumpedSeries, 0, 1, 0, 5e-5, 0); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := Search(lumpedSeries, 0, 1, 0.1, -1, 0); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSearch_NumericInstability(t *testing.T) {
	nan := dynamo.SeriesFunc(func(x, y float64) [4]float64 {
		return [4]float64{math.NaN(), 0, 0, 0}
	})
	if _, err := Search(nan, 0, 1, 0.1, 5e-5, 0); !errors.Is(err, dynamo.ErrNumericInstability) {
		t.Errorf("expected ErrNumericInstability, got %v", err)
	}
}
