package multistep

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/history"
)

func TestHalve(t *testing.T) {
	tests := []struct {
		name              string
		yn, yn1, yn2, yn3 float64
		want              float64
	}{
		{"constant", 5, 5, 5, 5, 5},
		{"zero", 0, 0, 0, 0, 0},
		{"linear", 4, 3, 2, 1, 3.5},
		{"cubic", 64, 27, 8, 1, 42.875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Halve(tt.yn, tt.yn1, tt.yn2, tt.yn3); got != tt.want {
				t.Errorf("Halve(%g, %g, %g, %g) = %g, want %g", tt.yn, tt.yn1, tt.yn2, tt.yn3, got, tt.want)
			}
		})
	}
}

func cubicWindow(t *testing.T) history.Window {
	t.Helper()
	f := dynamo.Func(func(x, y float64) float64 { return 3 * x * x })
	var samples []dynamo.Sample
	for i := 0; i < 5; i++ {
		x := float64(i)
		samples = append(samples, dynamo.Sample{X: x, Y: x * x * x, YPrime: f(x, 0)})
	}
	w, err := history.New(1, samples...)
	if err != nil {
		t.Fatalf("building window: %v", err)
	}
	return w
}

func TestRefine_Cubic(t *testing.T) {
	f := dynamo.Func(func(x, y float64) float64 { return 3 * x * x })

	w, err := Refine(cubicWindow(t), f)
	if err != nil {
		t.Fatalf("Refine failed: %v", err)
	}

	if w.H() != 0.5 {
		t.Errorf("expected h 0.5, got %g", w.H())
	}
	if w.Len() != 4 {
		t.Fatalf("expected 4 samples, got %d", w.Len())
	}

	q, _ := w.Last4()
	want := []dynamo.Sample{
		{X: 2.5, Y: 15.625, YPrime: 18.75},
		{X: 3, Y: 27, YPrime: 27},
		{X: 3.5, Y: 42.875, YPrime: 36.75},
		{X: 4, Y: 64, YPrime: 48},
	}
	got := []dynamo.Sample{q.Oldest, q.SecondOldest, q.SecondNewest, q.Newest}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRefine_InsufficientHistory(t *testing.T) {
	full := cubicWindow(t).Samples()
	f := dynamo.Func(func(x, y float64) float64 { return 3 * x * x })

	for n := 0; n < 5; n++ {
		w, _ := history.New(1, full[:n]...)
		if _, err := Refine(w, f); !errors.Is(err, dynamo.ErrInsufficientHistoryForRefinement) {
			t.Errorf("n=%d: expected ErrInsufficientHistoryForRefinement, got %v", n, err)
		}
	}
}

func TestRefine_ThenAdvance(t *testing.T) {
	// y' = x + y, y(0) = 1 has y = 2e^x - x - 1.
	f := dynamo.Func(func(x, y float64) float64 { return x + y })
	exact := func(x float64) float64 { return 2*math.Exp(x) - x - 1 }

	var samples []dynamo.Sample
	for i := 0; i < 5; i++ {
		x := float64(i) * 0.1
		samples = append(samples, dynamo.Sample{X: x, Y: exact(x), YPrime: f(x, exact(x))})
	}
	w, _ := history.New(0.1, samples...)

	w, err := Refine(w, f)
	if err != nil {
		t.Fatalf("Refine failed: %v", err)
	}

	for _, s := range w.Samples() {
		if math.Abs(s.Y-exact(s.X)) > 5e-5 {
			t.Errorf("interpolated y(%g) = %.8f, exact %.8f", s.X, s.Y, exact(s.X))
		}
	}

	for i := 0; i < 4; i++ {
		w, _, err = Advance(w, f)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if x := w.Newest().X; math.Abs(x-0.6) > 1e-12 {
		t.Errorf("expected to reach x=0.6 in four half steps, got %g", x)
	}
	if y := w.Newest().Y; math.Abs(y-exact(0.6)) > 1e-4 {
		t.Errorf("y(0.6) = %.8f, exact %.8f", y, exact(0.6))
	}
}
