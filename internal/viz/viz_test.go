package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
)

func samples() []dynamo.Sample {
	eq := equations.NewXPlusY()
	out := make([]dynamo.Sample, 0, 21)
	for i := 0; i <= 20; i++ {
		x := float64(i) * 0.1
		out = append(out, dynamo.Sample{X: x, Y: eq.Exact(x) + 1e-6})
	}
	return out
}

func TestSolutionChart(t *testing.T) {
	plain := SolutionChart(samples(), nil, 40, 8)
	if !strings.Contains(plain, "y(x), x in [0, 2]") {
		t.Errorf("missing caption:\n%s", plain)
	}

	both := SolutionChart(samples(), equations.NewXPlusY(), 40, 8)
	if !strings.Contains(both, "exact") {
		t.Errorf("missing exact legend:\n%s", both)
	}

	if SolutionChart(nil, nil, 40, 8) != "" {
		t.Error("expected empty chart for no samples")
	}
}

func TestDiscrepancyChart(t *testing.T) {
	steps := []dynamo.StepResult{
		{X: 0.4, Discrepancy: 7e-6},
		{X: 0.5, Discrepancy: -8e-6},
		{X: 0.6, Discrepancy: 0},
	}
	out := DiscrepancyChart(steps, 1e-6, 30, 6)
	if !strings.Contains(out, "max_err = 1e-06") {
		t.Errorf("missing caption:\n%s", out)
	}
}

func TestErrorChart(t *testing.T) {
	if ErrorChart(samples(), nil, 40, 6) != "" {
		t.Error("expected no chart without an exact solution")
	}
	if out := ErrorChart(samples(), equations.NewXPlusY(), 40, 6); !strings.Contains(out, "global error") {
		t.Errorf("missing caption:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	out := Summary("run", []Field{
		{"equation", "y' = x + y"},
		{"h", "0.1"},
	})

	for _, want := range []string{"run", "equation", "y' = x + y", "0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatus(t *testing.T) {
	ok := &dynamo.Result{}
	warned := &dynamo.Result{Warnings: []dynamo.Warning{{}, {}}}

	tests := []struct {
		result *dynamo.Result
		err    error
		want   string
	}{
		{ok, nil, "ok"},
		{warned, nil, "2 warnings"},
		{ok, errors.New("boom"), "failed"},
	}
	for _, tt := range tests {
		if got := Status(tt.result, tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("Status() = %q, want %q", got, tt.want)
		}
	}
}

func TestEpochTable(t *testing.T) {
	out := EpochTable([]dynamo.Epoch{
		{Index: 0, H: 0.1, StartX: 0.3, EndX: 0.4, Steps: 1, Reason: dynamo.ReasonStart},
		{Index: 1, H: 0.05, StartX: 0.4, EndX: 1.3, Steps: 18, Reason: dynamo.ReasonTolerance},
	})

	if !strings.Contains(out, "reason") || !strings.Contains(out, "start") {
		t.Errorf("missing header or first epoch:\n%s", out)
	}
	if !strings.Contains(out, "tolerance") || !strings.Contains(out, "0.05") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestWarnings(t *testing.T) {
	ws := make([]dynamo.Warning, 5)
	for i := range ws {
		ws[i] = dynamo.Warning{Step: i + 1, X: float64(i), Discrepancy: 1e-5}
	}

	out := Warnings(ws, 2)
	if !strings.Contains(out, "5 steps exceeded") || !strings.Contains(out, "3 more") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if Warnings(nil, 2) != "" {
		t.Error("expected no output without warnings")
	}
}

func TestSparklineChart(t *testing.T) {
	out := SparklineChart([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	if w := lipgloss.Width(out); w != 8 {
		t.Errorf("width = %d, want 8", w)
	}
	if w := lipgloss.Width(SparklineChart(nil, 10)); w != 10 {
		t.Errorf("empty width = %d, want 10", w)
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("default")

	SetTheme("retro")
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}

	SetTheme("nonexistent")
	if CurrentTheme.Name != "default" {
		t.Errorf("expected fallback to default, got %s", CurrentTheme.Name)
	}

	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
