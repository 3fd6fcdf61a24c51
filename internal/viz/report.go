package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/milnesim/internal/dynamo"
)

// Field is one label/value line of a report panel.
type Field struct {
	Label string
	Value string
}

// Summary renders fields as an aligned panel under title.
func Summary(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, Title.Render(title))
	for _, f := range fields {
		label := MetricLabel.Render(f.Label + strings.Repeat(" ", width-lipgloss.Width(f.Label)))
		lines = append(lines, label+"  "+MetricValue.Render(f.Value))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

// Status renders the outcome of a run in one styled word.
func Status(result *dynamo.Result, err error) string {
	switch {
	case err != nil:
		return StatusError.Render("failed")
	case len(result.Warnings) > 0:
		return StatusWarn.Render(fmt.Sprintf("completed with %d warnings", len(result.Warnings)))
	default:
		return StatusOK.Render("ok")
	}
}

// EpochTable lists the epochs of a run, one per line.
func EpochTable(epochs []dynamo.Epoch) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-6s %-12s %-12s %-12s %-6s %s", "epoch", "h", "start x", "end x", "steps", "reason")))
	b.WriteString("\n")
	for _, ep := range epochs {
		fmt.Fprintf(&b, "%-6d %-12g %-12.6g %-12.6g %-6d %s\n", ep.Index, ep.H, ep.StartX, ep.EndX, ep.Steps, ep.Reason)
	}
	return b.String()
}

// Warnings lists at most limit warnings and how many were left out.
func Warnings(ws []dynamo.Warning, limit int) string {
	if len(ws) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(StatusWarn.Render(fmt.Sprintf("%d steps exceeded the tolerance", len(ws))))
	b.WriteString("\n")

	for i, w := range ws {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "  ... %d more\n", len(ws)-limit)
			break
		}
		b.WriteString("  " + Subtle.Render(w.Error()) + "\n")
	}
	return b.String()
}

// DiscrepancySparkline renders |D| per step as a sparkline.
func DiscrepancySparkline(steps []dynamo.StepResult, width int) string {
	vs := make([]float64, len(steps))
	for i, r := range steps {
		vs[i] = math.Abs(r.Discrepancy)
	}
	return SparklineChart(vs, width)
}
