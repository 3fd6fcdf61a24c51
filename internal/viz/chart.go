package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/milnesim/internal/dynamo"
)

const (
	DefaultChartWidth  = 80
	DefaultChartHeight = 12
)

// SolutionChart plots y over the samples. With exact set, the exact solution
// is drawn as a second series at the same x values.
func SolutionChart(samples []dynamo.Sample, exact dynamo.Solution, width, height int) string {
	if len(samples) == 0 {
		return ""
	}

	ys := make([]float64, len(samples))
	for i, s := range samples {
		ys[i] = s.Y
	}
	caption := fmt.Sprintf("y(x), x in [%g, %g]", samples[0].X, samples[len(samples)-1].X)

	if exact == nil {
		return asciigraph.Plot(ys,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption),
		)
	}

	ex := make([]float64, len(samples))
	for i, s := range samples {
		ex[i] = exact.Exact(s.X)
	}
	return asciigraph.PlotMany([][]float64{ys, ex},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption(caption+" (blue: milne, red: exact)"),
	)
}

// DiscrepancyChart plots log10|D| per step against log10(maxErr).
func DiscrepancyChart(steps []dynamo.StepResult, maxErr float64, width, height int) string {
	if len(steps) == 0 {
		return ""
	}

	ds := make([]float64, len(steps))
	bound := make([]float64, len(steps))
	for i, r := range steps {
		ds[i] = math.Log10(math.Max(math.Abs(r.Discrepancy), 1e-18))
		bound[i] = math.Log10(maxErr)
	}

	return asciigraph.PlotMany([][]float64{ds, bound},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("log10 |D| per step (red: max_err = %g)", maxErr)),
	)
}

// ErrorChart plots the global error |y - y_exact| at each sample.
func ErrorChart(samples []dynamo.Sample, exact dynamo.Solution, width, height int) string {
	if len(samples) == 0 || exact == nil {
		return ""
	}

	errs := make([]float64, len(samples))
	for i, s := range samples {
		errs[i] = math.Abs(s.Y - exact.Exact(s.X))
	}
	return asciigraph.Plot(errs,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("global error |y - y_exact|"),
	)
}
