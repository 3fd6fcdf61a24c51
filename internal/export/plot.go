// Package export renders runs to image files with gonum/plot.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/milnesim/internal/dynamo"
)

var (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var (
	colorSolution = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorExact    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	colorBound    = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
)

// Solution plots y(x) from samples. When exact is non-nil its curve is drawn
// over the same range for comparison.
func Solution(title string, samples []dynamo.Sample, exact dynamo.Solution) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("export: no samples to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.X
		pts[i].Y = s.Y
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = colorSolution
	points.Color = colorSolution
	points.Radius = vg.Points(1.5)
	p.Add(line, points)
	p.Legend.Add("milne", line, points)

	if exact != nil {
		fn := plotter.NewFunction(exact.Exact)
		fn.Color = colorExact
		fn.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		fn.Samples = 200
		p.Add(fn)
		p.Legend.Add("exact", fn)
	}

	p.X.Min = samples[0].X
	p.X.Max = samples[len(samples)-1].X
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// Discrepancy plots |y_c - y_p| per step on a log scale, with the tolerance
// as a horizontal line.
func Discrepancy(title string, steps []dynamo.StepResult, tolerance float64) (*plot.Plot, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("export: no steps to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "|D|"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(steps))
	for i, r := range steps {
		pts[i].X = r.X
		// log scale cannot show zero
		pts[i].Y = math.Max(math.Abs(r.Discrepancy), 1e-18)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = colorSolution
	scatter.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("|D|", scatter)

	if tolerance > 0 {
		bound := plotter.NewFunction(func(float64) float64 { return tolerance })
		bound.Color = colorBound
		bound.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(bound)
		p.Legend.Add("max_err", bound)
	}

	p.X.Min = steps[0].X
	p.X.Max = steps[len(steps)-1].X
	return p, nil
}

// Save writes p to path. The format follows the file extension (png, svg,
// pdf, jpg, eps, tif).
func Save(p *plot.Plot, path string) error {
	return p.Save(DefaultWidth, DefaultHeight, path)
}

// WriteTo renders p in the given format to w.
func WriteTo(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.ToLower(format))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Format returns the image format implied by path, defaulting to png.
func Format(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}
