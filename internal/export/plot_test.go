package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
)

func xPlusYSamples() []dynamo.Sample {
	eq := equations.NewXPlusY()
	out := make([]dynamo.Sample, 0, 11)
	for i := 0; i <= 10; i++ {
		x := float64(i) * 0.1
		out = append(out, dynamo.Sample{X: x, Y: eq.Exact(x), YPrime: eq.Derive(x, eq.Exact(x))})
	}
	return out
}

func TestSolution_SavePNG(t *testing.T) {
	p, err := Solution("y' = x + y", xPlusYSamples(), equations.NewXPlusY())
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 1.0, p.X.Max)

	path := filepath.Join(t.TempDir(), "solution.png")
	require.NoError(t, Save(p, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "expected a png file")
}

func TestDiscrepancy_WriteSVG(t *testing.T) {
	steps := []dynamo.StepResult{
		{X: 0.4, Discrepancy: 7.3e-6},
		{X: 0.5, Discrepancy: -8.1e-6},
		{X: 0.6, Discrepancy: 0},
	}

	p, err := Discrepancy("discrepancy", steps, 1e-6)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTo(p, &buf, "SVG"))
	assert.Contains(t, buf.String(), "<svg")
}

func TestEmptyInput(t *testing.T) {
	_, err := Solution("empty", nil, nil)
	assert.Error(t, err)

	_, err = Discrepancy("empty", nil, 1e-6)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "png", Format("out.PNG"))
	assert.Equal(t, "svg", Format("dir/out.svg"))
	assert.Equal(t, "png", Format("out"))
}
