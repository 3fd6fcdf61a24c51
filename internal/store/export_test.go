package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/stepsize"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		Samples: []dynamo.Sample{
			{X: 0, Y: 1, YPrime: 1},
			{X: 0.1, Y: 1.11, YPrime: 1.21},
			{X: 0.2, Y: 1.24, YPrime: 1.44},
			{X: 0.3, Y: 1.40, YPrime: 1.70},
			{X: 0.4, Y: 1.58, YPrime: 1.98},
		},
		Steps: []dynamo.StepResult{
			{X: 0.4, H: 0.1, Predicted: 1.5836, Corrected: 1.58, Discrepancy: -0.0036},
		},
		Epochs:      []dynamo.Epoch{{Index: 0, H: 0.1, StartX: 0.3, EndX: 0.4, Steps: 1, Reason: dynamo.ReasonStart}},
		Metrics:     map[string]float64{"max_discrepancy": 0.0036},
		H:           0.1,
		StepsTaken:  1,
		Refinements: 0,
	}
}

func TestWriteJSON(t *testing.T) {
	cfg := config.DefaultConfig()
	search := &stepsize.Result{H: 0.1, Trials: []stepsize.Comparison{{H: 0.1, ErrOneStep: 1e-7}}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewExportData(cfg, sampleResult(), search)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "x+y", got["equation"])
	assert.Equal(t, "once", got["policy"])
	assert.EqualValues(t, 1, got["steps"])
	assert.Len(t, got["samples"], 5)
	assert.Len(t, got["trace"], 1)
	assert.Empty(t, got["warnings"])
	assert.Contains(t, got, "search")

	trace := got["trace"].([]any)[0].(map[string]any)
	assert.InDelta(t, -0.0036, trace["discrepancy"], 1e-15)
}

func TestNewExportData_Seeded(t *testing.T) {
	cfg := config.GetPreset("milne", "reference")
	require.NotNil(t, cfg)

	data := NewExportData(cfg, sampleResult(), nil)
	assert.Nil(t, data.Starter)
	assert.Nil(t, data.Search)
	assert.Equal(t, 0.1, data.H)
}

func TestExportJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	data := NewExportData(config.DefaultConfig(), sampleResult(), nil)
	require.NoError(t, ExportJSON(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var back ExportData
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, data.Samples, back.Samples)
	assert.Equal(t, data.Epochs, back.Epochs)
	assert.NotContains(t, string(raw), `"search"`)
}
