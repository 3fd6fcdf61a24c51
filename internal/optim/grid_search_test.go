package optim

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestGridSearch_FewestSteps(t *testing.T) {
	g, err := NewGridSearch([]string{"h"}, [][]float64{{0.025, 0.05, 0.1}}, quiet)
	require.NoError(t, err)

	base := config.GetPreset("x+y", "once")
	base.Policy = "none"

	best, v, trials, err := g.Search(context.Background(), base, "steps")
	require.NoError(t, err)
	assert.Equal(t, Params{"h": 0.1}, best)
	assert.Equal(t, 17.0, v)
	require.Len(t, trials, 3)
	for _, tr := range trials {
		assert.NoError(t, tr.Err)
	}
	// base is not modified
	assert.Equal(t, 0.1, base.H)
}

func TestGridSearch_TwoParameters(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"max_err", "max_refinements"},
		[][]float64{{1e-6, 5e-5}, {1, 3}},
		quiet,
	)
	require.NoError(t, err)

	base := config.GetPreset("x+y", "repeat")
	best, v, trials, err := g.Search(context.Background(), base, "warnings")
	require.NoError(t, err)
	assert.Len(t, trials, 4)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 5e-5, best["max_err"])
}

func TestGridSearch_FailedPointsNeverWin(t *testing.T) {
	g, err := NewGridSearch([]string{"h"}, [][]float64{{-0.1, 0.1}}, quiet)
	require.NoError(t, err)

	best, _, trials, err := g.Search(context.Background(), config.GetPreset("x+y", "once"), "steps")
	require.NoError(t, err)
	assert.Equal(t, 0.1, best["h"])
	require.Len(t, trials, 2)
	assert.ErrorIs(t, trials[0].Err, dynamo.ErrInvalidConfig)

	g, err = NewGridSearch([]string{"h"}, [][]float64{{-0.1}}, quiet)
	require.NoError(t, err)
	_, _, _, err = g.Search(context.Background(), config.GetPreset("x+y", "once"), "steps")
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestGridSearch_Cancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"h"}, [][]float64{{0.1}}, quiet)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err = g.Search(ctx, config.GetPreset("x+y", "once"), "steps")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGridSearch_Invalid(t *testing.T) {
	_, err := NewGridSearch([]string{"dt"}, [][]float64{{0.1}}, quiet)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	_, err = NewGridSearch([]string{"h"}, nil, quiet)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	_, err = NewGridSearch([]string{"h"}, [][]float64{{}}, quiet)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestMeasure(t *testing.T) {
	r := &dynamo.Result{
		StepsTaken:  12,
		Refinements: 2,
		Warnings:    make([]dynamo.Warning, 3),
		Metrics:     map[string]float64{"global_error": -4e-6},
	}
	for name, want := range map[string]float64{"steps": 12, "refinements": 2, "warnings": 3, "global_error": 4e-6} {
		v, err := Measure(r, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, v, name)
	}
	_, err := Measure(r, "energy")
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
