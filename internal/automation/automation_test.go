package automation

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const scenarioYAML = `
name: tolerances
description: x+y at two tolerances, then the literal milne run
steps:
  - name: loose
    config:
      equation: x+y
      target_x: 2
      max_err: 5.0e-5
  - name: tight
    preset: x+y/once
  - preset: milne/tight
    save: true
`

type memSaver struct{ saved []*config.Config }

func (m *memSaver) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	m.saved = append(m.saved, cfg)
	return "run-1", nil
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "tolerances", s.Name)
	require.Len(t, s.Steps, 3)

	cfg, err := s.Steps[0].Resolve()
	require.NoError(t, err)
	assert.Equal(t, "x+y", cfg.Equation)
	assert.Equal(t, 2.0, cfg.TargetX)
	assert.Equal(t, 5e-5, cfg.MaxErr)
	// untouched keys keep their defaults
	assert.Equal(t, config.DefaultH, cfg.H)
	assert.Equal(t, []string{"rk4"}, cfg.Starter)

	cfg, err = s.Steps[2].Resolve()
	require.NoError(t, err)
	assert.Len(t, cfg.Seeds, 4)
}

func TestParseScenario_Errors(t *testing.T) {
	_, err := ParseScenario([]byte("name: empty\n"))
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	_, err = ParseScenario([]byte("steps: [\n"))
	assert.Error(t, err)

	_, err = ScenarioStep{Preset: "milne/nope"}.Resolve()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	saver := &memSaver{}
	out, err := RunScenario(context.Background(), s, saver, quiet)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "loose", out[0].Name)
	assert.Equal(t, 0, out[0].Result.Refinements)
	assert.InDelta(t, 11.778111533039013, out[0].Result.Final().Y, 1e-9)

	assert.Equal(t, 1, out[1].Result.Refinements)
	assert.Equal(t, 0.05, out[1].Result.H)

	assert.Equal(t, "step-3", out[2].Name)
	assert.Equal(t, "run-1", out[2].RunID)
	assert.InDelta(t, 4.717901962493578, out[2].Result.Final().Y, 1e-9)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "x2+y", saver.saved[0].Equation)
}

func TestRunScenario_StopsOnFailure(t *testing.T) {
	s := &Scenario{Name: "bad", Steps: []ScenarioStep{
		{Preset: "x+y/once"},
		{Preset: "x+y/once"},
	}}
	require.NoError(t, s.Steps[1].Config.Encode(map[string]any{"h": -1.0}))

	out, err := RunScenario(context.Background(), s, nil, quiet)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
	assert.Len(t, out, 1)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
