// Package automation runs scripted batches of integrations described in a
// YAML scenario file.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/experiment"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run. Preset, when set, is the starting point and
// Config overrides only the keys it names.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	Save   bool      `yaml:"save"`
}

// Saver stores a finished run and returns its id.
type Saver interface {
	Save(cfg *config.Config, result *dynamo.Result) (string, error)
}

// StepOutcome is what one scenario step produced.
type StepOutcome struct {
	Name   string
	Config *config.Config
	Result *dynamo.Result
	RunID  string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps: %w", scenario.Name, dynamo.ErrInvalidConfig)
	}
	return &scenario, nil
}

// Resolve builds the config for one step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		group, name, _ := strings.Cut(s.Preset, "/")
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q: %w", s.Preset, dynamo.ErrInvalidConfig)
		}
		cfg = p
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order and stops at the first failure.
// saver may be nil, in which case steps marked save are only run.
func RunScenario(ctx context.Context, scenario *Scenario, saver Saver, logger *slog.Logger) ([]StepOutcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	outcomes := make([]StepOutcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", name, "index", i+1, "of", len(scenario.Steps))

		cfg, err := step.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		exp := experiment.New(cfg, experiment.WithLogger(logger.With("step", name)))
		if err := exp.Setup(); err != nil {
			return outcomes, fmt.Errorf("step %d (%s) setup: %w", i+1, name, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s) run: %w", i+1, name, err)
		}

		out := StepOutcome{Name: name, Config: exp.Config(), Result: result}
		if step.Save && saver != nil {
			out.RunID, err = saver.Save(exp.Config(), result)
			if err != nil {
				return outcomes, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
