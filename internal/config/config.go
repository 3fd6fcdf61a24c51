package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/milnesim/internal/dynamo"
)

const (
	DefaultEquation       = "x+y"
	DefaultH              = 0.1
	DefaultTargetX        = 1.0
	DefaultMaxErr         = 5e-5
	DefaultPolicy         = "once"
	DefaultMaxRefinements = 8
	DefaultMinH           = 1e-8
	DefaultSearchTrials   = 32
)

type Config struct {
	Equation       string       `yaml:"equation"`
	Starter        []string     `yaml:"starter"`
	X0             float64      `yaml:"x0"`
	Y0             float64      `yaml:"y0"`
	TargetX        float64      `yaml:"target_x"`
	H              float64      `yaml:"h"`
	MaxErr         float64      `yaml:"max_err"`
	Policy         string       `yaml:"policy"`
	MaxRefinements int          `yaml:"max_refinements"`
	MinH           float64      `yaml:"min_h"`
	HalveAtX       *float64     `yaml:"halve_at_x,omitempty"`
	Strict         bool         `yaml:"strict"`
	SearchH        bool         `yaml:"search_h"`
	SearchTrials   int          `yaml:"search_trials"`
	Seeds          []SeedConfig `yaml:"seeds,omitempty"`
}

// SeedConfig is a literal starting sample; y' is computed from the equation.
type SeedConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func DefaultConfig() *Config {
	return &Config{
		Equation:       DefaultEquation,
		Starter:        []string{"rk4"},
		X0:             0,
		Y0:             1,
		TargetX:        DefaultTargetX,
		H:              DefaultH,
		MaxErr:         DefaultMaxErr,
		Policy:         DefaultPolicy,
		MaxRefinements: DefaultMaxRefinements,
		MinH:           DefaultMinH,
		SearchTrials:   DefaultSearchTrials,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Starter = append([]string(nil), c.Starter...)
	cp.Seeds = append([]SeedConfig(nil), c.Seeds...)
	if c.HalveAtX != nil {
		at := *c.HalveAtX
		cp.HalveAtX = &at
	}
	return &cp
}

// Dynamo converts the file representation into the integrator config. With
// literal seeds, x0, y0 and h come from the seeds.
func (c *Config) Dynamo() dynamo.Config {
	out := dynamo.Config{
		X0:             c.X0,
		Y0:             c.Y0,
		TargetX:        c.TargetX,
		H:              c.H,
		MaxErr:         c.MaxErr,
		Policy:         dynamo.RefinePolicy(c.Policy),
		MaxRefinements: c.MaxRefinements,
		MinH:           c.MinH,
		Strict:         c.Strict,
	}
	if c.HalveAtX != nil {
		at := *c.HalveAtX
		out.HalveAtX = &at
	}
	if len(c.Seeds) >= 2 {
		out.X0 = c.Seeds[0].X
		out.Y0 = c.Seeds[0].Y
		out.H = c.Seeds[1].X - c.Seeds[0].X
	}
	return out
}

func (c *Config) Validate() error {
	if c.Equation == "" {
		return fmt.Errorf("equation is required: %w", dynamo.ErrInvalidConfig)
	}
	if len(c.Seeds) == 0 && len(c.Starter) == 0 {
		return fmt.Errorf("either starter or seeds must be set: %w", dynamo.ErrInvalidConfig)
	}
	if len(c.Seeds) > 0 && len(c.Seeds) < 4 {
		return fmt.Errorf("need at least 4 seeds, got %d: %w", len(c.Seeds), dynamo.ErrInsufficientHistory)
	}
	if c.SearchH && len(c.Seeds) > 0 {
		return fmt.Errorf("search_h cannot be combined with literal seeds: %w", dynamo.ErrInvalidConfig)
	}
	return c.Dynamo().Validate()
}
