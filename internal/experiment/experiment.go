package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/equations"
	"github.com/san-kum/milnesim/internal/sim"
	"github.com/san-kum/milnesim/internal/stepsize"
)

// Experiment is one configured run: an equation, a starter and the
// integrator settings, optionally preceded by a step size search.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	observers []sim.Observer

	eq        equations.Equation
	simulator *sim.Simulator
	search    *stepsize.Result
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithObservers(obs ...sim.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, obs...) }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg.Clone(),
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the config and builds the simulator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	eq, err := e.registry.GetEquation(e.cfg.Equation)
	if err != nil {
		return err
	}
	dcfg := e.cfg.Dynamo()
	eq.SetInitial(dcfg.X0, dcfg.Y0)

	var starter dynamo.Integrator
	if len(e.cfg.Seeds) == 0 {
		if starter, err = e.registry.GetStarter(e.cfg.Starter, eq); err != nil {
			return err
		}
	}

	e.eq = eq
	e.simulator = sim.New(eq, starter,
		sim.WithLogger(e.logger),
		sim.WithMetrics(e.registry.DefaultMetrics(eq, e.cfg.MaxErr)...),
		sim.WithObservers(e.observers...),
	)
	return nil
}

// Prepare returns the integrator config for the run, performing the step
// size search first when the config asks for one.
func (e *Experiment) Prepare() (dynamo.Config, error) {
	cfg := e.cfg.Dynamo()
	if !e.cfg.SearchH {
		return cfg, nil
	}

	res, err := stepsize.Search(e.eq, cfg.X0, cfg.Y0, cfg.H, cfg.MaxErr, e.cfg.SearchTrials)
	if err != nil {
		return cfg, fmt.Errorf("step size search: %w", err)
	}
	e.search = res
	e.logger.Info("step size chosen", "h0", cfg.H, "h", res.H, "trials", len(res.Trials))
	cfg.H = res.H
	return cfg, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	cfg, err := e.Prepare()
	if err != nil {
		return nil, err
	}

	if len(e.cfg.Seeds) > 0 {
		seeds, err := e.Seeds()
		if err != nil {
			return nil, err
		}
		return e.simulator.RunFrom(ctx, seeds, cfg)
	}
	return e.simulator.Run(ctx, cfg)
}

// Seeds evaluates y' at each literal seed.
func (e *Experiment) Seeds() ([]dynamo.Sample, error) {
	seeds := make([]dynamo.Sample, 0, len(e.cfg.Seeds))
	for _, s := range e.cfg.Seeds {
		sample, err := dynamo.SampleAt(e.eq, s.X, s.Y)
		if err != nil {
			return nil, fmt.Errorf("seed x=%g: %w", s.X, err)
		}
		seeds = append(seeds, sample)
	}
	return seeds, nil
}

// SearchResult returns the step size search trials, or nil when no search ran.
func (e *Experiment) SearchResult() *stepsize.Result { return e.search }

func (e *Experiment) Equation() equations.Equation { return e.eq }

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
