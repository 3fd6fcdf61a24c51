// Package optim searches a grid of run settings for the one that minimises
// a result measure.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no grid point completed")

// Params is one grid point, keyed by parameter name.
type Params map[string]float64

// Trial records one evaluated grid point. Err is set when the run failed;
// such points never win.
type Trial struct {
	Params Params
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *slog.Logger
}

// Tunable lists the parameter names Apply understands.
var Tunable = []string{"h", "max_err", "min_h", "max_refinements", "target_x"}

func NewGridSearch(params []string, ranges [][]float64, logger *slog.Logger) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one range per parameter: %w", dynamo.ErrInvalidConfig)
	}
	for i, name := range params {
		if err := Apply(config.DefaultConfig(), name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s: %w", name, dynamo.ErrInvalidConfig)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

// Apply sets a named parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "h":
		cfg.H = v
	case "max_err":
		cfg.MaxErr = v
	case "min_h":
		cfg.MinH = v
	case "max_refinements":
		cfg.MaxRefinements = int(v)
	case "target_x":
		cfg.TargetX = v
	default:
		return fmt.Errorf("unknown parameter %q: %w", name, dynamo.ErrInvalidConfig)
	}
	return nil
}

// Measure reads the value to minimise from a result: a metric name, or one
// of "steps", "refinements", "warnings" or "max_discrepancy".
func Measure(result *dynamo.Result, name string) (float64, error) {
	switch name {
	case "steps":
		return float64(result.StepsTaken), nil
	case "refinements":
		return float64(result.Refinements), nil
	case "warnings":
		return float64(len(result.Warnings)), nil
	case "max_discrepancy":
		return result.MaxDiscrepancy(), nil
	}
	v, ok := result.Metrics[name]
	if !ok {
		return 0, fmt.Errorf("unknown measure %q: %w", name, dynamo.ErrInvalidConfig)
	}
	return math.Abs(v), nil
}

// Search runs every grid point on a copy of base and returns the point with
// the smallest measure together with all trials in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, measure string) (Params, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams Params
	var trials []Trial

	err := g.searchRecursive(ctx, 0, Params{}, base, measure, &trials)
	if err != nil {
		return nil, 0, trials, err
	}

	for _, tr := range trials {
		if tr.Err == nil && tr.Value < best {
			best = tr.Value
			bestParams = tr.Params
		}
	}
	if bestParams == nil {
		return nil, 0, trials, ErrNoCandidate
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current Params,
	base *config.Config,
	measure string,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		tr := Trial{Params: current}
		tr.Value, tr.Err = g.evaluate(ctx, base, current, measure)
		if errors.Is(tr.Err, context.Canceled) || errors.Is(tr.Err, context.DeadlineExceeded) {
			return tr.Err
		}
		if tr.Err != nil {
			g.logger.Debug("grid point failed", "params", map[string]float64(current), "err", tr.Err)
		}
		*trials = append(*trials, tr)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(Params, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, next, base, measure, trials); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, p Params, measure string) (float64, error) {
	cfg := base.Clone()
	for name, v := range p {
		if err := Apply(cfg, name, v); err != nil {
			return 0, err
		}
	}

	exp := experiment.New(cfg, experiment.WithLogger(g.logger))
	if err := exp.Setup(); err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	return Measure(result, measure)
}
