package experiment

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/san-kum/milnesim/internal/config"
	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/sim"
)

// Variant is one point of a comparison: a label and the config to run.
type Variant struct {
	Label  string
	Config *config.Config
}

type Comparison struct {
	Label  string
	Result *dynamo.Result
}

// Compare runs the variants concurrently, at most limit at a time. Each
// variant gets its own equation, starter and metrics. Variants seeded with
// literal samples run before the sweep starts.
func Compare(ctx context.Context, variants []Variant, limit int, logger *slog.Logger) ([]Comparison, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Comparison, len(variants))
	var (
		cfgs []dynamo.Config
		sims []*sim.Simulator
		idx  []int
	)

	for i, v := range variants {
		out[i].Label = v.Label

		exp := New(v.Config, WithLogger(logger.With("variant", v.Label)))
		if err := exp.Setup(); err != nil {
			return nil, err
		}

		if len(v.Config.Seeds) > 0 {
			res, err := exp.Run(ctx)
			if err != nil {
				return nil, err
			}
			out[i].Result = res
			continue
		}

		cfg, err := exp.Prepare()
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
		sims = append(sims, exp.GetSimulator())
		idx = append(idx, i)
	}

	results, err := sim.Sweep(ctx, func(j int) *sim.Simulator { return sims[j] }, cfgs, limit)
	if err != nil {
		return nil, err
	}

	for j, res := range results {
		out[idx[j]].Result = res
	}
	return out, nil
}

// ToleranceVariants copies base once per tolerance.
func ToleranceVariants(base *config.Config, tolerances []float64) []Variant {
	vs := make([]Variant, 0, len(tolerances))
	for _, tol := range tolerances {
		cfg := base.Clone()
		cfg.MaxErr = tol
		vs = append(vs, Variant{Label: "max_err=" + strconv.FormatFloat(tol, 'g', -1, 64), Config: cfg})
	}
	return vs
}

// PolicyVariants copies base once per refine policy.
func PolicyVariants(base *config.Config, policies []string) []Variant {
	vs := make([]Variant, 0, len(policies))
	for _, p := range policies {
		cfg := base.Clone()
		cfg.Policy = p
		vs = append(vs, Variant{Label: "policy=" + p, Config: cfg})
	}
	return vs
}
