package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/milnesim/internal/dynamo"
	"github.com/san-kum/milnesim/internal/history"
	"github.com/san-kum/milnesim/internal/integrators"
	"github.com/san-kum/milnesim/internal/multistep"
)

// Simulator drives Milne's method across one or more epochs, halving h when
// the refine policy asks for it.
type Simulator struct {
	f         dynamo.Derivative
	starter   dynamo.Integrator
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
}

func New(f dynamo.Derivative, starter dynamo.Integrator, opts ...Option) *Simulator {
	s := &Simulator{
		f:         f,
		starter:   starter,
		logger:    slog.Default(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run seeds the history with the starter and integrates to cfg.TargetX.
func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seeds, err := integrators.Bootstrap(s.starter, s.f, cfg.X0, cfg.Y0, cfg.H)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, seeds, cfg, nil)
}

// RunFrom integrates from caller-supplied seed samples. Their spacing
// overrides cfg.H, cfg.X0 and cfg.Y0.
func (s *Simulator) RunFrom(ctx context.Context, seeds []dynamo.Sample, cfg dynamo.Config) (*dynamo.Result, error) {
	cfg, err := seededConfig(seeds, cfg)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, seeds, cfg, nil)
}

// RunWithCallback behaves like Run but calls fn after every step and stops
// early, without error, once fn returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg dynamo.Config, fn func(dynamo.Sample, dynamo.StepResult) bool) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seeds, err := integrators.Bootstrap(s.starter, s.f, cfg.X0, cfg.Y0, cfg.H)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, seeds, cfg, fn)
}

func seededConfig(seeds []dynamo.Sample, cfg dynamo.Config) (dynamo.Config, error) {
	if len(seeds) < integrators.SeedCount {
		return cfg, fmt.Errorf("%d seed samples: %w", len(seeds), dynamo.ErrInsufficientHistory)
	}
	h := seeds[1].X - seeds[0].X
	if !(h > 0) {
		return cfg, fmt.Errorf("seed x values must increase: %w", dynamo.ErrIrregularSpacing)
	}
	cfg.H = h
	cfg.X0 = seeds[0].X
	cfg.Y0 = seeds[0].Y
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type runState struct {
	cfg       dynamo.Config
	result    *dynamo.Result
	window    history.Window
	epoch     dynamo.Epoch
	limit     int
	tolRefs   int
	scheduled bool
}

func (s *Simulator) run(ctx context.Context, seeds []dynamo.Sample, cfg dynamo.Config, fn func(dynamo.Sample, dynamo.StepResult) bool) (*dynamo.Result, error) {
	w, err := history.New(cfg.H, seeds...)
	if err != nil {
		return nil, fmt.Errorf("seed history: %w", err)
	}

	result := &dynamo.Result{
		Samples:  make([]dynamo.Sample, 0, len(seeds)+stepsTo(cfg.TargetX, cfg.X0, cfg.H)),
		Steps:    make([]dynamo.StepResult, 0),
		Epochs:   make([]dynamo.Epoch, 0, 1),
		Warnings: make([]dynamo.Warning, 0),
		Metrics:  make(map[string]float64),
		H:        cfg.H,
	}
	result.Samples = append(result.Samples, seeds...)

	for _, m := range s.metrics {
		m.Reset()
	}

	st := &runState{
		cfg:    cfg,
		result: result,
		window: w,
		limit:  cfg.Policy.Limit(cfg.MaxRefinements),
	}
	st.startEpoch(dynamo.ReasonStart)
	s.logger.Debug("epoch started", "epoch", 0, "h", cfg.H, "x", w.Newest().X, "reason", dynamo.ReasonStart)

	defer s.collect(result)

	for {
		h := st.window.H()
		steps := stepsTo(cfg.TargetX, st.window.Newest().X, h)
		if steps <= 0 {
			break
		}

		refined := false
		for i := 0; i < steps; i++ {
			select {
			case <-ctx.Done():
				st.closeEpoch()
				return result, ctx.Err()
			default:
			}

			next, r, err := multistep.Advance(st.window, s.f)
			if err != nil {
				st.closeEpoch()
				return result, s.stepError(st, r.X, err)
			}
			st.window = next
			sample := next.Newest()

			result.Samples = append(result.Samples, sample)
			result.Steps = append(result.Steps, r)
			result.StepsTaken++
			st.epoch.Steps++
			st.epoch.EndX = sample.X

			for _, m := range s.metrics {
				m.Observe(sample, r)
			}
			for _, obs := range s.observers {
				obs.OnStep(sample, r)
			}
			if fn != nil && !fn(sample, r) {
				st.closeEpoch()
				return result, nil
			}

			last := i == steps-1
			reason, err := s.decide(st, r, last)
			if err != nil {
				st.closeEpoch()
				return result, err
			}
			if reason == "" {
				continue
			}

			if err := s.refine(st, reason); err != nil {
				return result, err
			}
			refined = true
			break
		}

		if !refined {
			break
		}
	}

	st.closeEpoch()
	return result, nil
}

// decide returns the reason for halving h after step r, or "" to keep going.
// A violation that cannot be recovered becomes a warning, or an error when
// the run is strict.
func (s *Simulator) decide(st *runState, r dynamo.StepResult, last bool) (string, error) {
	cfg := st.cfg
	canHalve := !last && r.H/2 >= cfg.MinH

	if cfg.HalveAtX != nil && !st.scheduled && r.X >= *cfg.HalveAtX-spacingEps*r.H {
		st.scheduled = true
		if canHalve {
			return dynamo.ReasonScheduled, nil
		}
	}

	if !r.Exceeds(cfg.MaxErr) {
		return "", nil
	}
	if canHalve && st.tolRefs < st.limit {
		st.tolRefs++
		return dynamo.ReasonTolerance, nil
	}

	warn := dynamo.Warning{
		Epoch:       st.epoch.Index,
		Step:        st.result.StepsTaken,
		X:           r.X,
		H:           r.H,
		Discrepancy: r.Discrepancy,
	}
	if cfg.Strict {
		return "", &dynamo.StepError{
			Step:    warn.Step,
			Epoch:   warn.Epoch,
			X:       r.X,
			H:       r.H,
			Wrapped: fmt.Errorf("|D|=%.3e above %g: %w", math.Abs(r.Discrepancy), cfg.MaxErr, dynamo.ErrToleranceExceeded),
		}
	}
	st.result.Warnings = append(st.result.Warnings, warn)
	s.logger.Warn("tolerance exceeded",
		"epoch", warn.Epoch,
		"step", warn.Step,
		"x", r.X,
		"h", r.H,
		"discrepancy", r.Discrepancy,
		"max_err", cfg.MaxErr,
	)
	return "", nil
}

const spacingEps = 1e-9

// stepCountEps absorbs the rounding x picks up from repeated x += h, which
// grows with the number of steps and can reach a few 1e-9 of h.
const stepCountEps = 1e-6

// stepsTo is the number of whole steps of h from x that stay at or before
// target.
func stepsTo(target, x, h float64) int {
	n := math.Floor((target-x)/h + stepCountEps)
	if n < 0 {
		return 0
	}
	return int(n)
}

func (s *Simulator) refine(st *runState, reason string) error {
	from := st.window.H()
	next, err := multistep.Refine(st.window, s.f)
	if err != nil {
		st.closeEpoch()
		return s.stepError(st, st.window.Newest().X, err)
	}
	st.closeEpoch()
	st.window = next
	st.result.Refinements++
	st.result.H = next.H()
	st.startEpoch(reason)

	s.logger.Info("step halved",
		"epoch", st.epoch.Index,
		"x", next.Newest().X,
		"from", from,
		"to", next.H(),
		"reason", reason,
	)
	return nil
}

func (s *Simulator) stepError(st *runState, x float64, err error) error {
	return &dynamo.StepError{
		Step:    st.result.StepsTaken,
		Epoch:   st.epoch.Index,
		X:       x,
		H:       st.window.H(),
		Wrapped: err,
	}
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (st *runState) startEpoch(reason string) {
	q, _ := st.window.Last4()
	x := st.window.Newest().X
	st.epoch = dynamo.Epoch{
		Index:  len(st.result.Epochs),
		H:      st.window.H(),
		StartX: x,
		EndX:   x,
		Seeds:  [4]dynamo.Sample{q.Oldest, q.SecondOldest, q.SecondNewest, q.Newest},
		Reason: reason,
	}
}

func (st *runState) closeEpoch() {
	if st.epoch.Index < len(st.result.Epochs) {
		return
	}
	st.result.Epochs = append(st.result.Epochs, st.epoch)
}
