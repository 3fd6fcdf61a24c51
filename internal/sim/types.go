package sim

import (
	"log/slog"

	"github.com/san-kum/milnesim/internal/dynamo"
)

type RefinePolicy = dynamo.RefinePolicy

const (
	RefineNone   = dynamo.RefineNone
	RefineOnce   = dynamo.RefineOnce
	RefineRepeat = dynamo.RefineRepeat
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(s dynamo.Sample, r dynamo.StepResult)
	Value() float64
	Reset()
}

// Observer sees every accepted Milne step, in order.
type Observer interface {
	OnStep(s dynamo.Sample, r dynamo.StepResult)
}

type ObserverFunc func(s dynamo.Sample, r dynamo.StepResult)

func (f ObserverFunc) OnStep(s dynamo.Sample, r dynamo.StepResult) { f(s, r) }

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(ms ...Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, ms...) }
}

func WithObservers(obs ...Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, obs...) }
}
