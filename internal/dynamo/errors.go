package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for integration operations.
var (
	// ErrInsufficientHistory indicates fewer than four trailing samples were
	// available for a Milne step.
	ErrInsufficientHistory = errors.New("dynamo: insufficient history (need 4 samples)")

	// ErrInsufficientHistoryForRefinement indicates fewer than five trailing
	// samples were available when halving the step.
	ErrInsufficientHistoryForRefinement = errors.New("dynamo: insufficient history for refinement (need 5 samples)")

	// ErrToleranceExceeded indicates the discrepancy stayed above the tolerance
	// after every allowed refinement.
	ErrToleranceExceeded = errors.New("dynamo: tolerance exceeded after refinement")

	// ErrNumericInstability indicates a NaN or Inf was produced.
	ErrNumericInstability = errors.New("dynamo: numeric instability (NaN or Inf detected)")

	// ErrIrregularSpacing indicates samples that are not evenly spaced in x.
	ErrIrregularSpacing = errors.New("dynamo: samples not evenly spaced")

	// ErrInvalidConfig indicates a parameter value is outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// StepError wraps an error with the location in the run where it happened.
type StepError struct {
	Step    int
	Epoch   int
	X       float64
	H       float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("epoch %d step %d (x=%.6g, h=%.6g): %v", e.Epoch, e.Step, e.X, e.H, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// Warning records a tolerance violation the run continued past.
type Warning struct {
	Epoch       int     `json:"epoch"`
	Step        int     `json:"step"`
	X           float64 `json:"x"`
	H           float64 `json:"h"`
	Discrepancy float64 `json:"discrepancy"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("epoch %d step %d (x=%.6g): |D|=%.3e above tolerance", w.Epoch, w.Step, w.X, math.Abs(w.Discrepancy))
}

func (w Warning) Unwrap() error {
	return ErrToleranceExceeded
}
