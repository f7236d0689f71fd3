package engine

import (
	"errors"
	"fmt"
	"math"
)

// State is a flat vector holding every propagated block back to back, in
// propagator and body order.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System produces state derivatives at an epoch.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Stepper advances a system by one fixed step.
type Stepper interface {
	Step(sys System, x State, t, dt float64) State
}

var (
	// ErrInvalidState indicates a NaN or Inf appeared in the state vector.
	ErrInvalidState = errors.New("engine: invalid state (NaN or Inf detected)")

	// ErrStepLimit indicates the run hit its step budget before any
	// termination condition was met.
	ErrStepLimit = errors.New("engine: step limit reached before termination")

	// ErrNoInitialState indicates a propagator entry without a resolved
	// initial-state vector.
	ErrNoInitialState = errors.New("engine: propagator has no initial state")
)

// ModelError reports a physical-model entry the engine cannot execute.
type ModelError struct {
	Body string
	Kind string
	Type string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("engine: unsupported %s model %q for body %q", e.Kind, e.Type, e.Body)
}

// StepError wraps a failure with the step and epoch it occurred at.
type StepError struct {
	Step    int
	Epoch   float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Epoch, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
