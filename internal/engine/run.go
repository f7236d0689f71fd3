// Package engine executes decoded propagation settings: it lays the
// propagated blocks out in one state vector, integrates the physical models
// with a fixed-step integrator, and samples dependent variables until the
// termination condition is met.
package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/logging"
	"github.com/avrek/propsim/internal/propagation"
)

const defaultMaxSteps = 2_000_000

// Propagator runs one decoded setup to completion.
type Propagator struct {
	Settings *propagation.MultiTypeSettings
	Store    ephemeris.Store
	Stepper  Stepper

	// StartEpoch is the epoch of the initial state, seconds.
	StartEpoch float64

	// Dt is the fixed integration step, seconds.
	Dt float64

	// MaxSteps bounds the run when the termination condition is never
	// met. Zero means the default budget.
	MaxSteps int

	Log *slog.Logger

	system *multiSystem
}

// Result is the sampled output of a run: one row per accepted step, plus
// the dependent-variable series requested by the settings' save list.
type Result struct {
	Epochs    []float64
	States    []State
	Variables map[string][]float64
	Steps     int
}

// New prepares a propagator. The settings must carry resolved initial
// states on every entry.
func New(settings *propagation.MultiTypeSettings, store ephemeris.Store, stepper Stepper, dt float64) (*Propagator, error) {
	sys, err := buildSystem(settings, store)
	if err != nil {
		return nil, err
	}
	p := &Propagator{
		Settings: settings,
		Store:    store,
		Stepper:  stepper,
		Dt:       dt,
		system:   sys,
	}
	return p, nil
}

func (p *Propagator) log() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logging.NewNop()
}

// initialState concatenates the entries' resolved vectors in layout order.
func (p *Propagator) initialState() (State, error) {
	x := make(State, 0, p.system.dim)
	for _, arc := range p.Settings.Propagators {
		initial := arc.InitialState()
		if len(initial) != arc.StateType().BlockSize()*len(arc.Bodies()) {
			return nil, ErrNoInitialState
		}
		x = append(x, initial...)
	}
	return x, nil
}

// Run integrates until the termination condition is met. The returned
// result holds everything sampled up to the failure point even on error.
func (p *Propagator) Run(ctx context.Context) (*Result, error) {
	x, err := p.initialState()
	if err != nil {
		return nil, err
	}
	maxSteps := p.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	result := &Result{Variables: map[string][]float64{}}
	t := p.StartEpoch
	nextPrint := t

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		p.sample(result, x, t)

		if p.met(p.Settings.Termination, x, t) {
			result.Steps = step
			return result, nil
		}
		if step >= maxSteps {
			result.Steps = step
			return result, &StepError{Step: step, Epoch: t, Wrapped: ErrStepLimit}
		}

		if interval := p.Settings.PrintInterval; !math.IsNaN(interval) && t >= nextPrint {
			p.log().Info("propagating", "epoch", t, "step", step)
			nextPrint += interval
		}

		x = p.Stepper.Step(p.system, x, t, p.Dt)
		t += p.Dt

		if !x.IsValid() {
			result.Steps = step + 1
			return result, &StepError{Step: step + 1, Epoch: t, Wrapped: ErrInvalidState}
		}
	}
}

func (p *Propagator) sample(result *Result, x State, t float64) {
	result.Epochs = append(result.Epochs, t)
	result.States = append(result.States, x.Clone())
	for _, v := range p.Settings.SaveVariables {
		id := v.ID()
		result.Variables[id] = append(result.Variables[id], p.evalVariable(v, x, t))
	}
}

// met evaluates a termination condition tree at a state and epoch.
func (p *Propagator) met(cond propagation.TerminationSettings, x State, t float64) bool {
	switch c := cond.(type) {
	case *propagation.TimeTermination:
		return t >= c.Epoch
	case *propagation.VariableTermination:
		value := p.evalVariable(c.Variable, x, t)
		if c.UseAsLowerLimit {
			return value <= c.Limit
		}
		return value >= c.Limit
	case *propagation.HybridTermination:
		if c.FulfillAny {
			for _, child := range c.Conditions {
				if p.met(child, x, t) {
					return true
				}
			}
			return false
		}
		for _, child := range c.Conditions {
			if !p.met(child, x, t) {
				return false
			}
		}
		return len(c.Conditions) > 0
	}
	return false
}
