package engine

import (
	"math"

	"github.com/avrek/propsim/internal/propagation"
)

// Session paces a run externally, one step at a time, for interactive
// consumers.
type Session struct {
	p    *Propagator
	x    State
	t    float64
	step int
	done bool
}

// Session prepares externally paced stepping from the initial state.
func (p *Propagator) Session() (*Session, error) {
	x, err := p.initialState()
	if err != nil {
		return nil, err
	}
	s := &Session{p: p, x: x, t: p.StartEpoch}
	s.done = p.met(p.Settings.Termination, s.x, s.t)
	return s, nil
}

// Step advances one integration step. It reports false once the
// termination condition is met or the state turns invalid.
func (s *Session) Step() bool {
	if s.done {
		return false
	}
	s.x = s.p.Stepper.Step(s.p.system, s.x, s.t, s.p.Dt)
	s.t += s.p.Dt
	s.step++
	if !s.x.IsValid() || s.p.met(s.p.Settings.Termination, s.x, s.t) {
		s.done = true
	}
	return !s.done
}

// Reset rewinds to the initial state.
func (s *Session) Reset() {
	x, err := s.p.initialState()
	if err != nil {
		return
	}
	s.x = x
	s.t = s.p.StartEpoch
	s.step = 0
	s.done = s.p.met(s.p.Settings.Termination, s.x, s.t)
}

func (s *Session) State() State   { return s.x }
func (s *Session) Epoch() float64 { return s.t }
func (s *Session) Steps() int     { return s.step }
func (s *Session) Done() bool     { return s.done }

// Variable evaluates a dependent variable at the current state.
func (s *Session) Variable(v propagation.DependentVariable) float64 {
	if s.x == nil {
		return math.NaN()
	}
	return s.p.evalVariable(v, s.x, s.t)
}
