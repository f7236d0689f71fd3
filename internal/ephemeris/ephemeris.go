// Package ephemeris provides Cartesian body states for the initial-state
// resolution pipeline and the propagation engine. The Store interface is
// what the settings decoder depends on; CircularStore is a compact in-memory
// implementation with a hierarchy of circular orbits, good enough for
// examples and tests.
package ephemeris

import (
	"errors"
	"fmt"
	"math"
)

// StateSize is the number of scalars in a Cartesian position/velocity state.
const StateSize = 6

// ErrUnavailable signals that a body state cannot be produced: unknown body,
// unknown frame, or an epoch outside the store's coverage.
var ErrUnavailable = errors.New("ephemeris: state unavailable")

// Store serves Cartesian states of named bodies relative to a central body.
// Queries are blocking and idempotent; repeated calls with the same inputs
// return the same result.
type Store interface {
	// State returns the 6-element position/velocity of body relative to
	// central at the given epoch (seconds).
	State(body, central string, epoch float64) ([]float64, error)

	// States is the batched form: it concatenates the states of bodies[i]
	// relative to centrals[i] into one vector of length 6*len(bodies).
	States(bodies, centrals []string, epoch float64) ([]float64, error)
}

// GravityProvider is an optional Store capability exposing gravitational
// parameters, used by the engine to build point-mass attractions.
type GravityProvider interface {
	GM(body string) (float64, bool)
}

// RadiusProvider is an optional Store capability exposing mean body radii,
// used to turn relative distances into altitudes.
type RadiusProvider interface {
	Radius(body string) (float64, bool)
}

// Orbit is a circular, coplanar orbit around a parent body.
type Orbit struct {
	Parent string
	Radius float64 // m
	Period float64 // s
	Phase  float64 // rad at epoch 0
}

// Body is one entry of a CircularStore.
type Body struct {
	Orbit      Orbit
	GMValue    float64 // m^3/s^2, 0 when unknown
	MeanRadius float64 // m, 0 when unknown
}

// CircularStore derives body states from a hierarchy of circular orbits
// rooted at a fixed body. It is safe for concurrent reads once built.
type CircularStore struct {
	root   string
	bodies map[string]Body
}

// NewCircularStore creates an empty store whose frame origin is root.
func NewCircularStore(root string) *CircularStore {
	return &CircularStore{
		root:   root,
		bodies: map[string]Body{root: {}},
	}
}

// Add registers a body. The root body may be re-registered to attach a
// gravitational parameter or radius to it.
func (s *CircularStore) Add(name string, b Body) *CircularStore {
	s.bodies[name] = b
	return s
}

// GM implements GravityProvider.
func (s *CircularStore) GM(body string) (float64, bool) {
	b, ok := s.bodies[body]
	if !ok || b.GMValue == 0 {
		return 0, false
	}
	return b.GMValue, true
}

// Radius implements RadiusProvider.
func (s *CircularStore) Radius(body string) (float64, bool) {
	b, ok := s.bodies[body]
	if !ok || b.MeanRadius == 0 {
		return 0, false
	}
	return b.MeanRadius, true
}

// rootState returns the state of body relative to the frame root, chaining
// through parents.
func (s *CircularStore) rootState(body string, epoch float64) ([]float64, error) {
	state := make([]float64, StateSize)
	for body != s.root {
		b, ok := s.bodies[body]
		if !ok {
			return nil, fmt.Errorf("%w: unknown body %q", ErrUnavailable, body)
		}
		o := b.Orbit
		if o.Parent == "" || o.Radius <= 0 || o.Period <= 0 {
			return nil, fmt.Errorf("%w: body %q has no orbit", ErrUnavailable, body)
		}
		angle := o.Phase + 2*math.Pi*epoch/o.Period
		v := 2 * math.Pi * o.Radius / o.Period
		state[0] += o.Radius * math.Cos(angle)
		state[1] += o.Radius * math.Sin(angle)
		state[3] += -v * math.Sin(angle)
		state[4] += v * math.Cos(angle)
		body = o.Parent
	}
	return state, nil
}

// State implements Store.
func (s *CircularStore) State(body, central string, epoch float64) ([]float64, error) {
	if math.IsNaN(epoch) {
		return nil, fmt.Errorf("%w: epoch is not a time", ErrUnavailable)
	}
	bs, err := s.rootState(body, epoch)
	if err != nil {
		return nil, err
	}
	cs, err := s.rootState(central, epoch)
	if err != nil {
		return nil, err
	}
	out := make([]float64, StateSize)
	for i := range out {
		out[i] = bs[i] - cs[i]
	}
	return out, nil
}

// States implements Store.
func (s *CircularStore) States(bodies, centrals []string, epoch float64) ([]float64, error) {
	if len(bodies) != len(centrals) {
		return nil, fmt.Errorf("%w: %d bodies vs %d central bodies", ErrUnavailable, len(bodies), len(centrals))
	}
	out := make([]float64, 0, StateSize*len(bodies))
	for i := range bodies {
		st, err := s.State(bodies[i], centrals[i], epoch)
		if err != nil {
			return nil, err
		}
		out = append(out, st...)
	}
	return out, nil
}

// Builtin returns a demo solar-system store: Sun, Earth, Moon, and Mars with
// circular approximations of their real orbits.
func Builtin() *CircularStore {
	s := NewCircularStore("Sun")
	s.Add("Sun", Body{GMValue: 1.32712440018e20, MeanRadius: 6.957e8})
	s.Add("Earth", Body{
		Orbit:      Orbit{Parent: "Sun", Radius: 1.495978707e11, Period: 365.25 * 86400},
		GMValue:    3.986004418e14,
		MeanRadius: 6.371e6,
	})
	s.Add("Moon", Body{
		Orbit:      Orbit{Parent: "Earth", Radius: 3.844e8, Period: 27.321661 * 86400},
		GMValue:    4.9048695e12,
		MeanRadius: 1.7374e6,
	})
	s.Add("Mars", Body{
		Orbit:      Orbit{Parent: "Sun", Radius: 2.279392e11, Period: 686.98 * 86400, Phase: math.Pi / 3},
		GMValue:    4.282837e13,
		MeanRadius: 3.3895e6,
	})
	return s
}
