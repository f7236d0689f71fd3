package integrators

import (
	"math"
	"testing"

	"github.com/avrek/propsim/internal/engine"
)

// oscillator is the unit harmonic oscillator, whose exact solution from
// (1, 0) is (cos t, -sin t).
type oscillator struct{}

func (oscillator) Derive(x engine.State, t float64) engine.State {
	return engine.State{x[1], -x[0]}
}

func (oscillator) Dim() int { return 2 }

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := engine.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(oscillator{}, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerConvergesWithStep(t *testing.T) {
	errAt := func(dt float64) float64 {
		integ := NewEuler()
		x := engine.State{1.0, 0.0}
		steps := int(1.0 / dt)
		for i := 0; i < steps; i++ {
			x = integ.Step(oscillator{}, x, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - math.Cos(1.0))
	}

	coarse := errAt(0.01)
	fine := errAt(0.001)
	if fine >= coarse {
		t.Errorf("halving the step should shrink the error: coarse %.6g, fine %.6g", coarse, fine)
	}
}
