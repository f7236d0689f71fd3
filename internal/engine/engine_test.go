package engine_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/avrek/propsim/internal/engine"
	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/integrators"
	"github.com/avrek/propsim/internal/propagation"
)

const (
	earthGM     = 3.986004418e14
	earthRadius = 6.371e6
)

func earthStore() *ephemeris.CircularStore {
	s := ephemeris.NewCircularStore("Earth")
	s.Add("Earth", ephemeris.Body{GMValue: earthGM, MeanRadius: earthRadius})
	return s
}

func circularOrbitSettings(radius float64, termination propagation.TerminationSettings) *propagation.MultiTypeSettings {
	speed := math.Sqrt(earthGM / radius)
	return &propagation.MultiTypeSettings{
		Propagators: []propagation.SingleArcSettings{
			&propagation.TranslationalStateSettings{
				BodiesToPropagate: []string{"Vehicle"},
				CentralBodies:     []string{"Earth"},
				InitialStates:     []float64{radius, 0, 0, 0, speed, 0},
				Accelerations: propagation.ModelMap{
					"Vehicle": map[string]any{
						"Earth": []any{map[string]any{"type": engine.ModelPointMassGravity}},
					},
				},
				Propagator: propagation.Cowell,
			},
		},
		Termination:   termination,
		PrintInterval: math.NaN(),
	}
}

func TestTimeTerminationSampleCount(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.TimeTermination{Epoch: 100})
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", result.Steps)
	}
	if len(result.Epochs) != 101 {
		t.Errorf("expected 101 samples, got %d", len(result.Epochs))
	}
	if last := result.Epochs[len(result.Epochs)-1]; last != 100 {
		t.Errorf("last epoch: got %.4f, expected 100", last)
	}
}

func TestCircularOrbitHoldsRadius(t *testing.T) {
	const radius = 7e6
	settings := circularOrbitSettings(radius, &propagation.TimeTermination{Epoch: 3000})
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := result.States[len(result.States)-1]
	got := math.Sqrt(final[0]*final[0] + final[1]*final[1] + final[2]*final[2])
	if math.Abs(got-radius)/radius > 1e-6 {
		t.Errorf("radius drifted: got %.2f, expected %.2f", got, radius)
	}
}

func TestMassDepletionTermination(t *testing.T) {
	settings := &propagation.MultiTypeSettings{
		Propagators: []propagation.SingleArcSettings{
			&propagation.MassStateSettings{
				BodiesToPropagate: []string{"Vehicle"},
				InitialStates:     []float64{500},
				MassRateModels: propagation.ModelMap{
					"Vehicle": []any{map[string]any{"type": engine.ModelConstantMassRate, "rate": -1.0}},
				},
			},
		},
		Termination: &propagation.VariableTermination{
			Variable:        propagation.DependentVariable{Name: propagation.VarMass, Body: "Vehicle"},
			Limit:           490,
			UseAsLowerLimit: true,
		},
		PrintInterval: math.NaN(),
	}
	p, err := engine.New(settings, earthStore(), integrators.NewEuler(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := result.States[len(result.States)-1]
	if math.Abs(final[0]-490) > 1e-9 {
		t.Errorf("final mass: got %.4f, expected 490", final[0])
	}
}

func TestHybridAnyStopsAtEarliest(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.HybridTermination{
		Conditions: []propagation.TerminationSettings{
			&propagation.TimeTermination{Epoch: 50},
			&propagation.TimeTermination{Epoch: 5000},
		},
		FulfillAny: true,
	})
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Steps != 50 {
		t.Errorf("any-composition should stop at the earliest bound: got %d steps", result.Steps)
	}
}

func TestHybridAllWaitsForEvery(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.HybridTermination{
		Conditions: []propagation.TerminationSettings{
			&propagation.TimeTermination{Epoch: 50},
			&propagation.TimeTermination{Epoch: 80},
		},
		FulfillAny: false,
	})
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Steps != 80 {
		t.Errorf("all-composition should wait for the latest bound: got %d steps", result.Steps)
	}
}

func TestSaveVariablesSampled(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.TimeTermination{Epoch: 10})
	settings.SaveVariables = []propagation.DependentVariable{
		{Name: propagation.VarAltitude, Body: "Vehicle", RelativeTo: "Earth"},
		{Name: propagation.VarRelativeSpeed, Body: "Vehicle", RelativeTo: "Earth"},
	}
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	altitudes := result.Variables["altitude(Vehicle,Earth)"]
	if len(altitudes) != len(result.Epochs) {
		t.Fatalf("altitude series length %d, expected %d", len(altitudes), len(result.Epochs))
	}
	wantAltitude := 7e6 - earthRadius
	if math.Abs(altitudes[0]-wantAltitude) > 1 {
		t.Errorf("initial altitude: got %.2f, expected %.2f", altitudes[0], wantAltitude)
	}
	speeds := result.Variables["relativeSpeed(Vehicle,Earth)"]
	wantSpeed := math.Sqrt(earthGM / 7e6)
	if math.Abs(speeds[0]-wantSpeed) > 1 {
		t.Errorf("initial speed: got %.2f, expected %.2f", speeds[0], wantSpeed)
	}
}

func TestUnsupportedAccelerationModel(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.TimeTermination{Epoch: 10})
	translational := settings.Propagators[0].(*propagation.TranslationalStateSettings)
	translational.Accelerations = propagation.ModelMap{
		"Vehicle": map[string]any{
			"Earth": []any{map[string]any{"type": "sphericalHarmonicGravity"}},
		},
	}
	_, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	var modelErr *engine.ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("expected ModelError, got %v", err)
	}
	if modelErr.Type != "sphericalHarmonicGravity" {
		t.Errorf("model type: got %q", modelErr.Type)
	}
}

func TestStepLimit(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.TimeTermination{Epoch: 1e9})
	p, err := engine.New(settings, earthStore(), integrators.NewEuler(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.MaxSteps = 10
	_, err = p.Run(context.Background())
	if !errors.Is(err, engine.ErrStepLimit) {
		t.Fatalf("expected step limit error, got %v", err)
	}
}

func TestMissingInitialState(t *testing.T) {
	settings := circularOrbitSettings(7e6, &propagation.TimeTermination{Epoch: 10})
	settings.Propagators[0].(*propagation.TranslationalStateSettings).InitialStates = nil
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 1.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Run(context.Background())
	if !errors.Is(err, engine.ErrNoInitialState) {
		t.Fatalf("expected missing initial state error, got %v", err)
	}
}

func TestRotationalQuaternionStaysUnit(t *testing.T) {
	settings := &propagation.MultiTypeSettings{
		Propagators: []propagation.SingleArcSettings{
			&propagation.RotationalStateSettings{
				BodiesToPropagate: []string{"Vehicle"},
				InitialStates:     []float64{1, 0, 0, 0, 0, 0, 0.1},
				Torques:           propagation.ModelMap{},
			},
		},
		Termination:   &propagation.TimeTermination{Epoch: 100},
		PrintInterval: math.NaN(),
	}
	p, err := engine.New(settings, earthStore(), integrators.NewRK4(), 0.1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	final := result.States[len(result.States)-1]
	norm := math.Sqrt(final[0]*final[0] + final[1]*final[1] + final[2]*final[2] + final[3]*final[3])
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("quaternion norm drifted: got %.8f", norm)
	}
	if final[6] != 0.1 {
		t.Errorf("body rate should stay constant, got %.4f", final[6])
	}
}
