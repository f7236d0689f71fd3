package propagation

import (
	"errors"
	"fmt"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/tags"
)

// ModelMap carries physical-model settings (accelerations, torques, mass
// rates) keyed by body. The values are opaque to the settings layer and are
// read and written verbatim.
type ModelMap map[string]any

// SingleArcSettings is one propagator entry: the settings of a single
// integrated state type for one or more bodies. Hybrid is not a valid
// variant here; it designates the aggregate.
type SingleArcSettings interface {
	StateType() StateType
	Bodies() []string
	InitialState() []float64
}

// TranslationalStateSettings propagates position and velocity.
type TranslationalStateSettings struct {
	BodiesToPropagate []string
	CentralBodies     []string
	InitialStates     []float64
	Accelerations     ModelMap
	Propagator        PropagatorType
}

func (s *TranslationalStateSettings) StateType() StateType    { return StateTranslational }
func (s *TranslationalStateSettings) Bodies() []string        { return s.BodiesToPropagate }
func (s *TranslationalStateSettings) InitialState() []float64 { return s.InitialStates }

// MassStateSettings propagates body mass.
type MassStateSettings struct {
	BodiesToPropagate []string
	InitialStates     []float64
	MassRateModels    ModelMap
}

func (s *MassStateSettings) StateType() StateType    { return StateMass }
func (s *MassStateSettings) Bodies() []string        { return s.BodiesToPropagate }
func (s *MassStateSettings) InitialState() []float64 { return s.InitialStates }

// RotationalStateSettings propagates attitude and angular velocity.
type RotationalStateSettings struct {
	BodiesToPropagate []string
	InitialStates     []float64
	Torques           ModelMap
}

func (s *RotationalStateSettings) StateType() StateType    { return StateRotational }
func (s *RotationalStateSettings) Bodies() []string        { return s.BodiesToPropagate }
func (s *RotationalStateSettings) InitialState() []float64 { return s.InitialStates }

// entryStateType reads an entry's state-type tag, defaulting to
// translational. A recognized-but-rejected tag (hybrid, custom) becomes an
// UnsupportedVariantError at this level.
func entryStateType(obj confnode.Map, at confnode.KeyPath) (StateType, error) {
	text, err := confnode.OptAs(obj, "", KeyStateType)
	if err != nil {
		return "", prefixPath(err, at)
	}
	if text == "" {
		return StateTranslational, nil
	}
	stateType, err := stateTypeTable.Decode(text)
	if err != nil {
		var unsupported *tags.UnsupportedTagError
		if errors.As(err, &unsupported) {
			return "", &UnsupportedVariantError{Tag: StateType(text)}
		}
		return "", err
	}
	return stateType, nil
}

// decodeSingleArc converts one propagator entry into its settings variant.
// The initial-state vector, when present, must hold exactly one per-body
// block per propagated body.
func decodeSingleArc(obj confnode.Map, at confnode.KeyPath) (SingleArcSettings, error) {
	stateType, err := entryStateType(obj, at)
	if err != nil {
		return nil, err
	}

	bodies, err := confnode.GetAs[[]string](obj, KeyBodiesToPropagate)
	if err != nil {
		return nil, prefixPath(err, at)
	}

	initial, err := confnode.OptAs[[]float64](obj, nil, KeyInitialStates)
	if err != nil {
		return nil, prefixPath(err, at)
	}
	if want := stateType.BlockSize() * len(bodies); len(initial) != 0 && len(initial) != want {
		return nil, confnode.Mismatch(at.Child(KeyInitialStates),
			fmt.Sprintf("a vector of length %d (%d per body, %d bodies)", want, stateType.BlockSize(), len(bodies)), nil)
	}

	switch stateType {
	case StateTranslational:
		centrals, err := confnode.GetAs[[]string](obj, KeyCentralBodies)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		if len(centrals) != len(bodies) {
			return nil, confnode.Mismatch(at.Child(KeyCentralBodies),
				fmt.Sprintf("a list of %d central bodies, one per propagated body", len(bodies)), nil)
		}
		accelerations, err := confnode.GetAs[ModelMap](obj, KeyAccelerations)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		propagator := DefaultPropagatorType
		if text, err := confnode.OptAs(obj, "", KeyPropagatorType); err != nil {
			return nil, prefixPath(err, at)
		} else if text != "" {
			propagator, err = propagatorTypeTable.Decode(text)
			if err != nil {
				return nil, err
			}
		}
		return &TranslationalStateSettings{
			BodiesToPropagate: bodies,
			CentralBodies:     centrals,
			InitialStates:     initial,
			Accelerations:     accelerations,
			Propagator:        propagator,
		}, nil

	case StateMass:
		rates, err := confnode.GetAs[ModelMap](obj, KeyMassRateModels)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		return &MassStateSettings{
			BodiesToPropagate: bodies,
			InitialStates:     initial,
			MassRateModels:    rates,
		}, nil

	case StateRotational:
		torques, err := confnode.GetAs[ModelMap](obj, KeyTorques)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		return &RotationalStateSettings{
			BodiesToPropagate: bodies,
			InitialStates:     initial,
			Torques:           torques,
		}, nil
	}
	return nil, &UnsupportedVariantError{Tag: stateType}
}

// encodeSingleArc emits the wire form of one settings variant: the
// state-type tag only when it differs from the decode default, the
// initial-state vector only when non-empty, then the variant fields.
func encodeSingleArc(s SingleArcSettings) (confnode.Map, error) {
	out := confnode.Map{}
	if s.StateType() != StateTranslational {
		text, err := stateTypeTable.Encode(s.StateType())
		if err != nil {
			return nil, err
		}
		out[KeyStateType] = text
	}
	out[KeyBodiesToPropagate] = s.Bodies()
	if initial := s.InitialState(); len(initial) > 0 {
		out[KeyInitialStates] = initial
	}

	switch settings := s.(type) {
	case *TranslationalStateSettings:
		text, err := propagatorTypeTable.Encode(settings.Propagator)
		if err != nil {
			return nil, err
		}
		out[KeyPropagatorType] = text
		out[KeyCentralBodies] = settings.CentralBodies
		out[KeyAccelerations] = map[string]any(settings.Accelerations)
	case *MassStateSettings:
		out[KeyMassRateModels] = map[string]any(settings.MassRateModels)
	case *RotationalStateSettings:
		out[KeyTorques] = map[string]any(settings.Torques)
	default:
		return nil, &UnsupportedVariantError{Tag: s.StateType()}
	}
	return out, nil
}
