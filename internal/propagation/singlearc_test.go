package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/tags"
)

func translationalEntry() confnode.Map {
	return confnode.Map{
		KeyBodiesToPropagate: []any{"Vehicle"},
		KeyCentralBodies:     []any{"Earth"},
		KeyInitialStates:     []any{7.0e6, 0.0, 0.0, 0.0, 7.5e3, 0.0},
		KeyAccelerations: map[string]any{
			"Vehicle": map[string]any{
				"Earth": []any{map[string]any{"type": "pointMassGravity"}},
			},
		},
	}
}

func TestDecodeTranslationalDefaults(t *testing.T) {
	arc, err := decodeSingleArc(translationalEntry(), confnode.Path(KeyPropagators, "0"))
	require.NoError(t, err)

	settings, ok := arc.(*TranslationalStateSettings)
	require.True(t, ok)
	assert.Equal(t, StateTranslational, settings.StateType())
	assert.Equal(t, []string{"Vehicle"}, settings.BodiesToPropagate)
	assert.Equal(t, []string{"Earth"}, settings.CentralBodies)
	assert.Equal(t, DefaultPropagatorType, settings.Propagator)
	assert.Len(t, settings.InitialStates, 6)
	assert.Contains(t, settings.Accelerations, "Vehicle")
}

func TestDecodeMass(t *testing.T) {
	entry := confnode.Map{
		KeyStateType:         "mass",
		KeyBodiesToPropagate: []any{"Vehicle"},
		KeyInitialStates:     []any{500.0},
		KeyMassRateModels: map[string]any{
			"Vehicle": []any{map[string]any{"type": "constant", "rate": -0.01}},
		},
	}
	arc, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
	require.NoError(t, err)

	settings, ok := arc.(*MassStateSettings)
	require.True(t, ok)
	assert.Equal(t, []float64{500}, settings.InitialStates)
}

func TestDecodeRotational(t *testing.T) {
	entry := confnode.Map{
		KeyStateType:         "rotational",
		KeyBodiesToPropagate: []any{"Vehicle"},
		KeyInitialStates:     []any{1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.1},
		KeyTorques:           map[string]any{"Vehicle": map[string]any{}},
	}
	arc, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
	require.NoError(t, err)
	assert.Equal(t, StateRotational, arc.StateType())
	assert.Len(t, arc.InitialState(), 7)
}

func TestDecodeRejectsHybridAndCustom(t *testing.T) {
	for _, tag := range []string{"hybrid", "custom"} {
		entry := confnode.Map{
			KeyStateType:         tag,
			KeyBodiesToPropagate: []any{"Vehicle"},
		}
		_, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
		var unsupported *UnsupportedVariantError
		require.ErrorAs(t, err, &unsupported, "tag %q", tag)
		assert.Equal(t, StateType(tag), unsupported.Tag)
	}
}

func TestDecodeUnknownStateTypeIsATypo(t *testing.T) {
	entry := confnode.Map{
		KeyStateType:         "translatoinal",
		KeyBodiesToPropagate: []any{"Vehicle"},
	}
	_, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
	var unknown *tags.UnknownTagError
	assert.ErrorAs(t, err, &unknown)
}

func TestVectorLengthInvariant(t *testing.T) {
	entry := confnode.Map{
		KeyBodiesToPropagate: []any{"A", "B", "C"},
		KeyCentralBodies:     []any{"Earth", "Earth", "Earth"},
		KeyInitialStates:     make([]any, 15), // 18 expected for 3 translational bodies
		KeyAccelerations:     map[string]any{},
	}
	for i := range entry[KeyInitialStates].([]any) {
		entry[KeyInitialStates].([]any)[i] = 0.0
	}
	_, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
	var mismatch *confnode.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Path.String(), KeyInitialStates)
}

func TestCentralBodiesLengthMismatch(t *testing.T) {
	entry := translationalEntry()
	entry[KeyCentralBodies] = []any{"Earth", "Moon"}
	_, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, "0"))
	var mismatch *confnode.TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestSingleArcRoundTrips(t *testing.T) {
	cases := []SingleArcSettings{
		&TranslationalStateSettings{
			BodiesToPropagate: []string{"Vehicle"},
			CentralBodies:     []string{"Earth"},
			InitialStates:     []float64{7e6, 0, 0, 0, 7.5e3, 0},
			Accelerations:     ModelMap{"Vehicle": map[string]any{"Earth": []any{map[string]any{"type": "pointMassGravity"}}}},
			Propagator:        GaussKeplerian,
		},
		&MassStateSettings{
			BodiesToPropagate: []string{"Vehicle"},
			InitialStates:     []float64{500},
			MassRateModels:    ModelMap{"Vehicle": []any{map[string]any{"type": "constant", "rate": -0.01}}},
		},
		&RotationalStateSettings{
			BodiesToPropagate: []string{"Vehicle"},
			InitialStates:     []float64{1, 0, 0, 0, 0, 0, 0.1},
			Torques:           ModelMap{"Vehicle": map[string]any{}},
		},
	}
	for _, orig := range cases {
		enc, err := encodeSingleArc(orig)
		require.NoError(t, err)
		back, err := decodeSingleArc(enc, confnode.Path(KeyPropagators, "0"))
		require.NoError(t, err)
		assert.Equal(t, orig, back)
	}
}

func TestEncodeOmitsDefaultsAndEmptyState(t *testing.T) {
	orig := &TranslationalStateSettings{
		BodiesToPropagate: []string{"Vehicle"},
		CentralBodies:     []string{"Earth"},
		Accelerations:     ModelMap{},
		Propagator:        DefaultPropagatorType,
	}
	enc, err := encodeSingleArc(orig)
	require.NoError(t, err)
	assert.False(t, enc.Has(KeyStateType), "default state type should be omitted")
	assert.False(t, enc.Has(KeyInitialStates), "empty initial state should be omitted")

	// omitted fields re-decode to the same defaults
	back, err := decodeSingleArc(enc, confnode.Path(KeyPropagators, "0"))
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}
