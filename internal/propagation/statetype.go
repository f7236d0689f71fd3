package propagation

import "github.com/avrek/propsim/internal/tags"

// StateType discriminates which physical state a propagator entry integrates.
type StateType string

const (
	StateHybrid        StateType = "hybrid"
	StateTranslational StateType = "translational"
	StateRotational    StateType = "rotational"
	StateMass          StateType = "mass"
	StateCustom        StateType = "custom"
)

// BlockSize is the number of scalars one body contributes to an
// initial-state vector of this type.
func (t StateType) BlockSize() int {
	switch t {
	case StateTranslational:
		return 6 // position + velocity
	case StateRotational:
		return 7 // quaternion + angular velocity
	case StateMass:
		return 1
	default:
		return 0
	}
}

// PropagatorType selects the formulation used for translational propagation.
type PropagatorType string

const (
	Cowell                   PropagatorType = "cowell"
	Encke                    PropagatorType = "encke"
	GaussKeplerian           PropagatorType = "gaussKeplerian"
	GaussModifiedEquinoctial PropagatorType = "gaussModifiedEquinoctial"
)

// DefaultPropagatorType is assumed when a translational entry names none.
const DefaultPropagatorType = Cowell

// Tag tables, built once. Hybrid and custom are textually known so that a
// typo is reported differently from a deliberate "not supported here".
var (
	stateTypeTable = tags.New("state type", []tags.Entry[StateType]{
		{Tag: StateHybrid, Text: "hybrid"},
		{Tag: StateTranslational, Text: "translational"},
		{Tag: StateRotational, Text: "rotational"},
		{Tag: StateMass, Text: "mass"},
		{Tag: StateCustom, Text: "custom"},
	}).WithUnsupported(StateHybrid, StateCustom)

	propagatorTypeTable = tags.New("propagator type", []tags.Entry[PropagatorType]{
		{Tag: Cowell, Text: "cowell"},
		{Tag: Encke, Text: "encke"},
		{Tag: GaussKeplerian, Text: "gaussKeplerian"},
		{Tag: GaussModifiedEquinoctial, Text: "gaussModifiedEquinoctial"},
	})
)

// StateTypeTable exposes the state-type codec table.
func StateTypeTable() tags.Table[StateType] { return stateTypeTable }

// PropagatorTypeTable exposes the translational-propagator codec table.
func PropagatorTypeTable() tags.Table[PropagatorType] { return propagatorTypeTable }
