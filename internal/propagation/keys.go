package propagation

// Configuration keys of the propagation block and its siblings.
const (
	KeyPropagators   = "propagators"
	KeyTermination   = "termination"
	KeyFinalEpoch    = "finalEpoch"
	KeyOptions       = "options"
	KeyPrintInterval = "printInterval"
	KeyBodies        = "bodies"
	KeyExport        = "export"
)

// Keys of a single propagator entry.
const (
	KeyStateType         = "stateType"
	KeyBodiesToPropagate = "bodiesToPropagate"
	KeyInitialStates     = "initialStates"
	KeyCentralBodies     = "centralBodies"
	KeyAccelerations     = "accelerations"
	KeyMassRateModels    = "massRateModels"
	KeyTorques           = "torques"
	KeyPropagatorType    = "type"
)

// Keys of per-body state fields, used by the initial-state fallback path.
const (
	KeyBodyInitialState    = "initialState"
	KeyBodyMass            = "mass"
	KeyBodyRotationalState = "rotationalState"
	KeyBodyRelativeTo      = "relativeTo"
	KeyBodyState           = "state"
)

// Keys of a termination condition object.
const (
	KeyTerminationType = "type"
	KeyEpoch           = "epoch"
	KeyVariable        = "variable"
	KeyLimit           = "limit"
	KeyUseAsLowerLimit = "useAsLowerLimit"
	KeyConditions      = "conditions"
	KeyFulfillAny      = "fulfillAny"
)

// Keys of an export block.
const (
	KeyExportFile      = "file"
	KeyExportVariables = "variables"
	KeyExportHeader    = "header"
	KeyExportEpochs    = "epochsInFirstColumn"
)

// Keys of a variable descriptor object.
const (
	KeyVariableName       = "name"
	KeyVariableBody       = "body"
	KeyVariableRelativeTo = "relativeTo"
)
