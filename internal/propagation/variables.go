package propagation

import (
	"fmt"

	"github.com/avrek/propsim/internal/confnode"
)

// Variable is a descriptor of a quantity an export block may request.
// Only dependent variables are of interest to the settings layer; the
// other kinds pass through untouched.
type Variable interface {
	// ID is the canonical identifier: derived from the descriptor's own
	// fields, never from object identity, so equal requests collapse.
	ID() string
}

// EpochVariable requests the independent variable (the epoch column).
type EpochVariable struct{}

func (EpochVariable) ID() string { return "epoch" }

// StateVariable requests the full integrated state.
type StateVariable struct{}

func (StateVariable) ID() string { return "state" }

// Dependent variable names understood by the engine.
const (
	VarRelativeDistance = "relativeDistance"
	VarRelativeSpeed    = "relativeSpeed"
	VarAltitude         = "altitude"
	VarMass             = "mass"
)

// DependentVariable requests a derived quantity of a body, optionally
// relative to another body.
type DependentVariable struct {
	Name       string
	Body       string
	RelativeTo string
}

func (v DependentVariable) ID() string {
	if v.RelativeTo != "" {
		return fmt.Sprintf("%s(%s,%s)", v.Name, v.Body, v.RelativeTo)
	}
	return fmt.Sprintf("%s(%s)", v.Name, v.Body)
}

// DedupDependentVariables merges the dependent-variable requests of several
// export specs into one list, keeping first-seen order across and within
// specs and dropping duplicates by canonical ID. Non-dependent descriptors
// are ignored.
func DedupDependentVariables(specs []ExportSettings) []DependentVariable {
	seen := map[string]struct{}{}
	var out []DependentVariable
	for _, spec := range specs {
		for _, v := range spec.Variables {
			dep, ok := v.(DependentVariable)
			if !ok {
				continue
			}
			id := dep.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, dep)
		}
	}
	return out
}

// decodeVariable reads a variable descriptor: the strings "epoch" and
// "state" select the special kinds, an object selects a dependent variable.
func decodeVariable(v any, at confnode.KeyPath) (Variable, error) {
	if text, ok := v.(string); ok {
		switch text {
		case EpochVariable{}.ID():
			return EpochVariable{}, nil
		case StateVariable{}.ID():
			return StateVariable{}, nil
		default:
			return nil, confnode.Mismatch(at, `"epoch", "state" or a dependent variable object`, nil)
		}
	}
	obj, err := confnode.AsMap(v, at)
	if err != nil {
		return nil, err
	}
	name, err := confnode.GetAs[string](obj, KeyVariableName)
	if err != nil {
		return nil, prefixPath(err, at)
	}
	body, err := confnode.GetAs[string](obj, KeyVariableBody)
	if err != nil {
		return nil, prefixPath(err, at)
	}
	relativeTo, err := confnode.OptAs(obj, "", KeyVariableRelativeTo)
	if err != nil {
		return nil, prefixPath(err, at)
	}
	return DependentVariable{Name: name, Body: body, RelativeTo: relativeTo}, nil
}

// encodeVariable emits the wire form of a descriptor.
func encodeVariable(v Variable) any {
	switch variable := v.(type) {
	case DependentVariable:
		out := map[string]any{
			KeyVariableName: variable.Name,
			KeyVariableBody: variable.Body,
		}
		if variable.RelativeTo != "" {
			out[KeyVariableRelativeTo] = variable.RelativeTo
		}
		return out
	default:
		return v.ID()
	}
}
