package propagation

import (
	"math"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/tags"
)

// TerminationSettings is a stopping condition: a fixed epoch, a dependent
// variable crossing a limit, or a hybrid combination of child conditions.
type TerminationSettings interface {
	terminationSettings()
}

// TimeTermination stops the propagation once the epoch is reached.
type TimeTermination struct {
	Epoch float64
}

// VariableTermination stops when a dependent variable crosses Limit. With
// UseAsLowerLimit set the condition is met when the value drops below the
// limit instead of exceeding it.
type VariableTermination struct {
	Variable        DependentVariable
	Limit           float64
	UseAsLowerLimit bool
}

// HybridTermination combines child conditions. With FulfillAny set the
// propagation stops when any child is met; otherwise all must be met.
type HybridTermination struct {
	Conditions []TerminationSettings
	FulfillAny bool
}

func (*TimeTermination) terminationSettings()     {}
func (*VariableTermination) terminationSettings() {}
func (*HybridTermination) terminationSettings()   {}

// TerminationType tags the wire form of a condition object.
type TerminationType string

const (
	TerminationTime     TerminationType = "time"
	TerminationVariable TerminationType = "variable"
	TerminationHybrid   TerminationType = "hybrid"
)

var terminationTypeTable = tags.New("termination type", []tags.Entry[TerminationType]{
	{Tag: TerminationTime, Text: "time"},
	{Tag: TerminationVariable, Text: "variable"},
	{Tag: TerminationHybrid, Text: "hybrid"},
})

// Configuration-sourced trees are author-controlled in shape; decoding
// refuses pathological nesting instead of recursing without bound.
const maxTerminationDepth = 32

// ComposeTermination merges an optional user-supplied condition with an
// optional explicit final epoch:
//
//   - no user condition: a fixed-epoch condition is built from the final
//     epoch, or ErrMissingTermination when that is absent too;
//   - user condition already carrying a time bound among its direct
//     children, or no final epoch given: the user condition is kept as is;
//   - otherwise: hybrid(any) of the user condition and a fresh fixed-epoch
//     condition.
func ComposeTermination(user TerminationSettings, finalEpoch *float64) (TerminationSettings, error) {
	if user == nil {
		if finalEpoch == nil {
			return nil, ErrMissingTermination
		}
		return &TimeTermination{Epoch: *finalEpoch}, nil
	}
	if finalEpoch == nil || hasDirectTimeChild(user) {
		return user, nil
	}
	return &HybridTermination{
		Conditions: []TerminationSettings{user, &TimeTermination{Epoch: *finalEpoch}},
		FulfillAny: true,
	}, nil
}

// hasDirectTimeChild checks the direct child list only: a bare time
// condition counts as its own child, a hybrid contributes its immediate
// children, and deeper nesting is ignored.
func hasDirectTimeChild(c TerminationSettings) bool {
	switch cond := c.(type) {
	case *TimeTermination:
		return true
	case *HybridTermination:
		for _, child := range cond.Conditions {
			if _, ok := child.(*TimeTermination); ok {
				return true
			}
		}
	}
	return false
}

// NearestFixedEpoch returns the epoch of the first fixed-epoch condition
// found by a depth-first, list-order walk of the condition tree. The
// absence of a time bound is a valid outcome, signalled by NaN.
func NearestFixedEpoch(c TerminationSettings) float64 {
	switch cond := c.(type) {
	case *TimeTermination:
		return cond.Epoch
	case *HybridTermination:
		for _, child := range cond.Conditions {
			if epoch := NearestFixedEpoch(child); !math.IsNaN(epoch) {
				return epoch
			}
		}
	}
	return math.NaN()
}

// decodeTermination reads a condition object. The type tag may be omitted
// when the shape is unambiguous: a "conditions" list means hybrid, an
// "epoch" field means time, a "variable" field means variable.
func decodeTermination(v any, at confnode.KeyPath, depth int) (TerminationSettings, error) {
	if depth > maxTerminationDepth {
		return nil, confnode.Mismatch(at, "a termination tree of reasonable depth", nil)
	}
	obj, err := confnode.AsMap(v, at)
	if err != nil {
		return nil, err
	}

	text, err := confnode.OptAs(obj, "", KeyTerminationType)
	if err != nil {
		return nil, err
	}
	var tt TerminationType
	switch {
	case text != "":
		tt, err = terminationTypeTable.Decode(text)
		if err != nil {
			return nil, err
		}
	case obj.Has(KeyConditions):
		tt = TerminationHybrid
	case obj.Has(KeyEpoch):
		tt = TerminationTime
	case obj.Has(KeyVariable):
		tt = TerminationVariable
	default:
		return nil, confnode.Mismatch(at, "a termination condition object", nil)
	}

	switch tt {
	case TerminationTime:
		epoch, err := confnode.GetAs[float64](obj, KeyEpoch)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		return &TimeTermination{Epoch: epoch}, nil

	case TerminationVariable:
		raw, ok := obj.Get(KeyVariable)
		if !ok {
			return nil, &confnode.MissingKeyError{Path: at.Child(KeyVariable)}
		}
		variable, err := decodeVariable(raw, at.Child(KeyVariable))
		if err != nil {
			return nil, err
		}
		dep, ok := variable.(DependentVariable)
		if !ok {
			return nil, confnode.Mismatch(at.Child(KeyVariable), "a dependent variable", nil)
		}
		limit, err := confnode.GetAs[float64](obj, KeyLimit)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		lower, err := confnode.OptAs(obj, false, KeyUseAsLowerLimit)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		return &VariableTermination{Variable: dep, Limit: limit, UseAsLowerLimit: lower}, nil

	case TerminationHybrid:
		raw, ok := obj.Get(KeyConditions)
		if !ok {
			return nil, &confnode.MissingKeyError{Path: at.Child(KeyConditions)}
		}
		list, err := confnode.AsList(raw, at.Child(KeyConditions))
		if err != nil {
			return nil, err
		}
		conditions := make([]TerminationSettings, 0, len(list))
		for i, elem := range list {
			child, err := decodeTermination(elem, at.Child(KeyConditions, indexKey(i)), depth+1)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, child)
		}
		any, err := confnode.OptAs(obj, true, KeyFulfillAny)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		return &HybridTermination{Conditions: conditions, FulfillAny: any}, nil
	}
	return nil, confnode.Mismatch(at, "a termination condition object", nil)
}

// encodeTermination emits the wire form of a condition.
func encodeTermination(c TerminationSettings) (confnode.Map, error) {
	switch cond := c.(type) {
	case *TimeTermination:
		return confnode.Map{
			KeyTerminationType: string(TerminationTime),
			KeyEpoch:           cond.Epoch,
		}, nil
	case *VariableTermination:
		out := confnode.Map{
			KeyTerminationType: string(TerminationVariable),
			KeyVariable:        encodeVariable(cond.Variable),
			KeyLimit:           cond.Limit,
		}
		if cond.UseAsLowerLimit {
			out[KeyUseAsLowerLimit] = true
		}
		return out, nil
	case *HybridTermination:
		children := make([]any, 0, len(cond.Conditions))
		for _, child := range cond.Conditions {
			enc, err := encodeTermination(child)
			if err != nil {
				return nil, err
			}
			children = append(children, map[string]any(enc))
		}
		return confnode.Map{
			KeyTerminationType: string(TerminationHybrid),
			KeyConditions:      children,
			KeyFulfillAny:      cond.FulfillAny,
		}, nil
	default:
		return nil, confnode.Mismatch(nil, "a known termination condition", nil)
	}
}
