package propagation

import (
	"math"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/ephemeris"
)

// MultiTypeSettings is the aggregate of a full propagation setup: the flat,
// input-ordered list of single-type propagator settings, the composed
// termination condition (never nil after a successful decode), the
// diagnostics print interval (NaN means no periodic diagnostics), and the
// optional dependent-variable save list.
type MultiTypeSettings struct {
	Propagators   []SingleArcSettings
	Termination   TerminationSettings
	PrintInterval float64
	SaveVariables []DependentVariable
}

// ApplyExports replaces the save list with the merged, duplicate-free
// dependent-variable requests of the given export specs.
func (m *MultiTypeSettings) ApplyExports(specs []ExportSettings) {
	m.SaveVariables = DedupDependentVariables(specs)
}

// Decode converts the configuration tree into aggregate settings: initial
// states are resolved first, every propagator entry decodes to exactly one
// settings record in input order, and the termination condition is composed
// from the user condition and the final epoch.
func (d *Decoder) Decode(root confnode.Map) (*MultiTypeSettings, error) {
	if err := d.ResolveInitialStates(root); err != nil {
		return nil, err
	}

	entries, err := propagatorEntries(root)
	if err != nil {
		return nil, err
	}
	propagators := make([]SingleArcSettings, 0, len(entries))
	for i, entry := range entries {
		arc, err := decodeSingleArc(entry, confnode.Path(KeyPropagators, indexKey(i)))
		if err != nil {
			return nil, err
		}
		propagators = append(propagators, arc)
	}

	var user TerminationSettings
	if raw, ok := root.Get(KeyTermination); ok {
		user, err = decodeTermination(raw, confnode.Path(KeyTermination), 0)
		if err != nil {
			return nil, err
		}
	}
	var finalEpoch *float64
	if raw, ok := root.Get(KeyFinalEpoch); ok {
		epoch, err := confnode.As[float64](raw, confnode.Path(KeyFinalEpoch))
		if err != nil {
			return nil, err
		}
		finalEpoch = &epoch
	}
	termination, err := ComposeTermination(user, finalEpoch)
	if err != nil {
		return nil, err
	}

	printInterval, err := confnode.OptAs(root, math.NaN(), KeyOptions, KeyPrintInterval)
	if err != nil {
		return nil, err
	}

	return &MultiTypeSettings{
		Propagators:   propagators,
		Termination:   termination,
		PrintInterval: printInterval,
	}, nil
}

// DecodeSettings is the convenience form of Decoder.Decode.
func DecodeSettings(root confnode.Map, store ephemeris.Store, referenceEpoch float64) (*MultiTypeSettings, error) {
	return NewDecoder(store, referenceEpoch).Decode(root)
}

// EncodeSettings decomposes aggregate settings back into a configuration
// tree: the flattened propagator list, the termination condition, and the
// print interval when one is set.
func EncodeSettings(m *MultiTypeSettings) (confnode.Map, error) {
	entries := make([]any, 0, len(m.Propagators))
	for _, arc := range m.Propagators {
		enc, err := encodeSingleArc(arc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, map[string]any(enc))
	}
	out := confnode.Map{KeyPropagators: entries}

	if m.Termination != nil {
		term, err := encodeTermination(m.Termination)
		if err != nil {
			return nil, err
		}
		out[KeyTermination] = map[string]any(term)
	}
	if !math.IsNaN(m.PrintInterval) {
		out.Set(m.PrintInterval, KeyOptions, KeyPrintInterval)
	}
	return out, nil
}
