package propagation

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/logging"
)

// Decoder turns configuration trees into propagation settings. Store serves
// ephemeris lookups during initial-state resolution; ReferenceEpoch is the
// epoch those lookups use (NaN lets the decoder fall back to the nearest
// fixed epoch of the termination information already present in the
// configuration).
type Decoder struct {
	Store          ephemeris.Store
	ReferenceEpoch float64
	Log            *slog.Logger
}

// NewDecoder builds a decoder around a body store.
func NewDecoder(store ephemeris.Store, referenceEpoch float64) *Decoder {
	return &Decoder{Store: store, ReferenceEpoch: referenceEpoch}
}

func (d *Decoder) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logging.NewNop()
}

// propagatorEntries returns the propagator list as objects. The returned
// maps share storage with the tree, so writes through them update root.
func propagatorEntries(root confnode.Map) ([]confnode.Map, error) {
	raw, ok := root.Get(KeyPropagators)
	if !ok {
		return nil, &confnode.MissingKeyError{Path: confnode.Path(KeyPropagators)}
	}
	at := confnode.Path(KeyPropagators)
	list, err := confnode.AsList(raw, at)
	if err != nil {
		return nil, err
	}
	entries := make([]confnode.Map, 0, len(list))
	for i, elem := range list {
		obj, err := confnode.AsMap(elem, at.Child(indexKey(i)))
		if err != nil {
			return nil, err
		}
		entries = append(entries, obj)
	}
	return entries, nil
}

// resolveEpoch picks the epoch for ephemeris lookups: the decoder's
// reference epoch when given, otherwise the nearest fixed epoch of whatever
// termination information the configuration already carries.
func (d *Decoder) resolveEpoch(root confnode.Map) float64 {
	if !math.IsNaN(d.ReferenceEpoch) {
		return d.ReferenceEpoch
	}
	var user TerminationSettings
	if raw, ok := root.Get(KeyTermination); ok {
		if cond, err := decodeTermination(raw, confnode.Path(KeyTermination), 0); err == nil {
			user = cond
		}
	}
	var finalEpoch *float64
	if raw, ok := root.Get(KeyFinalEpoch); ok {
		if epoch, err := confnode.As[float64](raw, confnode.Path(KeyFinalEpoch)); err == nil {
			finalEpoch = &epoch
		}
	}
	cond, err := ComposeTermination(user, finalEpoch)
	if err != nil {
		return math.NaN()
	}
	return NearestFixedEpoch(cond)
}

// ResolveInitialStates fills the initialStates field of every propagator
// entry that lacks one, writing the assembled vectors back into the tree.
// Explicit user values are never overwritten.
//
// With exactly one translational entry, a single combined ephemeris query
// for all propagated bodies is attempted first; any failure there demotes
// silently to the per-body path. The per-body path runs a single
// left-to-right pass and does not retry.
func (d *Decoder) ResolveInitialStates(root confnode.Map) error {
	entries, err := propagatorEntries(root)
	if err != nil {
		return err
	}
	epoch := d.resolveEpoch(root)

	if len(entries) == 1 && !entries[0].Has(KeyInitialStates) {
		at := confnode.Path(KeyPropagators, indexKey(0))
		if stateType, err := entryStateType(entries[0], at); err == nil && stateType == StateTranslational {
			if d.fastPath(entries[0], epoch) {
				return nil
			}
		}
	}

	for i, entry := range entries {
		if entry.Has(KeyInitialStates) {
			continue
		}
		at := confnode.Path(KeyPropagators, indexKey(i))
		if err := d.resolveEntry(root, entry, at, epoch); err != nil {
			return err
		}
	}
	return nil
}

// fastPath tries the one-shot combined ephemeris query. It reports success;
// every failure mode falls through to the per-body path, since ephemeris
// availability is advisory here.
func (d *Decoder) fastPath(entry confnode.Map, epoch float64) bool {
	bodies, err := confnode.GetAs[[]string](entry, KeyBodiesToPropagate)
	if err != nil {
		return false
	}
	centrals, err := confnode.GetAs[[]string](entry, KeyCentralBodies)
	if err != nil || len(centrals) != len(bodies) {
		return false
	}
	combined, err := d.Store.States(bodies, centrals, epoch)
	if err != nil || len(combined) != ephemeris.StateSize*len(bodies) {
		d.log().Debug("combined ephemeris lookup failed, using per-body state fields",
			"bodies", bodies, "epoch", epoch, "err", err)
		return false
	}
	entry.Set(combined, KeyInitialStates)
	return true
}

// resolveEntry assembles one entry's initial-state vector from per-body
// configuration fields, concatenating per-body blocks in
// bodiesToPropagate order.
func (d *Decoder) resolveEntry(root, entry confnode.Map, at confnode.KeyPath, epoch float64) error {
	stateType, err := entryStateType(entry, at)
	if err != nil {
		return err
	}
	bodies, err := confnode.GetAs[[]string](entry, KeyBodiesToPropagate)
	if err != nil {
		return prefixPath(err, at)
	}

	var centrals []string
	if stateType == StateTranslational {
		centrals, err = confnode.GetAs[[]string](entry, KeyCentralBodies)
		if err != nil {
			return prefixPath(err, at)
		}
		if len(centrals) != len(bodies) {
			return confnode.Mismatch(at.Child(KeyCentralBodies),
				fmt.Sprintf("a list of %d central bodies, one per propagated body", len(bodies)), nil)
		}
	}

	initial := make([]float64, 0, stateType.BlockSize()*len(bodies))
	for i, body := range bodies {
		var segment []float64
		switch stateType {
		case StateTranslational:
			segment, err = d.translationalSegment(root, body, centrals[i], epoch)
		case StateMass:
			segment, err = massSegment(root, body)
		case StateRotational:
			segment, err = rotationalSegment(root, body)
		default:
			return &UnsupportedVariantError{Tag: stateType}
		}
		if err != nil {
			return err
		}
		initial = append(initial, segment...)
	}
	entry.Set(initial, KeyInitialStates)
	return nil
}

// translationalSegment produces one body's central-body-relative state.
// A plain 6-vector field is taken as already relative to the central body;
// the object form {relativeTo, state} is shifted into the central frame via
// an ephemeris lookup of the reference body. When the field is absent the
// state comes from the ephemeris directly.
func (d *Decoder) translationalSegment(root confnode.Map, body, central string, epoch float64) ([]float64, error) {
	statePath := confnode.Path(KeyBodies, body, KeyBodyInitialState)
	raw, ok := root.Get(statePath...)
	if !ok {
		state, err := d.Store.State(body, central, epoch)
		if err != nil {
			return nil, &UnresolvableInitialStateError{Body: body, Path: statePath, Err: err}
		}
		return state, nil
	}

	if obj, err := confnode.AsMap(raw, statePath); err == nil {
		vec, err := confnode.GetAs[[]float64](obj, KeyBodyState)
		if err != nil {
			return nil, prefixPath(err, statePath)
		}
		if len(vec) != ephemeris.StateSize {
			return nil, confnode.Mismatch(statePath.Child(KeyBodyState), "a 6-element state vector", nil)
		}
		relativeTo, err := confnode.OptAs(obj, "", KeyBodyRelativeTo)
		if err != nil {
			return nil, prefixPath(err, statePath)
		}
		if relativeTo != "" && relativeTo != central {
			shift, err := d.Store.State(relativeTo, central, epoch)
			if err != nil {
				return nil, &UnresolvableInitialStateError{Body: body, Path: statePath, Err: err}
			}
			shifted := make([]float64, ephemeris.StateSize)
			for i := range shifted {
				shifted[i] = vec[i] + shift[i]
			}
			return shifted, nil
		}
		return vec, nil
	}

	vec, err := confnode.As[[]float64](raw, statePath)
	if err != nil {
		return nil, err
	}
	if len(vec) != ephemeris.StateSize {
		return nil, confnode.Mismatch(statePath, "a 6-element state vector", nil)
	}
	return vec, nil
}

func massSegment(root confnode.Map, body string) ([]float64, error) {
	massPath := confnode.Path(KeyBodies, body, KeyBodyMass)
	raw, ok := root.Get(massPath...)
	if !ok {
		return nil, &UnresolvableInitialStateError{
			Body: body, Path: massPath,
			Err: fmt.Errorf("the ephemeris cannot supply mass states"),
		}
	}
	mass, err := confnode.As[float64](raw, massPath)
	if err != nil {
		return nil, err
	}
	return []float64{mass}, nil
}

func rotationalSegment(root confnode.Map, body string) ([]float64, error) {
	statePath := confnode.Path(KeyBodies, body, KeyBodyRotationalState)
	raw, ok := root.Get(statePath...)
	if !ok {
		return nil, &UnresolvableInitialStateError{
			Body: body, Path: statePath,
			Err: fmt.Errorf("the ephemeris cannot supply rotational states"),
		}
	}
	vec, err := confnode.As[[]float64](raw, statePath)
	if err != nil {
		return nil, err
	}
	if want := StateRotational.BlockSize(); len(vec) != want {
		return nil, confnode.Mismatch(statePath, fmt.Sprintf("a %d-element rotational state", want), nil)
	}
	return vec, nil
}
