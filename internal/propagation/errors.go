package propagation

import (
	"errors"
	"fmt"

	"github.com/avrek/propsim/internal/confnode"
)

// ErrMissingTermination is returned when neither a user termination
// condition nor a final epoch is available.
var ErrMissingTermination = errors.New("propagation: no termination condition and no final epoch given")

// UnsupportedVariantError reports a propagator entry whose state type cannot
// be decoded or encoded at this level. A multi-type propagation is expressed
// as a list of single-type entries, never as one entry tagged hybrid.
type UnsupportedVariantError struct {
	Tag StateType
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("propagation: unsupported state type %q in a single propagator entry", e.Tag)
}

// UnresolvableInitialStateError reports that an initial state could not be
// assembled for a body: the per-body configuration field is absent and the
// ephemeris could not provide the state either.
type UnresolvableInitialStateError struct {
	Body string
	Path confnode.KeyPath
	Err  error
}

func (e *UnresolvableInitialStateError) Error() string {
	msg := fmt.Sprintf("propagation: cannot resolve initial state of body %q (no %q field)", e.Body, e.Path.String())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvableInitialStateError) Unwrap() error { return e.Err }
