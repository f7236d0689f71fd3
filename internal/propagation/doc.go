// Package propagation translates declarative configuration documents into
// strongly-typed propagation settings and back.
//
// A configuration's "propagators" block is a list of single-type propagator
// entries (translational, rotational, or mass); multi-type propagation is
// expressed by listing several entries, never by a nested "hybrid" entry.
// Decoding resolves missing initial states from the body/ephemeris store or
// from per-body configuration fields, composes the termination condition
// with the implicitly required time bound, and yields a MultiTypeSettings
// aggregate. Encoding runs the mirror path so that a decoded aggregate can
// be persisted or displayed again.
package propagation
