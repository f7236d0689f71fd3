// Package confnode holds the generic configuration tree that propagation
// settings are decoded from and encoded back into.
//
// A tree is a Map of named fields whose leaves are strings, numbers,
// booleans, nested maps, or homogeneous lists -- exactly what yaml.v3 and
// encoding/json produce when unmarshalling into map[string]any. Fields are
// addressed by hierarchical key paths. Lookups distinguish "absent" from
// "present but malformed": the former is reported through the ok result or
// a MissingKeyError, the latter through a TypeMismatchError carrying the
// offending path.
package confnode

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Map is a configuration node: an object with named fields.
type Map map[string]any

// KeyPath addresses a field inside a nested configuration tree.
type KeyPath []string

// Path builds a key path from its elements.
func Path(elems ...string) KeyPath { return KeyPath(elems) }

// Child returns a new path extended with the given elements.
func (p KeyPath) Child(elems ...string) KeyPath {
	child := make(KeyPath, 0, len(p)+len(elems))
	child = append(child, p...)
	return append(child, elems...)
}

func (p KeyPath) String() string { return strings.Join(p, ".") }

// MissingKeyError reports a required field that is not present.
type MissingKeyError struct {
	Path KeyPath
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("confnode: missing key %q", e.Path.String())
}

// TypeMismatchError reports a field that is present but has the wrong shape.
type TypeMismatchError struct {
	Path KeyPath
	Want string
	Err  error
}

func (e *TypeMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("confnode: key %q is not %s: %v", e.Path.String(), e.Want, e.Err)
	}
	return fmt.Sprintf("confnode: key %q is not %s", e.Path.String(), e.Want)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// Mismatch builds a TypeMismatchError for the given path.
func Mismatch(at KeyPath, want string, err error) *TypeMismatchError {
	return &TypeMismatchError{Path: at, Want: want, Err: err}
}

// Get walks the path and returns the value found there. The second result
// is false when any intermediate or final key is absent.
func (m Map) Get(path ...string) (any, bool) {
	var cur any = map[string]any(m)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether the path resolves to a value.
func (m Map) Has(path ...string) bool {
	_, ok := m.Get(path...)
	return ok
}

// Set writes value at the path, creating intermediate objects as needed.
// Intermediate values that are not objects are replaced.
func (m Map) Set(value any, path ...string) {
	if len(path) == 0 {
		return
	}
	cur := map[string]any(m)
	for _, key := range path[:len(path)-1] {
		next, ok := asObject(cur[key])
		if !ok {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// asObject unifies the object shapes produced by the parsers and by Set.
func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Map:
		return map[string]any(obj), true
	default:
		return nil, false
	}
}

// AsMap converts a generic value to a Map, for descending into sub-objects.
func AsMap(v any, at KeyPath) (Map, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, Mismatch(at, "an object", nil)
	}
	return Map(obj), nil
}

// AsList converts a generic value to a list of elements.
func AsList(v any, at KeyPath) ([]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, Mismatch(at, "a list", nil)
	}
	return list, nil
}

// As converts a generic value into T. Scalars take the direct path; maps,
// slices and structs go through mapstructure so that config-sourced
// map[string]any trees decode into typed records. Shape mismatches are
// reported as TypeMismatchError with the given path.
func As[T any](v any, at KeyPath) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &out})
	if err != nil {
		return out, Mismatch(at, fmt.Sprintf("%T", out), err)
	}
	if err := dec.Decode(v); err != nil {
		return out, Mismatch(at, fmt.Sprintf("%T", out), err)
	}
	return out, nil
}

// GetAs reads a required field and converts it to T.
func GetAs[T any](m Map, path ...string) (T, error) {
	v, ok := m.Get(path...)
	if !ok {
		var zero T
		return zero, &MissingKeyError{Path: KeyPath(path)}
	}
	return As[T](v, KeyPath(path))
}

// OptAs reads an optional field, returning def when it is absent. A field
// that is present but malformed is still an error.
func OptAs[T any](m Map, def T, path ...string) (T, error) {
	v, ok := m.Get(path...)
	if !ok {
		return def, nil
	}
	return As[T](v, KeyPath(path))
}
