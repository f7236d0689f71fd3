// Package tags maps closed sets of variant tags to their textual
// representation and back. Tables are built once at start-up and shared;
// they are immutable after construction.
//
// Two failure modes are kept apart on purpose: an UnknownTagError means the
// text matches nothing in the table (a typo in the configuration), while an
// UnsupportedTagError means the tag exists but is deliberately rejected by
// this layer (not implemented here). Diagnostics treat them differently.
package tags

import (
	"fmt"
	"sort"
	"strings"
)

// Entry pairs a tag with its textual representation.
type Entry[T comparable] struct {
	Tag  T
	Text string
}

// Table is a bidirectional tag/text mapping with an optional set of
// tags that are textually known but rejected.
type Table[T comparable] struct {
	name        string
	text        map[T]string
	tag         map[string]T
	unsupported map[T]struct{}
}

// New builds a table named name from its entries.
func New[T comparable](name string, entries []Entry[T]) Table[T] {
	t := Table[T]{
		name:        name,
		text:        make(map[T]string, len(entries)),
		tag:         make(map[string]T, len(entries)),
		unsupported: map[T]struct{}{},
	}
	for _, e := range entries {
		t.text[e.Tag] = e.Text
		t.tag[e.Text] = e.Tag
	}
	return t
}

// WithUnsupported returns a copy of the table that rejects the given tags
// on both Decode and Encode.
func (t Table[T]) WithUnsupported(rejected ...T) Table[T] {
	u := make(map[T]struct{}, len(rejected))
	for _, tag := range rejected {
		u[tag] = struct{}{}
	}
	t.unsupported = u
	return t
}

// Decode resolves text to its tag.
func (t Table[T]) Decode(text string) (T, error) {
	tag, ok := t.tag[text]
	if !ok {
		var zero T
		return zero, &UnknownTagError{Table: t.name, Text: text, Known: t.Texts()}
	}
	if _, rejected := t.unsupported[tag]; rejected {
		var zero T
		return zero, &UnsupportedTagError{Table: t.name, Text: text}
	}
	return tag, nil
}

// Encode resolves a tag to its text. It is defined for every supported tag
// in the mapping.
func (t Table[T]) Encode(tag T) (string, error) {
	text, ok := t.text[tag]
	if !ok {
		return "", &UnknownTagError{Table: t.name, Text: fmt.Sprintf("%v", tag), Known: t.Texts()}
	}
	if _, rejected := t.unsupported[tag]; rejected {
		return "", &UnsupportedTagError{Table: t.name, Text: text}
	}
	return text, nil
}

// Supported reports whether the tag is in the mapping and not rejected.
func (t Table[T]) Supported(tag T) bool {
	if _, ok := t.text[tag]; !ok {
		return false
	}
	_, rejected := t.unsupported[tag]
	return !rejected
}

// Texts lists the supported textual representations, sorted.
func (t Table[T]) Texts() []string {
	out := make([]string, 0, len(t.tag))
	for text, tag := range t.tag {
		if _, rejected := t.unsupported[tag]; rejected {
			continue
		}
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}

// UnknownTagError reports text that matches no entry in a table.
type UnknownTagError struct {
	Table string
	Text  string
	Known []string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("tags: unknown %s %q (known: %s)", e.Table, e.Text, strings.Join(e.Known, ", "))
}

// UnsupportedTagError reports a tag that exists but is rejected here.
type UnsupportedTagError struct {
	Table string
	Text  string
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("tags: %s %q is not supported", e.Table, e.Text)
}
