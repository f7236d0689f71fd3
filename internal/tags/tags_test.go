package tags

import (
	"errors"
	"testing"
)

type kind string

const (
	kindA kind = "a"
	kindB kind = "b"
	kindC kind = "c"
)

func testTable() Table[kind] {
	return New("kind", []Entry[kind]{
		{kindA, "alpha"},
		{kindB, "beta"},
		{kindC, "gamma"},
	}).WithUnsupported(kindC)
}

func TestDecode(t *testing.T) {
	tab := testTable()

	got, err := tab.Decode("beta")
	if err != nil || got != kindB {
		t.Errorf("expected kindB, got %v (err=%v)", got, err)
	}
}

func TestDecodeUnknown(t *testing.T) {
	tab := testTable()

	_, err := tab.Decode("delta")
	var unknown *UnknownTagError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTagError, got %v", err)
	}
	if unknown.Text != "delta" {
		t.Errorf("expected offending text in error, got %q", unknown.Text)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	tab := testTable()

	_, err := tab.Decode("gamma")
	var unsupported *UnsupportedTagError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedTagError, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	tab := testTable()

	text, err := tab.Encode(kindA)
	if err != nil || text != "alpha" {
		t.Errorf("expected alpha, got %q (err=%v)", text, err)
	}

	if _, err := tab.Encode(kindC); err == nil {
		t.Error("encoding an unsupported tag should fail")
	}
	if _, err := tab.Encode(kind("nope")); err == nil {
		t.Error("encoding an unmapped tag should fail")
	}
}

func TestTexts(t *testing.T) {
	tab := testTable()
	texts := tab.Texts()
	if len(texts) != 2 || texts[0] != "alpha" || texts[1] != "beta" {
		t.Errorf("unexpected supported texts: %v", texts)
	}
}
