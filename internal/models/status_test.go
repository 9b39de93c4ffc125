package models

import "testing"

func TestStatusOrdering(t *testing.T) {
	if !(ParseStatus("manual").Compare(ParseStatus("preliminary")) > 0) {
		t.Fatal("expected manual > preliminary")
	}
	if !(ParseStatus("preliminary").Compare(ParseStatus("detection")) > 0) {
		t.Fatal("expected preliminary > detection")
	}
	if !(ParseStatus("detection").Compare(ParseStatus("guessed")) > 0) {
		t.Fatal("expected detection > guessed")
	}
}

func TestStatusUnknownLabel(t *testing.T) {
	s := ParseStatus("some-nonsense-label")
	if s != StatusUnknown {
		t.Fatalf("expected unknown status fallback, got %+v", s)
	}
}

func TestMagnitudeBogusClamp(t *testing.T) {
	m := NewMagnitude(9.9, "Mw")
	if m.Value != 3.0 {
		t.Fatalf("expected bogus magnitude reset to 3.0, got %v", m.Value)
	}
	ok := NewMagnitude(6.1, "Mw")
	if ok.Value != 6.1 {
		t.Fatalf("expected normal magnitude preserved, got %v", ok.Value)
	}
}
