package models

import "testing"

func TestCoordsEqualTolerant(t *testing.T) {
	a := Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.5}
	b := Coords{Lat: 35.6005, Lon: 139.7005, AltKm: -10.005, RadiusKm: 50.04, Confidence: 0.9}
	if !a.Equal(b) {
		t.Fatalf("expected tolerant equality, got false: %+v vs %+v", a, b)
	}

	c := Coords{Lat: 36.0, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.5}
	if a.Equal(c) {
		t.Fatalf("expected inequality for 0.4 degree latitude gap")
	}
}

func TestCoordsRoundCollapsesDuplicates(t *testing.T) {
	a := Coords{Lat: 35.60001, Lon: 139.70002, AltKm: -10.001, RadiusKm: 50.01, Confidence: 0.51}
	b := Coords{Lat: 35.60004, Lon: 139.70001, AltKm: -10.002, RadiusKm: 50.02, Confidence: 0.74}
	if a.Round() != b.Round() {
		t.Fatalf("expected rounded coords to collapse to the same key: %+v vs %+v", a.Round(), b.Round())
	}
}

func TestCoordsSubSymmetricDistance(t *testing.T) {
	a := Coords{Lat: 35.6, Lon: 139.7}
	b := Coords{Lat: 34.6, Lon: 138.7}
	if got, want := a.Sub(b), b.Sub(a); got != want {
		t.Fatalf("Sub should be symmetric when radii match: %v vs %v", got, want)
	}
}

func TestDepthKmDefaultsTo10(t *testing.T) {
	c := Coords{}
	if got := c.DepthKm(); got != 10 {
		t.Fatalf("expected default depth 10km, got %v", got)
	}
	c2 := Coords{AltKm: -25}
	if got := c2.DepthKm(); got != 25 {
		t.Fatalf("expected depth 25km for alt -25, got %v", got)
	}
}
