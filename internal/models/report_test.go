package models

import (
	"testing"
	"time"
)

func baseReport(now time.Time) Report {
	return Report{
		Coords: Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.8},
		Time:   now.Add(-2 * time.Minute),
		Update: now.Add(-2 * time.Minute),
		Mag:    NewMagnitude(5.2, "Mw"),
		Status: ParseStatus("reported"),
		Score:  1.0,
	}
}

func TestReportValidateRejectsFuture(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	r.Time = now.Add(10 * time.Minute)
	if err := r.Validate(now); err == nil {
		t.Fatal("expected future report to be rejected")
	}
}

func TestReportValidateAcceptsPositiveAltitude(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	r.Coords.AltKm = 50 // positive altitude above surface => zero depth, not negative
	if err := r.Validate(now); err != nil {
		t.Fatalf("positive altitude should not be rejected: %v", err)
	}
}

func TestReportConfidenceClipped(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	r.Score = 0
	if got := r.Confidence(); got != 5e-5 {
		t.Fatalf("expected confidence floor 5e-5, got %v", got)
	}
	r.Score = 100
	if got := r.Confidence(); got != 1.0 {
		t.Fatalf("expected confidence ceiling 1.0, got %v", got)
	}
}

func TestReportEquivalentSelfReflexive(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	if !r.Equivalent(r, 30) {
		t.Fatal("expected self-equivalence")
	}
}

func TestReportEquivalentRejectsDistantMagnitude(t *testing.T) {
	now := time.Now()
	a := baseReport(now)
	b := baseReport(now)
	b.Mag = NewMagnitude(8.5, "Mw")
	if a.Equivalent(b, 30) {
		t.Fatal("expected equivalence to fail for |Δmag| > 2.5")
	}
}

func TestReportOfficialRequiresTightRadius(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	r.Coords.RadiusKm = 500
	if r.Official() {
		t.Fatal("expected official=false for wide radius")
	}
	r.Coords.RadiusKm = 50
	if !r.Official() {
		t.Fatal("expected official=true for reported status + tight radius")
	}
}

func TestReportCrowdsourcedRequiresTextAndScore(t *testing.T) {
	now := time.Now()
	r := baseReport(now)
	r.Status = ParseStatus("guessed")
	r.Text = "felt a quake!"
	r.Score = 0.3
	if !r.Crowdsourced() {
		t.Fatal("expected crowdsourced=true")
	}
	r.Text = ""
	if r.Crowdsourced() {
		t.Fatal("expected crowdsourced=false without text")
	}
}

func TestParseWaterFlag(t *testing.T) {
	if w := ParseWaterFlag("yes"); !w.Present {
		t.Fatal("expected yes to be treated as present")
	}
	if w := ParseWaterFlag("Pacific Ocean"); !w.Present || w.Name != "Pacific Ocean" {
		t.Fatalf("expected named body of water, got %+v", w)
	}
	if w := ParseWaterFlag(""); w.Present {
		t.Fatal("expected empty string to be absent")
	}
}
