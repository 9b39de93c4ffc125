package models

import (
	"testing"
	"time"
)

func stubTravel(depthKm, distanceKm float64) float64 {
	return distanceKm / 4.0 // crude shear-wave speed stand-in for tests
}

func TestEventInvariantsAfterMerge(t *testing.T) {
	now := time.Now()
	seed := baseReport(now)
	seed.Sources = []string{"JMA"}
	e := NewEvent(seed)

	second := baseReport(now)
	second.Mag = NewMagnitude(5.5, "Mw")
	second.Status = ParseStatus("revised")
	second.Sources = []string{"USGS"}
	e.Merge(second, now)

	if len(e.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(e.Children))
	}
	if len(e.Best) < 1 {
		t.Fatal("expected at least one best child")
	}
	if len(e.Best) > len(e.Children) {
		t.Fatal("best must not exceed children")
	}
	if e.Time.After(now) {
		t.Fatal("event time must not be in the future")
	}
}

func TestEventBoundedChildren(t *testing.T) {
	now := time.Now()
	seed := baseReport(now)
	seed.Score = 0.01 // low confidence so it gets evicted first
	e := NewEvent(seed)

	for i := 0; i < MaxEventChildren+10; i++ {
		r := baseReport(now)
		r.Score = 1.0
		e.Merge(r, now)
	}

	if len(e.Children) > MaxEventChildren {
		t.Fatalf("expected children bounded to %d, got %d", MaxEventChildren, len(e.Children))
	}
}

func TestEventConfidenceBoundedByBestCount(t *testing.T) {
	now := time.Now()
	seed := baseReport(now)
	e := NewEvent(seed)
	second := baseReport(now)
	e.Merge(second, now)

	if e.Confidence() > float64(len(e.Best)) {
		t.Fatalf("confidence %v exceeds |best| %d", e.Confidence(), len(e.Best))
	}
}

func TestEventWitnessesAndWarners(t *testing.T) {
	now := time.Now()
	seed := baseReport(now)
	e := NewEvent(seed)

	crowd := baseReport(now)
	crowd.Status = ParseStatus("guessed")
	crowd.Text = "earthquake felt here"
	crowd.Score = 0.3
	crowd.Update = e.Time.Add(1 * time.Second)
	e.Merge(crowd, now)

	witnesses := e.Witnesses()
	if len(witnesses) == 0 {
		t.Fatal("expected at least one witness")
	}

	warners := e.Warners(stubTravel)
	if len(warners) == 0 {
		t.Fatal("expected the fast-arriving crowdsourced report to count as a warner")
	}
}

func TestEventKeywordsFrequencySorted(t *testing.T) {
	now := time.Now()
	seed := baseReport(now)
	seed.Keywords = []string{"quake", "shaking"}
	e := NewEvent(seed)

	second := baseReport(now)
	second.Keywords = []string{"quake"}
	e.Merge(second, now)

	if len(e.Keywords) == 0 || e.Keywords[0] != "quake" {
		t.Fatalf("expected 'quake' to sort first by frequency, got %v", e.Keywords)
	}
}
