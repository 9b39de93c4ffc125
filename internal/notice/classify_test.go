package notice

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

func stubTravel(depthKm, distanceKm float64) float64 { return distanceKm / 4.0 }

func freshReport(now time.Time) models.Report {
	return models.Report{
		Coords: models.Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.8},
		Time:   now,
		Update: now,
		Mag:    models.NewMagnitude(6.0, "Mw"),
		Status: models.ParseStatus("reported"),
		Score:  1.0,
		Adapter: "test",
	}
}

func TestClassifyWarningWithinThreeMinutes(t *testing.T) {
	now := time.Now()
	e := models.NewEvent(freshReport(now))
	n := models.NewNotice(e, "test")
	Classify(n, now.Add(1*time.Minute), stubTravel, nil)
	if n.Timely != models.TimelyWarning {
		t.Fatalf("expected warning tier, got %q", n.Timely)
	}
}

func TestClassifyDropsAfterAllWindowsElapse(t *testing.T) {
	now := time.Now()
	e := models.NewEvent(freshReport(now))
	n := models.NewNotice(e, "test")
	Classify(n, now.Add(48*time.Hour), stubTravel, nil)
	if n.Timely != models.TimelyNone {
		t.Fatalf("expected no timely tier long after the event, got %q", n.Timely)
	}
}

func TestSupersedesRequiresEquivalence(t *testing.T) {
	now := time.Now()
	e1 := models.NewEvent(freshReport(now))
	n1 := models.NewNotice(e1, "test")
	Classify(n1, now, stubTravel, nil)

	distant := freshReport(now)
	distant.Coords.Lat = -10
	distant.Coords.Lon = -40
	e2 := models.NewEvent(distant)
	n2 := models.NewNotice(e2, "test")
	Classify(n2, now, stubTravel, nil)

	th := NewThrottle()
	reason := Supersedes(n2, n1, "sub1", "tag1", th, now, 30)
	if reason != ReasonNone {
		t.Fatalf("expected no supersede across unrelated epicenters, got %q", reason)
	}
}

func TestSupersedesInitialWhenNoPrior(t *testing.T) {
	now := time.Now()
	e := models.NewEvent(freshReport(now))
	n := models.NewNotice(e, "test")
	th := NewThrottle()
	if got := Supersedes(n, nil, "sub1", "tag1", th, now, 30); got != ReasonInitial {
		t.Fatalf("expected ReasonInitial, got %q", got)
	}
}
