package monitor

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/domainmatch"
	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/sink"
)

type noopGuard struct{}

func (noopGuard) ApplyThroughputGuard(time.Duration) error { return nil }

func stubTravel(depthKm, distanceKm float64) float64 { return distanceKm / 4.0 }

func sampleNotice(now time.Time) *models.Notice {
	r := models.Report{
		Coords: models.Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.9},
		Time:   now,
		Update: now,
		Mag:    models.NewMagnitude(6.0, "Mw"),
		Status: models.ParseStatus("reported"),
		Score:  1.0,
	}
	return models.NewNotice(models.NewEvent(r), "test")
}

func TestProcessDispatchesToMatchingSubscriber(t *testing.T) {
	m := New(noopGuard{}, stubTravel, domainmatch.Options{})
	debug := sink.NewDebug()
	m.AddSubscriber(Subscriber{Domain: &models.Domain{Name: "everyone"}, Sink: debug})

	m.Process(sampleNotice(time.Now()), time.Now())

	if len(debug.Sent) == 0 {
		t.Fatal("expected at least one dispatched message")
	}
}

func TestProcessSkipsNonMatchingDomain(t *testing.T) {
	m := New(noopGuard{}, stubTravel, domainmatch.Options{})
	debug := sink.NewDebug()
	floor := 9.0
	m.AddSubscriber(Subscriber{Domain: &models.Domain{Name: "big-only", MagFloor: &floor}, Sink: debug})

	m.Process(sampleNotice(time.Now()), time.Now())

	if len(debug.Sent) != 0 {
		t.Fatalf("expected no dispatch for a mag_floor mismatch, got %d", len(debug.Sent))
	}
}

func TestProcessNotifiesThresholdObserverOnDispatch(t *testing.T) {
	m := New(noopGuard{}, stubTravel, domainmatch.Options{})

	var gotScope string
	var gotHour int
	var gotScore float64
	m.SetThresholdObserver(func(scope string, hour int, score float64) {
		gotScope, gotHour, gotScore = scope, hour, score
	})

	m.AddSubscriber(Subscriber{
		Domain: &models.Domain{Name: "everyone", Threshold: &models.ThresholdKey{Scope: "domain:everyone"}},
		Sink:   sink.NewDebug(),
	})

	now := time.Now()
	m.Process(sampleNotice(now), now)

	if gotScope != "domain:everyone" {
		t.Fatalf("expected observer to receive scope %q, got %q", "domain:everyone", gotScope)
	}
	if gotHour != now.Hour() {
		t.Fatalf("expected observer to receive hour %d, got %d", now.Hour(), gotHour)
	}
	if gotScore <= 0 {
		t.Fatalf("expected a positive confidence score, got %v", gotScore)
	}
}
