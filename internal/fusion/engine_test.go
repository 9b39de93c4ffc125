package fusion

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/slowdown"
)

type memSeen struct{ seen map[string]bool }

func newMemSeen() *memSeen { return &memSeen{seen: make(map[string]bool)} }
func (m *memSeen) Seen(key string) bool {
	return m.seen[key]
}
func (m *memSeen) Mark(key string) { m.seen[key] = true }

func baseReport(now time.Time) models.Report {
	return models.Report{
		Coords: models.Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.8},
		Time:   now.Add(-1 * time.Minute),
		Update: now.Add(-1 * time.Minute),
		Mag:    models.NewMagnitude(5.2, "Mw"),
		Status: models.ParseStatus("reported"),
		Score:  1.0,
		Adapter: "test",
	}
}

func newTestEngine(notices chan *models.Notice) *Engine {
	started := time.Now().Add(-1 * time.Hour)
	return New(newMemSeen(), slowdown.New(), notices, Config{StartedAt: started})
}

func TestIngestSpawnsNewEvent(t *testing.T) {
	now := time.Now()
	notices := make(chan *models.Notice, 4)
	e := newTestEngine(notices)

	ok, err := e.Ingest(baseReport(now), now)
	if err != nil || !ok {
		t.Fatalf("expected ingest to succeed, got ok=%v err=%v", ok, err)
	}
	if len(e.Snapshot()) != 1 {
		t.Fatalf("expected 1 live event, got %d", len(e.Snapshot()))
	}
	select {
	case n := <-notices:
		if n.Provider != "test" {
			t.Fatalf("expected provider 'test', got %q", n.Provider)
		}
	default:
		t.Fatal("expected a notice to be emitted")
	}
}

func TestIngestMergesEquivalentReport(t *testing.T) {
	now := time.Now()
	notices := make(chan *models.Notice, 4)
	e := newTestEngine(notices)

	r1 := baseReport(now)
	e.Ingest(r1, now)

	r2 := baseReport(now)
	r2.Adapter = "other"
	r2.Mag = models.NewMagnitude(5.3, "Mw")
	e.Ingest(r2, now)

	snap := e.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected the second report to merge into 1 event, got %d events", len(snap))
	}
	if len(snap[0].Children) != 2 {
		t.Fatalf("expected 2 children after merge, got %d", len(snap[0].Children))
	}
}

func TestIngestGateRejectsLowMagnitude(t *testing.T) {
	now := time.Now()
	notices := make(chan *models.Notice, 4)
	e := newTestEngine(notices)

	r := baseReport(now)
	r.Mag = models.NewMagnitude(1.0, "Mw")
	ok, err := e.Ingest(r, now)
	if err != nil || ok {
		t.Fatalf("expected silent drop for sub-floor magnitude, got ok=%v err=%v", ok, err)
	}
}

func TestIngestGateRejectsSeenReplay(t *testing.T) {
	now := time.Now()
	notices := make(chan *models.Notice, 4)
	e := newTestEngine(notices)

	r := baseReport(now)
	e.Ingest(r, now)
	ok, _ := e.Ingest(r, now)
	if ok {
		t.Fatal("expected replay suppression on exact re-ingest")
	}
}

func TestThroughputGuardRequestsRestartPastDeadline(t *testing.T) {
	notices := make(chan *models.Notice, 1)
	e := newTestEngine(notices)
	if err := e.ApplyThroughputGuard(65 * time.Second); err != ErrRestartRequested {
		t.Fatalf("expected restart error, got %v", err)
	}
}
