// Package fusion implements the event-correlation engine (§4.3): it
// absorbs incoming reports into a bounded set of live events, applies the
// anti-swarm slider, and emits notices for downstream dispatch.
package fusion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quakewatch/quakewatch/internal/metrics"
	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/scoring"
	"github.com/quakewatch/quakewatch/internal/slowdown"
)

const (
	maxLiveEvents  = 128
	maxAgeBacklog  = 12 * time.Hour
	defaultMagFloor = 2.5
	maxReportRadiusKm = 1000
)

// ErrRestartRequested signals the throughput guard has seen end-to-end
// delay exceed the fatal threshold; the caller should restart the process.
var ErrRestartRequested = errors.New("fusion: delay exceeded restart threshold")

// SeenStore is the TTL-keyed replay-suppression set reports are checked
// and recorded against (§5 "seen set").
type SeenStore interface {
	Seen(key string) bool
	Mark(key string)
}

// Config tunes the engine away from its documented defaults, primarily for
// tests.
type Config struct {
	MagFloor  float64
	StartedAt time.Time
	Travel    models.TravelTimeFunc
	Learner   *scoring.Learner
}

// Engine is the single-lock, bounded event history described in §4.3/§5.
type Engine struct {
	mu     sync.Mutex
	events []*models.Event

	seen     SeenStore
	slider   *Slider
	slowdown *slowdown.Factor
	magFloor float64
	startedAt time.Time
	travel   models.TravelTimeFunc
	learner  *scoring.Learner

	notices chan *models.Notice
}

// New builds an Engine. notices is the outbound channel the monitor
// consumes; it should be bounded per §5's backpressure defaults.
func New(seen SeenStore, sf *slowdown.Factor, notices chan *models.Notice, cfg Config) *Engine {
	magFloor := cfg.MagFloor
	if magFloor == 0 {
		magFloor = defaultMagFloor
	}
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	travel := cfg.Travel
	if travel == nil {
		travel = func(depthKm, distanceKm float64) float64 { return distanceKm / 4.0 }
	}
	return &Engine{
		seen:      seen,
		slider:    NewSlider(),
		slowdown:  sf,
		magFloor:  magFloor,
		startedAt: startedAt,
		travel:    travel,
		learner:   cfg.Learner,
		notices:   notices,
	}
}

func reportKey(r models.Report) string {
	c := r.Coords.Round()
	return r.Adapter + "|" + r.Time.UTC().Format(time.RFC3339) + "|" + c.String()
}

// passesGate implements §4.3 step 1.
func (e *Engine) passesGate(r models.Report, now time.Time) bool {
	if r.Time.Before(e.startedAt) {
		return false
	}
	if r.Time.Before(now.Add(-maxAgeBacklog)) {
		return false
	}
	if r.Mag.Value < e.magFloor {
		return false
	}
	if r.Coords.RadiusKm > maxReportRadiusKm {
		return false
	}
	if e.seen != nil && e.seen.Seen(reportKey(r)) {
		return false
	}
	return true
}

// Ingest runs one report through the age/stale gate, the anti-swarm
// adjustment, match-or-spawn, and emits a Notice on success. It returns
// (false, nil) when the report was silently dropped by the gate.
func (e *Engine) Ingest(r models.Report, now time.Time) (bool, error) {
	timer := prometheus.NewTimer(metrics.FusionIngestLatency)
	defer timer.ObserveDuration()

	if !e.passesGate(r, now) {
		return false, nil
	}
	if e.seen != nil {
		e.seen.Mark(reportKey(r))
	}

	if r.Confidence() < 0.4 {
		r.Score *= e.slider.Observe(now)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	event := e.findMatch(r)
	if event == nil {
		event = models.NewEvent(r)
		e.events = append(e.events, event)
		if len(e.events) > maxLiveEvents {
			e.events = e.events[len(e.events)-maxLiveEvents:]
		}
	} else {
		e.absorb(event, r, now)
	}

	e.maybeFeedback(event, now)

	notice := models.NewNotice(event, r.Adapter)
	select {
	case e.notices <- notice:
	default:
		slog.Warn("fusion: notice channel full, dropping", "event_id", event.ID)
	}
	return true, nil
}

// findMatch scans live events for the first whose representative report is
// equivalent to r, under e.mu.
func (e *Engine) findMatch(r models.Report) *models.Event {
	for _, ev := range e.events {
		if len(ev.Best) == 0 {
			continue
		}
		rep := ev.Best[0]
		shear := e.travel(rep.Coords.DepthKm(), rep.Coords.Sub(r.Coords))
		if rep.Equivalent(r, shear) {
			return ev
		}
	}
	return nil
}

// absorb applies the §4.3 step 3 merge rules to an already-matched event.
func (e *Engine) absorb(event *models.Event, r models.Report, now time.Time) {
	wasOfficial := event.Official()
	event.Merge(r, now)

	if wasOfficial || event.Official() {
		event.PruneTo(func(c models.Report) bool {
			return c.Confidence() > 0.2 || isWitnessOf(event, c)
		})
		event.Recompute(now)
		return
	}
	if len(event.Children) > 0 && event.Children[0].Score < 0 {
		event.Children = event.Children[1:]
		event.Recompute(now)
	}
}

// maybeFeedback folds event's outcome into the learner the first time it
// qualifies as matured (§9's online-learning loop), either by going
// official or by timing out with enough corroborating children.
func (e *Engine) maybeFeedback(event *models.Event, now time.Time) {
	if e.learner == nil || event.FedBack || !scoring.MaturedAt(event, now) {
		return
	}
	e.learner.Feedback(event, e.travel, triggeredFeatures)
	event.FedBack = true
}

// triggeredFeatures recovers the feature names a report was scored against
// from the Heuristics the scorer attached when it first accepted the
// report (only crowdsourced reports carry any).
func triggeredFeatures(r models.Report) []string {
	names := make([]string, 0, len(r.Heuristics))
	for _, h := range r.Heuristics {
		names = append(names, h.Description)
	}
	return names
}

func isWitnessOf(e *models.Event, r models.Report) bool {
	for _, w := range e.Witnesses() {
		if w.Adapter == r.Adapter && w.Time.Equal(r.Time) {
			return true
		}
	}
	return false
}

// ApplyThroughputGuard implements the §4.3 throughput guards given the
// end-to-end delay since a notice's timestamp. It mutates the shared
// slowdown factor and returns ErrRestartRequested once delay crosses the
// fatal threshold.
func (e *Engine) ApplyThroughputGuard(delay time.Duration) error {
	seconds := delay.Seconds()
	switch {
	case slowdown.ShouldRestart(seconds):
		return ErrRestartRequested
	case seconds > 60:
		slog.Warn("fusion: end-to-end delay exceeded 60s", "delay_seconds", seconds)
		e.slowdown.WarnDelay(seconds)
	case seconds < 10:
		e.slowdown.Decay()
	}
	metrics.SlowdownFactor.Set(e.slowdown.Load())
	return nil
}

// Run drains in from a channel until ctx is cancelled or in is closed
// (the sentinel-on-channel-close convention of §5), feeding every report
// through Ingest.
func (e *Engine) Run(ctx context.Context, in <-chan models.Report) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-in:
			if !ok {
				return
			}
			if _, err := e.Ingest(r, time.Now()); err != nil {
				slog.Error("fusion: ingest failed", "err", err)
			}
		}
	}
}

// Snapshot copies the current live-event list for read-only consumers
// (§5: "readers take the lock and copy").
func (e *Engine) Snapshot() []*models.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.Event, len(e.events))
	copy(out, e.events)
	return out
}
