// Package monitor consumes fused notices, meters dispatch latency,
// enforces per-region single-writer locking, and renders/dispatches the
// subscriber message sequence (§4.7).
package monitor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/quakewatch/quakewatch/internal/domainmatch"
	"github.com/quakewatch/quakewatch/internal/metrics"
	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/notice"
	"github.com/quakewatch/quakewatch/internal/sink"
)

// LatencyGuard is the subset of the fusion engine the monitor needs to
// feed end-to-end delay back into the throughput guard.
type LatencyGuard interface {
	ApplyThroughputGuard(delay time.Duration) error
}

// RegionLocks is a fixed map of region name to single-writer lock (§4.7
// step 2), created lazily per region.
type RegionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRegionLocks() *RegionLocks {
	return &RegionLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *RegionLocks) get(region string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.locks[region]
	if !ok {
		m = &sync.Mutex{}
		r.locks[region] = m
	}
	return m
}

// TryLock attempts a non-blocking acquire, used for low-quality notices
// that should be dropped rather than wait.
func (r *RegionLocks) TryLock(region string) (unlock func(), ok bool) {
	m := r.get(region)
	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}

// Lock blocks until the region's writer lock is free, used for notices
// good enough to be worth the wait.
func (r *RegionLocks) Lock(region string) (unlock func()) {
	m := r.get(region)
	m.Lock()
	return m.Unlock
}

// Subscriber pairs a Domain subscription predicate with the Sink it
// dispatches to; it carries no language preference.
type Subscriber struct {
	Domain *models.Domain
	Sink   sink.Sink
}

// ThresholdObserver folds an accepted dispatch's confidence into a scope's
// hourly baseline, mirroring the read side wired through
// domainmatch.Options.Thresholds.
type ThresholdObserver func(scope string, hour int, score float64)

// Monitor is the notice-consuming half of §4.7.
type Monitor struct {
	guard       LatencyGuard
	regionLocks *RegionLocks
	throttle    *notice.Throttle
	travel      models.TravelTimeFunc
	tsunami     notice.TsunamiLookup
	subscribers []Subscriber
	matchOpts   domainmatch.Options
	observe     ThresholdObserver
}

func New(guard LatencyGuard, travel models.TravelTimeFunc, opts domainmatch.Options) *Monitor {
	if opts.Travel == nil {
		opts.Travel = travel
	}
	return &Monitor{
		guard:       guard,
		regionLocks: NewRegionLocks(),
		throttle:    notice.NewThrottle(),
		travel:      travel,
		matchOpts:   opts,
	}
}

func (m *Monitor) AddSubscriber(s Subscriber) {
	m.subscribers = append(m.subscribers, s)
}

// SetThresholdObserver wires a sink for successful dispatches to a
// Domain carrying a ThresholdKey, feeding the adaptive baseline store.
func (m *Monitor) SetThresholdObserver(obs ThresholdObserver) {
	m.observe = obs
}

// SetTsunamiLookup wires the geocoding oracle's sea lookup into notice
// classification, naming a tsunami's locality when a report's water flag
// didn't already carry one.
func (m *Monitor) SetTsunamiLookup(lookup notice.TsunamiLookup) {
	m.tsunami = lookup
}

// Run consumes notices from in until ctx is cancelled or in is closed.
func (m *Monitor) Run(ctx context.Context, in <-chan *models.Notice) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			m.Process(n, time.Now())
		}
	}
}

// Process runs one notice through latency metering, region locking,
// per-subscriber rendering, and dispatch.
func (m *Monitor) Process(n *models.Notice, now time.Time) {
	defer func(start time.Time) {
		metrics.MonitorDispatchLatency.Observe(time.Since(start).Seconds())
	}(now)

	delay := now.Sub(n.Timestamp)
	if err := m.guard.ApplyThroughputGuard(delay); err != nil {
		slog.Error("monitor: throughput guard tripped", "err", err)
	}

	notice.Classify(n, now, m.travel, m.tsunami)

	region := n.Event.Region
	if n.Event.Status.AtMost(models.StatusGuessed) {
		unlock, ok := m.regionLocks.TryLock(region)
		if !ok {
			slog.Debug("monitor: dropping low-quality notice, region lock held", "region", region)
			return
		}
		defer unlock()
	} else {
		defer m.regionLocks.Lock(region)()
	}

	m.dispatchToSubscribers(n, now)
}

func (m *Monitor) dispatchToSubscribers(n *models.Notice, now time.Time) {
	claimed := make(map[string]bool)

	for _, sub := range m.subscribers {
		if claimed[sub.Domain.Name] {
			continue
		}
		ok, _ := domainmatch.Match(sub.Domain, n, now, m.matchOpts)
		if !ok {
			continue
		}
		shear := m.travel(n.Event.Coords.DepthKm(), n.Event.Coords.RadiusKm)
		dispatch, _ := domainmatch.Relevance(sub.Domain, n, now, m.throttle, shear)
		if !dispatch {
			continue
		}

		lines := m.render(n, sub.Sink.Style())
		if len(lines) == 0 {
			continue
		}

		title := lines[0]
		body := strings.Join(lines[1:], "\n")
		if _, err := sub.Sink.Send(title, body, n.Event.Coords, region(n), nil, n.Early); err != nil {
			slog.Warn("monitor: sink dispatch failed", "subscriber", sub.Domain.Name, "err", err)
			continue
		}
		sub.Domain.Remember(n)
		claimed[sub.Domain.Name] = true

		if m.observe != nil && sub.Domain.Threshold != nil {
			m.observe(sub.Domain.Threshold.Scope, now.Hour(), n.Event.Confidence())
		}
	}
}

func region(n *models.Notice) string { return n.Event.Region }

func (m *Monitor) render(n *models.Notice, style sink.Style) []string {
	it := NewMessageIterator(n, style)
	var lines []string
	for {
		line, ok := it.Next()
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	return lines
}
