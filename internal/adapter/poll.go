package adapter

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/quakewatch/quakewatch/internal/metrics"
	"github.com/quakewatch/quakewatch/internal/parser"
	"github.com/quakewatch/quakewatch/internal/slowdown"
)

// httpParseSemaphore bounds concurrent HTTP parses across every polling
// adapter process-wide (§5: "at most 2 concurrent HTTP parses").
var httpParseSemaphore = make(chan struct{}, 2)

const (
	pollPeriodFloor   = 50 * time.Second
	pollPeriodCeiling = 500 * time.Second
	pollCoolOff       = 300 * time.Second
	pollLimitFloor    = 3
	pollLimitCeiling  = 48
	pollLimitBase     = 12
)

// Fetcher retrieves a payload. Whether it changed since the previous fetch
// is decided by the caller (a byte-equal payload suppresses emission
// entirely).
type Fetcher func(ctx context.Context) ([]byte, error)

// PollAdapter periodically fetches a payload, parses it into reports, and
// adapts its own period based on how quickly the source actually updates.
type PollAdapter struct {
	runningFlag

	name       string
	fetch      Fetcher
	dispatcher *parser.Dispatcher
	slowdown   *slowdown.Factor

	period       time.Duration
	last         []byte
	lastUpdate   time.Time
	limitOverride int // 0 means "derive from slowdown factor"
}

// NewPollAdapter builds a poller named name, using fetch to retrieve
// payloads and dispatcher to parse them.
func NewPollAdapter(name string, fetch Fetcher, dispatcher *parser.Dispatcher, sf *slowdown.Factor) *PollAdapter {
	return &PollAdapter{
		name:       name,
		fetch:      fetch,
		dispatcher: dispatcher,
		slowdown:   sf,
		period:     pollPeriodFloor,
	}
}

func (p *PollAdapter) Name() string { return p.name }

func (p *PollAdapter) Accepts(resource string) bool { return false } // registered via Registry, not self-probed

// Run drains cycles until ctx is cancelled, adapting p.period after every
// fetch per the §4.1 polling contract.
func (p *PollAdapter) Run(ctx context.Context, out chan<- Emission) error {
	p.set(true)
	defer p.set(false)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			cycleStart := time.Now()
			p.runCycle(ctx, out)
			elapsed := time.Since(cycleStart)

			effectivePeriod := p.period
			if sf := p.slowdown.Load(); sf > 0 {
				effectivePeriod = time.Duration(float64(p.period) * sf)
			}
			if elapsed > effectivePeriod/4 {
				p.halveLimit()
			}
			metrics.AdapterPeriodSeconds.WithLabelValues(p.name).Set(effectivePeriod.Seconds())
			metrics.AdapterItemLimit.WithLabelValues(p.name).Set(float64(p.limit()))
			timer.Reset(effectivePeriod)
		}
	}
}

func (p *PollAdapter) runCycle(ctx context.Context, out chan<- Emission) {
	select {
	case httpParseSemaphore <- struct{}{}:
		defer func() { <-httpParseSemaphore }()
	case <-ctx.Done():
		return
	}

	payload, err := p.fetch(ctx)
	if err != nil {
		slog.Warn("adapter: poll fetch failed, cooling off", "adapter", p.name, "err", err)
		p.period = pollCoolOff
		return
	}
	if bytes.Equal(payload, p.last) {
		return
	}
	p.last = append(p.last[:0], payload...)

	limit := p.limit()
	reports, err := p.dispatcher.Dispatch(payload, parser.Meta{Adapter: p.name, FetchedAt: time.Now()})
	if err != nil {
		slog.Debug("adapter: poll payload rejected by every parser", "adapter", p.name, "err", err)
		return
	}

	now := time.Now()
	delta := now.Sub(p.lastUpdate)
	p.lastUpdate = now
	p.adaptPeriod(delta)

	if len(reports) > limit {
		slog.Debug("adapter: poll payload exceeded per-cycle item limit, truncating",
			"adapter", p.name, "items", len(reports), "limit", limit)
		reports = reports[:limit]
	}

	for _, report := range reports {
		select {
		case out <- Emission{Report: report, Adapter: p.name}:
		case <-ctx.Done():
			return
		}
	}
}

// adaptPeriod implements the EMA period-control formula: the target is
// delta/3 clipped to [50s, 500s]; a fast-updating source (delta under 60s)
// moves the period 70% of the way to the target, a slower one 95% of the
// way.
func (p *PollAdapter) adaptPeriod(delta time.Duration) {
	clipped := clipDuration(delta/3, pollPeriodFloor, pollPeriodCeiling)
	fast := delta < 60*time.Second
	if fast {
		p.period = time.Duration(0.3*float64(p.period) + 0.7*float64(clipped))
	} else {
		p.period = time.Duration(0.05*float64(p.period) + 0.95*float64(clipped))
	}
}

func clipDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (p *PollAdapter) limit() int {
	if p.limitOverride > 0 {
		return p.limitOverride
	}
	sf := p.slowdown.Load()
	if sf <= 0 {
		sf = 1
	}
	l := int(pollLimitBase / sf)
	return clipInt(l, pollLimitFloor, pollLimitCeiling)
}

// halveLimit implements the "cycle ran longer than 25% of the period"
// guard: the per-cycle item cap is halved, clipped to [3, 48], and pinned
// as an override. Nothing resets the override, so each later halving starts
// from it.
func (p *PollAdapter) halveLimit() {
	p.limitOverride = clipInt(p.limit()/2, pollLimitFloor, pollLimitCeiling)
}

func clipInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
