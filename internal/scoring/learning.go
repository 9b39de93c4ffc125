package scoring

import (
	"sort"
	"sync"
	"time"

	"github.com/quakewatch/quakewatch/internal/metrics"
	"github.com/quakewatch/quakewatch/internal/models"
)

// FeatureStats are the persisted per-feature counters the learning loop
// folds event outcomes into. Positive accumulates features seen on events
// that matured by going official, Negative those seen on events that timed
// out; each warner report adds 1.0 and each witness report (warners
// included) adds 0.1. Neutral is stored and persisted, but Feedback never
// increments it.
type FeatureStats struct {
	Positive float64
	Negative float64
	Neutral  float64
}

// Sign selects which of the two ambiguous learned() projections to use.
// The source mixes a sum-based score under '=' and an absolute ratio under
// '/'; both are kept as named, documented alternatives rather than
// collapsed into one (§9 open question).
type Sign string

const (
	// SignSum ranks features by (positive_rate - negative_rate), a
	// symmetric score in [-1, 1].
	SignSum Sign = "="
	// SignRatio ranks features by positive/negative, a right-skewed
	// statistic; a feature with zero negatives reports RatioSentinel
	// rather than +Inf, matching the source's sentinel convention.
	SignRatio Sign = "/"
)

// RatioSentinel stands in for "negative observations are zero" so
// SignRatio never produces +Inf or NaN.
const RatioSentinel = 999.0

// Learner accumulates FeatureStats across maturing events and can reload
// from / persist to a Store.
type Learner struct {
	mu    sync.Mutex
	stats map[string]*FeatureStats
}

// Store persists Learner counters across restarts.
type Store interface {
	LoadFeatureStats() (map[string]*FeatureStats, error)
	SaveFeatureStats(map[string]*FeatureStats) error
}

func NewLearner() *Learner {
	return &Learner{stats: make(map[string]*FeatureStats)}
}

// LoadFrom seeds the learner's counters from persisted storage.
func (l *Learner) LoadFrom(store Store) error {
	stats, err := store.LoadFeatureStats()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats = stats
	return nil
}

// SaveTo flushes the learner's counters to persisted storage.
func (l *Learner) SaveTo(store Store) error {
	l.mu.Lock()
	snapshot := make(map[string]*FeatureStats, len(l.stats))
	for k, v := range l.stats {
		cp := *v
		snapshot[k] = &cp
	}
	l.mu.Unlock()
	return store.SaveFeatureStats(snapshot)
}

func (l *Learner) bump(feature string, positive, negative, neutral float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.stats[feature]
	if !ok {
		s = &FeatureStats{}
		l.stats[feature] = s
	}
	s.Positive += positive
	s.Negative += negative
	s.Neutral += neutral
}

// officialSign is +1.0 when an event matured by reaching official status,
// -1.0 when it matured by timing out without going official.
func officialSign(e *models.Event) float64 {
	if e.Official() {
		return 1.0
	}
	return -1.0
}

// MaturedAt reports whether e qualifies for feedback given the current
// time: either it has gone official, or it is at least 30 minutes old with
// four or more children.
func MaturedAt(e *models.Event, now time.Time) bool {
	if e.Official() {
		return true
	}
	return now.Sub(e.Time) >= 30*time.Minute && len(e.Children) >= 4
}

// Feedback folds a matured event's warners and witnesses into the feature
// counters, attributing +1.0*sign to each triggered feature seen on a
// warner's report and +0.1*sign to each triggered feature seen on a
// witness's, where sign is +1 for official maturation and -1 for timeout.
// travel resolves the shear-wave oracle Warners needs; triggeredFeatures
// must return the feature names that fired when the report was originally
// scored.
func (l *Learner) Feedback(e *models.Event, travel models.TravelTimeFunc, triggeredFeatures func(models.Report) []string) {
	sign := officialSign(e)

	for _, w := range e.Warners(travel) {
		for _, name := range triggeredFeatures(w) {
			if sign > 0 {
				l.bump(name, 1.0, 0, 0)
			} else {
				l.bump(name, 0, 1.0, 0)
			}
		}
	}
	for _, w := range e.Witnesses() {
		for _, name := range triggeredFeatures(w) {
			if sign > 0 {
				l.bump(name, 0.1, 0, 0)
			} else {
				l.bump(name, 0, 0.1, 0)
			}
		}
	}
}

// Learned ranks feature names by the chosen projection of their running
// counters, most favorable first.
func (l *Learner) Learned(sign Sign) []string {
	l.mu.Lock()
	type row struct {
		name  string
		score float64
	}
	rows := make([]row, 0, len(l.stats))
	for name, s := range l.stats {
		total := s.Positive + s.Negative
		var score float64
		switch sign {
		case SignRatio:
			if s.Negative == 0 {
				if s.Positive == 0 {
					score = 0
				} else {
					score = RatioSentinel
				}
			} else {
				score = s.Positive / s.Negative
			}
		default: // SignSum
			if total == 0 {
				score = 0
			} else {
				score = s.Positive/total - s.Negative/total
			}
		}
		rows = append(rows, row{name, score})
	}
	l.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].score > rows[j].score })
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.name
	}
	return names
}

// Adjust rewrites a scorer's catalog weights toward the learned ranking:
// every feature's weight is nudged by a fixed learning rate in the
// direction of its positive/negative rate under SignSum.
func (l *Learner) Adjust(scorer *SocialTextScorer, rate float64) {
	l.mu.Lock()
	stats := make(map[string]*FeatureStats, len(l.stats))
	for k, v := range l.stats {
		cp := *v
		stats[k] = &cp
	}
	l.mu.Unlock()

	for _, f := range scorer.Catalog() {
		s, ok := stats[f.Name]
		if !ok {
			continue
		}
		total := s.Positive + s.Negative
		if total == 0 {
			continue
		}
		direction := s.Positive/total - s.Negative/total
		adjusted := f.Weight + direction*rate
		scorer.SetWeight(f.Name, adjusted)
		metrics.FeaturesLearned.WithLabelValues(f.Name).Set(adjusted)
	}
}
