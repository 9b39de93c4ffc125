package notice

import (
	"sync"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

// Reason names why self supersedes other, in the precedence order §4.5
// documents. A zero value ("") means self does not supersede.
type Reason string

const (
	ReasonTsunami          Reason = "tsunami"
	ReasonOfficial         Reason = "official"
	ReasonAlertUpgrade     Reason = "alert-color-upgrade"
	ReasonMagnitudeUp      Reason = "magnitude-stronger"
	ReasonIntensityWorse   Reason = "intensity-worse"
	ReasonFeltCount        Reason = "felt-count"
	ReasonDetailed         Reason = "detailed"
	ReasonWeaker           Reason = "weaker"
	ReasonEpicenterShift   Reason = "epicenter-shift"
	ReasonAlertDowngrade   Reason = "alert-color-downgrade"
	ReasonIntensityNew     Reason = "intensity-new"
	// ReasonInitial is returned when there is no prior notice to compare
	// against; not part of the documented precedence list.
	ReasonInitial Reason = "initial"
	ReasonNone    Reason = ""
)

// ThrottleWindow is the minimum gap between supersedes for the same
// (subscriber, tag) pair.
const ThrottleWindow = 120 * time.Second

// Throttle tracks the last-superseded time per (subscriber, tag) so the
// 120s throttle window in the precedence list can be evaluated.
type Throttle struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewThrottle() *Throttle {
	return &Throttle{last: make(map[string]time.Time)}
}

func (t *Throttle) key(subscriber, tag string) string { return subscriber + "\x00" + tag }

// Exceeded reports whether the throttle window has elapsed since the last
// supersede for this pair, and records now as the new watermark when it
// has.
func (t *Throttle) Exceeded(subscriber, tag string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.key(subscriber, tag)
	last, ok := t.last[k]
	if ok && now.Sub(last) < ThrottleWindow {
		return false
	}
	t.last[k] = now
	return true
}

// Supersedes decides whether self should replace other for a given
// subscriber/tag, following the §4.5 precedence list. shearTravelSeconds
// is passed through to the fusion equality predicate.
func Supersedes(self, other *models.Notice, subscriber, tag string, throttle *Throttle, now time.Time, shearTravelSeconds float64) Reason {
	if other == nil {
		return ReasonInitial
	}
	if self.Early && !self.Event.Official() {
		return ReasonNone
	}
	selfRep, otherRep := representative(self.Event), representative(other.Event)
	if self.Event.Confidence() < other.Event.Confidence() && self.Event.Status.Compare(other.Event.Status) <= 0 {
		return ReasonNone
	}
	if !selfRep.Equivalent(otherRep, shearTravelSeconds) {
		return ReasonNone
	}

	if self.HasTsunami && !other.HasTsunami {
		return ReasonTsunami
	}
	if self.Event.Official() && !other.Event.Official() {
		return ReasonOfficial
	}
	if self.Event.Alert > other.Event.Alert {
		return ReasonAlertUpgrade
	}
	if self.Event.Mag.Value > other.Event.Mag.Value {
		return ReasonMagnitudeUp
	}
	if self.Event.Intensity.Compare(other.Event.Intensity) > 0 {
		return ReasonIntensityWorse
	}
	if !throttle.Exceeded(subscriber, tag, now) {
		return ReasonNone
	}
	if len(self.Event.Witnesses()) > len(other.Event.Witnesses()) {
		return ReasonFeltCount
	}
	if len(self.Event.Children) > len(other.Event.Children) {
		return ReasonDetailed
	}
	if self.Event.Mag.Value < other.Event.Mag.Value {
		return ReasonWeaker
	}
	if self.Event.Coords.Sub(other.Event.Coords) > 1.0 {
		return ReasonEpicenterShift
	}
	if self.Event.Alert < other.Event.Alert {
		return ReasonAlertDowngrade
	}
	if self.Event.Intensity.Compare(other.Event.Intensity) != 0 {
		return ReasonIntensityNew
	}
	return ReasonNone
}

func representative(e *models.Event) models.Report {
	if len(e.Best) > 0 {
		return e.Best[0]
	}
	if len(e.Children) > 0 {
		return e.Children[0]
	}
	return models.Report{}
}
