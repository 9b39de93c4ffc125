package models

import (
	"regexp"
	"time"
)

// Box is a non-wrapping bounding rectangle (SW/NE corners, §4.6 step 9).
type Box struct {
	SW, NE Coords
}

// Contains reports whether p falls within the box. Longitude wrap-around is
// assumed handled by the caller splitting a wrapping box into two Domains.
func (b Box) Contains(p Coords) bool {
	return p.Lat >= b.SW.Lat && p.Lat <= b.NE.Lat &&
		p.Lon >= b.SW.Lon && p.Lon <= b.NE.Lon
}

// Target is a point-radius proximity predicate (§4.6 step 10).
type Target struct {
	Point    Coords
	RadiusKm *float64 // nil => fall back to the event's own radius
}

// MaxHistory bounds the delivered-notice history kept per Domain (§3).
const MaxHistory = 64

// Domain is a subscription predicate (§3, §4.6).
type Domain struct {
	Name string

	MagFloor    *float64
	Box         *Box
	Target      *Target
	Region      *regexp.Regexp
	ScoreFloor  *float64
	WarningOnly bool
	AlertFloor  *Severity
	PeopleFloor *float64
	RateCeiling *float64
	Updates     bool // accept supersedes
	ReportsFloor *int
	Categories  map[Category]struct{}
	Threshold   *ThresholdKey // adaptive hourly baseline key, nil if unused

	Empty bool // never matches; used for disabled/placeholder subscriptions
	Debug bool

	History []*Notice // most-recent-first, capped at MaxHistory
	Last    *Notice
}

// Remember appends n to history (capped) and updates Last.
func (d *Domain) Remember(n *Notice) {
	d.Last = n
	d.History = append([]*Notice{n}, d.History...)
	if len(d.History) > MaxHistory {
		d.History = d.History[:MaxHistory]
	}
}

// PreviousForEvent returns the most recent prior notice delivered for the
// same event id, or nil.
func (d *Domain) PreviousForEvent(eventID string) *Notice {
	for _, h := range d.History {
		if h.Event != nil && h.ID == eventID {
			return h
		}
	}
	return nil
}

// ThresholdKey names which region/domain-scoped adaptive threshold a Domain
// consults (§3, §4.6 step 3's two-level gate).
type ThresholdKey struct {
	Scope string // canonicalized Domain identity, e.g. "domain:<name>"
}

// LastSeen returns when this domain last considered a notice.
func (d *Domain) LastSeen() time.Time {
	if d.Last == nil {
		return time.Time{}
	}
	return d.Last.Timestamp
}
