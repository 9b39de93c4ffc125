package models

import "time"

// Timely classifies a Notice's age-driven urgency tier (§3, §4.5).
type Timely string

const (
	TimelyWarning     Timely = "warning"
	TimelyEmergency   Timely = "emergency"
	TimelyBreaking    Timely = "breaking"
	TimelyPreliminary Timely = "preliminary"
	TimelyFresh       Timely = "fresh"
	TimelyOfficial    Timely = "official"
	TimelyTsunami     Timely = "tsunami"
	TimelyAlert       Timely = "alert"
	TimelyVictims     Timely = "victims"
	TimelyNone        Timely = ""
)

// Significance names why a notice is worth dispatching on its own (§3).
type Significance string

const (
	SignificanceVictims     Significance = "victims"
	SignificanceTsunami     Significance = "tsunami"
	SignificanceMagnitude   Significance = "magnitude"
	SignificancePopulation  Significance = "population"
	SignificanceFrequency   Significance = "frequency"
	SignificanceAlertColor  Significance = "alert-color"
	SignificanceNone        Significance = ""
)

// Category groups notices for Domain.Categories filtering (§3, §4.6).
type Category string

const (
	CategoryEarthquake Category = "earthquake"
	CategoryAlert      Category = "alert"
	CategoryUnknown    Category = "unknown"
)

// Notice wraps an Event with dispatch-time classification.
type Notice struct {
	*Event
	Provider     string
	Timely       Timely
	Early        bool
	Category     Category
	Significance Significance
	HasTsunami   bool
	TsunamiPlace string
	Timestamp    time.Time // when this Notice was created by the fusion engine
}

// NewNotice wraps event with a provider identity; classification fields are
// filled in by the notice package.
func NewNotice(e *Event, provider string) *Notice {
	return &Notice{Event: e, Provider: provider, Timestamp: time.Now()}
}

// RegionOrTsunami returns the tsunami locality if set, else the event's region — the
// field the §4.6 region regex and §4.5 tsunami significance match against.
func (n *Notice) RegionOrTsunami() string {
	if n.TsunamiPlace != "" {
		return n.TsunamiPlace
	}
	return n.Region
}
