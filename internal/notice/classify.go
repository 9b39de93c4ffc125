// Package notice implements notice classification and the supersede
// decision of §4.5: turning a fused event into a Notice with an urgency
// tier, then deciding whether a new notice should replace a prior one for
// the same subscriber.
package notice

import (
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

// TsunamiLookup resolves whether an event's coordinates lie over open
// water and, if so, names the body of water — filling in a tsunami
// locality for reports whose text carried a bare water flag but no name.
type TsunamiLookup func(models.Coords) (isSea bool, name string)

// Classify assigns Timely, Early, Category, Significance, and the tsunami
// fields to n in place, evaluating the §4.5 rule table in order and
// stopping at the first rule that fires. tsunami may be nil, in which case
// only the reports' own water flag (not coordinate geography) drives
// HasTsunami.
func Classify(n *models.Notice, now time.Time, travel models.TravelTimeFunc, tsunami TsunamiLookup) {
	n.HasTsunami, n.TsunamiPlace = resolveTsunami(n.Event, tsunami)
	n.Category = category(n.Event)
	n.Significance = significance(n.Event, n.HasTsunami)

	age := now.Sub(n.Event.Time)
	confidence := n.Event.Confidence()

	switch {
	case age < 3*time.Minute:
		n.Timely = models.TimelyWarning
	case age < 7*time.Minute && n.Category != models.CategoryEarthquake:
		n.Timely = models.TimelyEmergency
	case age < 10*time.Minute && confidence >= 0.2:
		n.Timely = models.TimelyBreaking
	case age < 15*time.Minute && confidence >= 0.4:
		n.Timely = models.TimelyPreliminary
	case age < 20*time.Minute && confidence >= 0.2:
		n.Timely = models.TimelyFresh
	case age < 60*time.Minute && n.Event.Official():
		n.Timely = models.TimelyOfficial
	case age < 120*time.Minute && n.HasTsunami:
		n.Timely = models.TimelyTsunami
	case age < n.Event.Alert.Duration():
		n.Timely = models.TimelyAlert
	case n.Event.Best != nil && totalVictims(n.Event) > 0 && age < victimsWindow(totalVictims(n.Event)):
		n.Timely = models.TimelyVictims
	default:
		n.Timely = models.TimelyNone
	}

	n.Early = isEarly(n, now, travel)
}

func totalVictims(e *models.Event) int {
	max := 0
	for _, c := range e.Children {
		if c.Victims > max {
			max = c.Victims
		}
	}
	return max
}

// victimsWindow implements clip(victims*100 minutes, 24h, 7d).
func victimsWindow(victims int) time.Duration {
	d := time.Duration(victims*100) * time.Minute
	if d < 24*time.Hour {
		return 24 * time.Hour
	}
	if d > 7*24*time.Hour {
		return 7 * 24 * time.Hour
	}
	return d
}

func category(e *models.Event) models.Category {
	if e.Alert != models.SeverityNone {
		return models.CategoryAlert
	}
	if e.Mag.Value > 0 {
		return models.CategoryEarthquake
	}
	return models.CategoryUnknown
}

func significance(e *models.Event, hasTsunami bool) models.Significance {
	switch {
	case totalVictims(e) > 0:
		return models.SignificanceVictims
	case hasTsunami:
		return models.SignificanceTsunami
	case e.Alert != models.SeverityNone:
		return models.SignificanceAlertColor
	case e.Mag.Value >= 7.0:
		return models.SignificanceMagnitude
	default:
		return models.SignificanceNone
	}
}

// resolveTsunami implements the §3/§4.5 tsunami locality rule: a report
// carrying a water flag marks the event; when it didn't also name the body
// of water, tsunami falls back to the geocoding oracle's sea lookup at the
// event's coordinates so region-regex subscribers still have a locality to
// match against.
func resolveTsunami(e *models.Event, tsunami TsunamiLookup) (bool, string) {
	if !e.Water.Present {
		return false, ""
	}
	if e.Water.Name != "" {
		return true, e.Water.Name
	}
	if tsunami != nil {
		if isSea, name := tsunami(e.Coords); isSea {
			return true, name
		}
	}
	return true, ""
}

// isEarly implements: timely ∈ {warning, emergency} ∧ deadline(event.time +
// 20s + shear_travel(radius+coords.radius_capped_200)) > now.
func isEarly(n *models.Notice, now time.Time, travel models.TravelTimeFunc) bool {
	if n.Timely != models.TimelyWarning && n.Timely != models.TimelyEmergency {
		return false
	}
	radius := n.Event.Coords.RadiusKm + n.Event.Coords.ClipRadiusKm(200)
	shear := travel(n.Event.Coords.DepthKm(), radius)
	deadline := n.Event.Time.Add(20*time.Second + time.Duration(shear*float64(time.Second)))
	return deadline.After(now)
}
