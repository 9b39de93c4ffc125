// Package domainmatch implements the 13-step domain-evaluation order of
// §4.6: deciding whether a subscriber's Domain wants to hear about a given
// notice, and whether this particular occurrence is worth dispatching.
package domainmatch

import (
	"math"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

// ThresholdLookup resolves the learned acceptance-score floor for a scope
// (domain name or region name) at a given hour-of-day.
type ThresholdLookup func(scope string, hour int) (minimum float64, ok bool)

// RateEstimate reports an external-provider-observed dispatch rate for a
// domain, used by the rate_ceiling rule.
type RateEstimate func(domain *models.Domain) float64

// PopulationNear sums the population of localities affected by an event,
// used by the people_floor rule.
type PopulationNear func(e *models.Event) float64

// Options bundles the external collaborators the evaluation order needs,
// all optional (nil collaborators make their corresponding rule a no-op,
// except Travel, which falls back to a zero shear-wave time so the
// threshold rule's |warners| count degrades rather than panics).
type Options struct {
	Thresholds ThresholdLookup
	Rate       RateEstimate
	Population PopulationNear
	Travel     models.TravelTimeFunc
}

// Match evaluates domain against notice in the documented order, returning
// whether the domain should receive it and, when not, which rule rejected
// it.
func Match(domain *models.Domain, n *models.Notice, now time.Time, opts Options) (bool, string) {
	if domain.Empty {
		return false, "empty"
	}
	if domain.Categories != nil {
		if _, ok := domain.Categories[n.Category]; !ok {
			return false, "categories"
		}
	}
	travel := opts.Travel
	if travel == nil {
		travel = func(float64, float64) float64 { return 0 }
	}
	if domain.Threshold != nil && n.Early && len(n.Event.Warners(travel)) >= 3 && opts.Thresholds != nil {
		hour := now.Hour()
		domMin, domOK := opts.Thresholds(domain.Threshold.Scope, hour)
		regionMin, regionOK := opts.Thresholds(n.Event.Region, hour)
		if domOK || regionOK {
			gate := 0.8*domMin + 0.2*regionMin
			if n.Event.Confidence() < gate {
				return false, "threshold"
			}
		}
	}
	if domain.ScoreFloor != nil {
		rep := representative(n.Event)
		if rep.Score < *domain.ScoreFloor || rep.Confidence() < *domain.ScoreFloor {
			return false, "score_floor"
		}
	}
	if domain.MagFloor != nil && n.Category == models.CategoryEarthquake {
		if n.Event.Mag.Value < *domain.MagFloor {
			return false, "mag_floor"
		}
	}
	if domain.AlertFloor != nil {
		if n.Event.Alert < *domain.AlertFloor {
			return false, "alert_floor"
		}
	}
	if domain.ReportsFloor != nil {
		if len(n.Event.Witnesses()) < *domain.ReportsFloor {
			return false, "reports_floor"
		}
	}
	if domain.Region != nil {
		if !domain.Region.MatchString(n.RegionOrTsunami()) {
			return false, "region"
		}
	}
	if domain.Box != nil {
		if !domain.Box.Contains(n.Event.Coords) {
			return false, "box"
		}
	}
	if domain.Target != nil {
		if !withinTarget(domain.Target, n.Event) {
			return false, "target"
		}
	}
	if domain.WarningOnly && !n.Early {
		return false, "warning_only"
	}
	if domain.RateCeiling != nil && opts.Rate != nil {
		rate := opts.Rate(domain)
		if rate > *domain.RateCeiling {
			if n.Significance != models.SignificanceMagnitude && n.Significance != models.SignificancePopulation {
				return false, "rate_ceiling"
			}
		}
	}
	if domain.PeopleFloor != nil && opts.Population != nil {
		if opts.Population(n.Event) <= *domain.PeopleFloor {
			return false, "people_floor"
		}
	}
	return true, ""
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

// withinTarget implements step 10: a coarse lat/lon bounding check before
// the exact great-circle distance test, against the target's own radius or
// (when unset) the event's own radius.
func withinTarget(target *models.Target, e *models.Event) bool {
	dLat := math.Abs(e.Coords.Lat - target.Point.Lat)
	if dLat > 1000.0/110.0 {
		return false
	}
	dLon := math.Abs(e.Coords.Lon - target.Point.Lon)
	if dLon > 1000.0/60.0 {
		return false
	}
	radius := e.Coords.RadiusKm
	if target.RadiusKm != nil {
		radius = *target.RadiusKm
	}
	return e.Coords.Sub(target.Point) <= radius
}
