package models

import (
	"fmt"
	"math"
	"time"
)

// Heuristic is a single (weight, description) entry attached to a scored
// report, carried so the online-learning loop (§4.4) can attribute outcomes
// back to individual features.
type Heuristic struct {
	Weight      float64
	Description string
}

// Report is the atomic observation unit ingested from a single source.
type Report struct {
	Coords  Coords
	Time    time.Time // origin time
	Update  time.Time // last-modified time
	Mag     Magnitude
	Intensity Intensity
	Alert   Severity
	Status  Status
	Water   WaterFlag

	Victims int

	Sources []string
	Links   []string

	Text     string   // free text, present for crowdsourced/social reports
	Keywords []string

	User string // crowdsourced author handle, empty for structured sources

	Score      float64     // base score prior to status weighting
	Heuristics []Heuristic // triggered heuristic weights

	Adapter string // origin adapter identifier, used as Notice.Provider
}

// WaterFlag represents the §3 "bool or body-of-water name" union: most
// sources just say yes/no, some name the sea/ocean.
type WaterFlag struct {
	Present bool
	Name    string
}

// ParseWaterFlag applies the §4.2 rule: strings shorter than 4 characters
// are treated as booleans ("no"/"si"), longer ones as a body-of-water name.
func ParseWaterFlag(raw string) WaterFlag {
	if raw == "" {
		return WaterFlag{}
	}
	if len(raw) < 4 {
		switch raw {
		case "1", "y", "Y", "yes", "si", "true":
			return WaterFlag{Present: true}
		default:
			return WaterFlag{}
		}
	}
	return WaterFlag{Present: true, Name: raw}
}

// DepthKm returns the depth below the surface in km (-alt for a negative
// altitude, 0 above the surface), defaulting to 10km when altitude is unset
// (§3).
func (r Report) DepthKm() float64 {
	return r.Coords.DepthKm()
}

// RadiusKm computes the felt-radius heuristic:
// min(800, e^(0.666*mag+1.2) * depth^0.2).
func (r Report) RadiusKm() float64 {
	depth := r.DepthKm()
	if depth <= 0 {
		depth = 10
	}
	radius := math.Exp(0.666*r.Mag.Value+1.2) * math.Pow(depth, 0.2)
	if radius > 800 {
		return 800
	}
	return radius
}

// Confidence clips score*status.confidence into [5e-5, 1.0].
func (r Report) Confidence() float64 {
	c := r.Score * r.Status.Confidence
	if c < 5e-5 {
		return 5e-5
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}

// AgeSeconds returns time since the report's origin time, relative to now.
func (r Report) AgeSeconds(now time.Time) float64 {
	return now.Sub(r.Time).Seconds()
}

// Priority is (30/clip(age_s,1,3600)) * confidence * mag.
func (r Report) Priority(now time.Time) float64 {
	age := r.AgeSeconds(now)
	if age < 1 {
		age = 1
	}
	if age > 3600 {
		age = 3600
	}
	return (30 / age) * r.Confidence() * r.Mag.Value
}

// Official reports §3's definition: status >= reported and a tight radius.
func (r Report) Official() bool {
	return r.Status.AtLeast(StatusReported) && r.Coords.RadiusKm < 300
}

// Crowdsourced reports §3's definition: low status, has text, positive score.
func (r Report) Crowdsourced() bool {
	return r.Status.AtMost(StatusGuessed) && r.Text != "" && r.Score > 0
}

// Validate enforces the §3 invariants: time not in the future, update not
// meaningfully earlier than time, depth never negative.
func (r Report) Validate(now time.Time) error {
	const futureTolerance = 2 * time.Second
	if r.Time.After(now.Add(futureTolerance)) {
		return fmt.Errorf("report time %s is in the future (now=%s)", r.Time, now)
	}
	const updateTolerance = -5 * time.Second
	if r.Update.Before(r.Time.Add(updateTolerance)) && !r.Update.IsZero() {
		return fmt.Errorf("report update %s precedes time %s beyond tolerance", r.Update, r.Time)
	}
	if r.Coords.DepthKm() < 0 {
		return fmt.Errorf("negative depth: %f", r.Coords.DepthKm())
	}
	return nil
}

// Equivalent implements the §3 fusion equality predicate between two
// reports. minConf is min(r.Confidence(), o.Confidence()).
//
// Same if:
//
//	|Δmag| <= 2.5 AND
//	|Δtime| <= clip(shearTravelSeconds/minConf, 60, 300) AND
//	Δdistance_km <= clip((r1.radius+r2.radius)/max(0.5,minConf), 100, 500)
//
// shearTravel is the caller-supplied travel time (seconds) for the pair's
// separation; passing 0 degenerates the time gate to its 60s floor.
func (r Report) Equivalent(o Report, shearTravelSeconds float64) bool {
	if sameReport(r, o) {
		return true
	}
	dMag := math.Abs(r.Mag.Value - o.Mag.Value)
	if dMag > 2.5 {
		return false
	}

	minConf := math.Min(r.Confidence(), o.Confidence())
	if minConf <= 0 {
		minConf = 5e-5
	}

	timeWindow := clip(shearTravelSeconds/minConf, 60, 300)
	dTime := math.Abs(r.Time.Sub(o.Time).Seconds())
	if dTime > timeWindow {
		return false
	}

	distDenom := math.Max(0.5, minConf)
	distWindow := clip((r.Coords.RadiusKm+o.Coords.RadiusKm)/distDenom, 100, 500)
	dDist := r.Coords.Sub(o.Coords)
	if dDist > distWindow {
		return false
	}

	return true
}

func sameReport(a, b Report) bool {
	return a.Adapter == b.Adapter && a.Time.Equal(b.Time) && a.Coords.Equal(b.Coords) && a.Mag.Value == b.Mag.Value
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
