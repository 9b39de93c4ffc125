package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MaxEventChildren bounds the fusion deque per child-event (§3).
const MaxEventChildren = 128

// TravelTimeFunc is the shear-wave travel-time oracle used to compute
// Warners; it is injected rather than imported to keep models free of a
// dependency on the travel package (§6 calls it an external collaborator).
type TravelTimeFunc func(depthKm, distanceKm float64) float64

// Event is a fusion of one or more Reports believed to describe the same
// physical occurrence (§3).
type Event struct {
	ID       string
	Children []Report // most-recent-first

	Time      time.Time
	Coords    Coords
	Mag       Magnitude
	Intensity Intensity
	Update    time.Time
	Alert     Severity
	Status    Status
	Links     []string
	Sources   []string
	Keywords  []string

	Best []Report // minimal high-confidence prefix

	Region string // Flinn-Engdahl region name, set by the caller
	Water  WaterFlag

	FedBack bool // true once a matured outcome has been folded into the learner
}

// NewEvent seeds a new event from a single report.
func NewEvent(seed Report) *Event {
	e := &Event{ID: uuid.NewString()}
	e.Children = []Report{seed}
	e.Recompute(time.Now())
	return e
}

// Merge prepends a new child and recomputes derived attributes (§3, §4.3
// step 3's merge rules live one layer up in the fusion engine, which decides
// pruning; Merge only appends+recomputes).
func (e *Event) Merge(r Report, now time.Time) {
	e.Children = append([]Report{r}, e.Children...)
	if len(e.Children) > MaxEventChildren {
		e.evictLowestScore()
	}
	e.Recompute(now)
}

// evictLowestScore implements the bounded-deque's LRU-like pop of low-score
// latecomers: once the children exceed the cap, drop the lowest-confidence
// child (the most recent one on a tie) rather than blindly truncating the
// tail.
func (e *Event) evictLowestScore() {
	worst := 0
	worstConf := e.Children[0].Confidence()
	for i, c := range e.Children {
		if c.Confidence() < worstConf {
			worst = i
			worstConf = c.Confidence()
		}
	}
	e.Children = append(e.Children[:worst], e.Children[worst+1:]...)
}

// PruneTo keeps only children satisfying keep, capped at MaxEventChildren,
// used when an event becomes official (§4.3 step 3).
func (e *Event) PruneTo(keep func(Report) bool) {
	kept := e.Children[:0:0]
	for _, c := range e.Children {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) > MaxEventChildren {
		kept = kept[:MaxEventChildren]
	}
	e.Children = kept
}

// Official reports whether the event's current best child is official.
func (e *Event) Official() bool {
	if len(e.Best) == 0 {
		return false
	}
	return e.Best[0].Official()
}

// Recompute rebuilds every derived attribute from Children (§3). now is used
// only to bound Time <= now per the invariant list in §3/§8.
func (e *Event) Recompute(now time.Time) {
	if len(e.Children) == 0 {
		return
	}

	sorted := append([]Report(nil), e.Children...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence() > sorted[j].Confidence()
	})

	e.Best = bestPrefix(sorted)

	e.computeTime(now)
	e.computeCoords()
	e.computeMag()
	e.computeIntensity()
	e.computeUpdate()
	e.computeAlert()
	e.computeStatus()
	e.computeLinksSources()
	e.computeKeywords()
	e.computeWater()
}

// bestPrefix returns the minimal prefix (by confidence desc) whose
// cumulative confidence reaches 1.0; always at least one element.
func bestPrefix(sortedByConfDesc []Report) []Report {
	sum := 0.0
	for i, r := range sortedByConfDesc {
		sum += r.Confidence()
		if sum >= 1.0 {
			return sortedByConfDesc[:i+1]
		}
	}
	return sortedByConfDesc
}

func (e *Event) computeTime(now time.Time) {
	min := e.Children[0].Time
	for _, c := range e.Children[1:] {
		if c.Time.Before(min) {
			min = c.Time
		}
	}
	if e.Official() {
		min = e.Best[0].Time
	}
	if min.After(now) {
		min = now
	}
	e.Time = min
}

func (e *Event) computeCoords() {
	var sumLat, sumLon, sumAlt, sumRadius, weight float64
	for _, c := range e.Best {
		w := c.Priority(e.Update)
		if w <= 0 {
			w = 1e-6
		}
		sumLat += c.Coords.Lat * w
		sumLon += c.Coords.Lon * w
		sumAlt += c.Coords.AltKm * w
		sumRadius += c.Coords.RadiusKm * w
		weight += w
	}
	if weight == 0 {
		weight = 1
	}
	conf := 0.0
	for _, c := range e.Best {
		conf += c.Confidence()
	}
	if conf > 1 {
		conf = 1
	}
	e.Coords = Coords{
		Lat:        sumLat / weight,
		Lon:        sumLon / weight,
		AltKm:      sumAlt / weight,
		RadiusKm:   sumRadius / weight,
		Confidence: conf,
	}.Round()
}

func (e *Event) computeMag() {
	var sumWeighted, sumConf float64
	for _, c := range e.Best {
		sumWeighted += c.Mag.Value * c.Confidence()
		sumConf += c.Confidence()
	}
	if sumConf == 0 {
		e.Mag = e.Best[0].Mag
		return
	}
	e.Mag = NewMagnitude(sumWeighted/sumConf, e.Best[0].Mag.Unit)
}

func (e *Event) computeIntensity() {
	max := e.Children[0].Intensity
	for _, c := range e.Children[1:] {
		if c.Intensity.Compare(max) > 0 {
			max = c.Intensity
		}
	}
	e.Intensity = max
}

func (e *Event) computeUpdate() {
	max := e.Children[0].Update
	for _, c := range e.Children[1:] {
		if c.Update.After(max) {
			max = c.Update
		}
	}
	e.Update = max
}

func (e *Event) computeAlert() {
	max := SeverityNone
	for _, c := range e.Children {
		if c.Alert > max {
			max = c.Alert
		}
	}
	e.Alert = max
}

// computeWater unions the water flag across children: any child reporting
// a tsunami risk marks the event, preferring the first named body of water
// over an unnamed "present" flag.
func (e *Event) computeWater() {
	var w WaterFlag
	for _, c := range e.Children {
		if !c.Water.Present {
			continue
		}
		if !w.Present {
			w = c.Water
			continue
		}
		if w.Name == "" && c.Water.Name != "" {
			w.Name = c.Water.Name
		}
	}
	e.Water = w
}

func (e *Event) computeStatus() {
	e.Status = e.Best[0].Status
}

func (e *Event) computeLinksSources() {
	links := map[string]struct{}{}
	sources := map[string]struct{}{}
	for _, c := range e.Best {
		for _, l := range c.Links {
			links[l] = struct{}{}
		}
		for _, s := range c.Sources {
			sources[s] = struct{}{}
		}
	}
	e.Links = keysSorted(links)
	e.Sources = keysSorted(sources)
}

func (e *Event) computeKeywords() {
	counts := map[string]int{}
	for _, c := range e.Children {
		for _, k := range c.Keywords {
			counts[k]++
		}
	}
	type kv struct {
		k string
		n int
	}
	list := make([]kv, 0, len(counts))
	for k, n := range counts {
		list = append(list, kv{k, n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].n != list[j].n {
			return list[i].n > list[j].n
		}
		return list[i].k < list[j].k
	})
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.k
	}
	e.Keywords = out
}

func keysSorted(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Witnesses returns crowdsourced children that arrived within 10 minutes of
// the event's origin time (§3).
func (e *Event) Witnesses() []Report {
	var out []Report
	for _, c := range e.Children {
		if !c.Crowdsourced() {
			continue
		}
		if abs(c.Update.Sub(e.Time).Seconds()) <= 600 {
			out = append(out, c)
		}
	}
	return out
}

// Warners returns the subset of Witnesses whose update timestamp precedes
// shear-wave arrival at the event's radius (early-warning evidence, §3).
func (e *Event) Warners(travel TravelTimeFunc) []Report {
	var out []Report
	shearSeconds := travel(e.Coords.DepthKm(), e.Coords.RadiusKm)
	deadline := e.Time.Add(time.Duration(shearSeconds) * time.Second)
	for _, w := range e.Witnesses() {
		if w.Update.Before(deadline) {
			out = append(out, w)
		}
	}
	return out
}

// Confidence sums Best's confidences, clipped to the count of Best (§8
// invariant: e.confidence <= |e.best|).
func (e *Event) Confidence() float64 {
	sum := 0.0
	for _, b := range e.Best {
		sum += b.Confidence()
	}
	if sum > float64(len(e.Best)) {
		sum = float64(len(e.Best))
	}
	return sum
}
