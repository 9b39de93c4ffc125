// Package travel provides the shear-wave travel-time oracle (§6). Travel
// times are treated as external inputs or crude heuristics per the
// project's explicit non-goal of accurate physical modeling — this is not
// a seismological simulator.
package travel

import (
	"math"
	"sync"
)

// Oracle estimates shear-wave arrival time in seconds for a hypocenter at
// depthKm and a surface point distanceKm away. urgent requests a faster,
// less precise estimate suitable for early-warning deadlines.
type Oracle interface {
	Travel(depthKm, distanceKm float64, urgent bool) float64
}

// shearVelocityKmS is a flat crustal shear-wave speed used by the crude
// estimator; real regional velocity models are out of scope.
const shearVelocityKmS = 3.5

// CrudeOracle computes straight-line hypocentral distance and divides by a
// fixed shear-wave velocity. A negative depth is clamped to zero.
type CrudeOracle struct{}

func (CrudeOracle) Travel(depthKm, distanceKm float64, urgent bool) float64 {
	if depthKm < 0 {
		depthKm = 0
	}
	hypocentral := math.Hypot(depthKm, distanceKm)
	return hypocentral / shearVelocityKmS
}

// Memoized wraps an Oracle with the rounding the spec requires before
// lookup (depth to 10km, distance to 1km) and caches results, since the
// fusion engine and notice classifier call Travel at high frequency for
// the same handful of depth/distance buckets.
type Memoized struct {
	inner Oracle

	mu    sync.Mutex
	cache map[cacheKey]float64
}

type cacheKey struct {
	depth    float64
	distance float64
	urgent   bool
}

func NewMemoized(inner Oracle) *Memoized {
	return &Memoized{inner: inner, cache: make(map[cacheKey]float64)}
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

func (m *Memoized) Travel(depthKm, distanceKm float64, urgent bool) float64 {
	if depthKm < 0 {
		depthKm = 0
	}
	key := cacheKey{
		depth:    roundTo(depthKm, 10),
		distance: roundTo(distanceKm, 1),
		urgent:   urgent,
	}

	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v := m.inner.Travel(key.depth, key.distance, urgent)

	m.mu.Lock()
	m.cache[key] = v
	m.mu.Unlock()
	return v
}

// Func adapts an Oracle to the models.TravelTimeFunc shape (depth, distance)
// used internally by fusion/notice/domainmatch, pinning urgent=false.
func Func(o Oracle) func(depthKm, distanceKm float64) float64 {
	return func(depthKm, distanceKm float64) float64 {
		return o.Travel(depthKm, distanceKm, false)
	}
}
