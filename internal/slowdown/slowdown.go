// Package slowdown holds the process-wide backpressure factor shared by
// adapters, the fusion engine, and the monitor (§5). It is a single atomic
// float so every reader sees the latest value without a lock.
package slowdown

import (
	"math"
	"sync/atomic"
)

// Factor is an atomic multiplier, starting at 1.0 (no slowdown). Adapters
// multiply their target poll period by Factor.Load() and divide their
// per-cycle item limit by the same value.
type Factor struct {
	bits atomic.Uint64
}

// New returns a Factor initialized to 1.0.
func New() *Factor {
	f := &Factor{}
	f.Store(1.0)
	return f
}

func (f *Factor) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *Factor) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// WarnDelay multiplies the factor by 1+delaySeconds/600, the fusion
// engine's throughput-guard reaction to end-to-end delay over 60s.
func (f *Factor) WarnDelay(delaySeconds float64) {
	for {
		old := f.bits.Load()
		oldV := math.Float64frombits(old)
		newV := oldV * (1 + delaySeconds/600)
		if f.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

// Decay multiplies the factor by 0.8, pulling it back toward 1.0 once
// delay drops under 10s.
func (f *Factor) Decay() {
	for {
		old := f.bits.Load()
		oldV := math.Float64frombits(old)
		newV := oldV * 0.8
		if newV < 1.0 {
			newV = 1.0
		}
		if f.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

// ShouldRestart reports whether delaySeconds has crossed the fatal
// threshold the fusion engine uses to request a process restart.
func ShouldRestart(delaySeconds float64) bool {
	return delaySeconds > 64
}
