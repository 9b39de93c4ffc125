// Package adapter implements the source-ingestion layer of §4.1: an
// accepts-probe registry picks a Receiver for each configured resource
// URI, and polling/streaming Receiver implementations feed parsed reports
// onto the fusion channel.
package adapter

import (
	"context"
	"sync/atomic"

	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/parser"
)

// Receiver is one source adapter: something that knows how to accept a
// resource descriptor and, once started, emit reports onto out until ctx
// is cancelled.
type Receiver interface {
	// Accepts probes whether this Receiver kind handles resource. Probes
	// run in the priority order Registry enforces; the first accepting
	// Receiver wins.
	Accepts(resource string) bool
	// Name identifies the adapter instance for logs and metrics.
	Name() string
	// Run starts the adapter's fetch loop. It must return when ctx is
	// cancelled, after draining any in-flight work.
	Run(ctx context.Context, out chan<- Emission) error
	// Running reports the adapter's current lifecycle bit (§4.1 "shared
	// obligations").
	Running() bool
}

// Emission is what every adapter puts on the fusion channel: a parsed
// report tagged with the adapter name that produced it.
type Emission struct {
	Report  models.Report
	Adapter string
}

// Factory builds a Receiver for a resource once a Registry has matched it
// to a kind.
type Factory func(resource string, dispatcher *parser.Dispatcher) Receiver

// runningFlag is a tiny atomic-bool helper every concrete Receiver embeds
// so Running() is race-free without a dedicated mutex.
type runningFlag struct {
	bit atomic.Bool
}

func (r *runningFlag) set(v bool)   { r.bit.Store(v) }
func (r *runningFlag) Running() bool { return r.bit.Load() }
