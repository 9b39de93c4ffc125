package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/quakewatch/quakewatch/internal/parser"
	"github.com/quakewatch/quakewatch/internal/slowdown"
)

// httpFetchLimiter is a process-wide token bucket all HTTP pollers draw
// from before issuing a request, a second layer of backpressure above the
// per-adapter period/limit controls in poll.go.
var httpFetchLimiter = rate.NewLimiter(rate.Limit(1), 2)

// NewHTTPFactory returns a Factory that builds a poll-based Receiver for
// HTTP(S) resources, sharing the global slowdown factor every polling
// adapter reads its backoff multiplier from.
func NewHTTPFactory(sf *slowdown.Factor) Factory {
	return func(resource string, dispatcher *parser.Dispatcher) Receiver {
		fetch := func(ctx context.Context) ([]byte, error) {
			if err := httpFetchLimiter.Wait(ctx); err != nil {
				return nil, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
			if err != nil {
				return nil, err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("adapter: unexpected status %d fetching %s", resp.StatusCode, resource)
			}
			return io.ReadAll(resp.Body)
		}
		return NewPollAdapter(resource, fetch, dispatcher, sf)
	}
}

// NewWebSocketFactory returns a Factory that dials resource as a
// WebSocket feed on first Run, wrapping connection failures into a
// Receiver whose Run simply returns the dial error.
func NewWebSocketFactory() Factory {
	return func(resource string, dispatcher *parser.Dispatcher) Receiver {
		return &lazyWebSocketReceiver{resource: resource, dispatcher: dispatcher}
	}
}

// lazyWebSocketReceiver defers dialing until Run so construction (and
// therefore Registry.Build) never blocks on network I/O.
type lazyWebSocketReceiver struct {
	runningFlag
	resource   string
	dispatcher *parser.Dispatcher
	inner      *StreamAdapter
}

func (r *lazyWebSocketReceiver) Name() string                 { return r.resource }
func (r *lazyWebSocketReceiver) Accepts(resource string) bool { return false }

func (r *lazyWebSocketReceiver) Run(ctx context.Context, out chan<- Emission) error {
	source, err := DialWebSocketSource(r.resource)
	if err != nil {
		return fmt.Errorf("adapter: dialing %s: %w", r.resource, err)
	}
	r.inner = NewStreamAdapter(r.resource, source, r.dispatcher, nil)
	r.set(true)
	defer r.set(false)
	return r.inner.Run(ctx, out)
}

func (r *lazyWebSocketReceiver) Running() bool {
	if r.inner != nil {
		return r.inner.Running()
	}
	return r.runningFlag.Running()
}
