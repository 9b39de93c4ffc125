package adapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/quakewatch/quakewatch/internal/parser"
)

const (
	streamInputHighWater  = 32
	streamOutputHighWater = 20
	streamRateLimitCooldown = 10 * time.Minute
)

// rateLimitCodes are source status codes the streaming contract treats as
// "back off and reconnect", per §4.1.
var rateLimitCodes = map[int]bool{420: true, 429: true, 406: true, 88: true}

// IsRateLimitCode reports whether code signals a source-side rate limit.
func IsRateLimitCode(code int) bool { return rateLimitCodes[code] }

// StreamSource is a push-based transport: it delivers raw payloads on a
// channel and reports a non-zero status code out-of-band (e.g. a closed
// WebSocket frame with an HTTP-like close code) via codes.
type StreamSource interface {
	Messages() <-chan []byte
	Codes() <-chan int
	Close() error
}

// IsFriend classifies a payload as worth keeping under backpressure (the
// "friend" items the contract exempts from dropping).
type IsFriend func(payload []byte) bool

// StreamAdapter consumes a StreamSource, backpressuring by dropping
// non-friend items once queues run hot, and self-suspending on rate-limit
// signals.
type StreamAdapter struct {
	runningFlag

	name       string
	source     StreamSource
	dispatcher *parser.Dispatcher
	isFriend   IsFriend
}

func NewStreamAdapter(name string, source StreamSource, dispatcher *parser.Dispatcher, isFriend IsFriend) *StreamAdapter {
	if isFriend == nil {
		isFriend = func([]byte) bool { return false }
	}
	return &StreamAdapter{name: name, source: source, dispatcher: dispatcher, isFriend: isFriend}
}

func (s *StreamAdapter) Name() string               { return s.name }
func (s *StreamAdapter) Accepts(resource string) bool { return false }

func (s *StreamAdapter) Run(ctx context.Context, out chan<- Emission) error {
	s.set(true)
	defer s.set(false)

	inputDepth := 0
	outputDepth := len(out)

	for {
		select {
		case <-ctx.Done():
			return s.source.Close()
		case code, ok := <-s.source.Codes():
			if !ok {
				continue
			}
			if IsRateLimitCode(code) {
				slog.Warn("adapter: stream rate-limited, cooling off", "adapter", s.name, "code", code)
				select {
				case <-time.After(streamRateLimitCooldown):
				case <-ctx.Done():
					return s.source.Close()
				}
			}
		case payload, ok := <-s.source.Messages():
			if !ok {
				return nil
			}
			inputDepth++
			outputDepth = len(out)

			if (inputDepth > streamInputHighWater || outputDepth > streamOutputHighWater) && !s.isFriend(payload) {
				slog.Debug("adapter: dropping non-friend item under backpressure", "adapter", s.name)
				inputDepth--
				continue
			}

			reports, err := s.dispatcher.Dispatch(payload, parser.Meta{Adapter: s.name, FetchedAt: time.Now()})
			inputDepth--
			if err != nil {
				continue
			}

			for _, report := range reports {
				select {
				case out <- Emission{Report: report, Adapter: s.name}:
				case <-ctx.Done():
					return s.source.Close()
				}
			}
		}
	}
}
