// Package hub fans a stream of notices out to subscribers, each with its
// own bounded channel. Adapted from a gRPC broadcaster pattern: a
// subscriber-channel map guarded by a single RWMutex, publish drops on a
// full channel rather than blocking the publisher.
package hub

import (
	"log/slog"
	"sync"

	"github.com/quakewatch/quakewatch/internal/models"
)

const subscriberBuffer = 32

// Hub fans out notices to any number of registered subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan *models.Notice
}

func New() *Hub {
	return &Hub{subs: make(map[string]chan *models.Notice)}
}

// Subscribe registers id and returns the channel it will receive notices
// on. Calling Subscribe again with the same id replaces the old channel.
func (h *Hub) Subscribe(id string) <-chan *models.Notice {
	ch := make(chan *models.Notice, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes id and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Publish sends n to every subscriber, dropping it for any subscriber
// whose channel is currently full rather than blocking.
func (h *Hub) Publish(n *models.Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			slog.Warn("hub: dropping notice for slow subscriber", "subscriber", id, "event_id", n.Event.ID)
		}
	}
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
