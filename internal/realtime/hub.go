// Package realtime fans committed record changes out to connected observers.
//
// Delivery is at-most-once: no replay, no persistence, no acknowledgement.
// An observer that reconnects refetches the full record list.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"codefolio/internal/domain/models"
)

// DefaultBufferSize is the per-subscriber queue length.
const DefaultBufferSize = 64

// Publisher accepts change events after a commit. Publish must not block.
type Publisher interface {
	Publish(events ...models.ChangeEvent)
}

// Subscription is one observer's queue.
type Subscription struct {
	ID     string
	events chan models.ChangeEvent
}

// Events yields queued events. The channel closes on Unsubscribe or Hub.Close.
func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.events
}

// Hub is the in-process broadcaster.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	closed bool
	logger *slog.Logger
}

// NewHub creates a hub whose subscribers queue up to buffer events.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new observer. After Close, the returned
// subscription is already closed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:     uuid.New().String(),
		events: make(chan models.ChangeEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.events)
		return sub
	}
	h.subs[sub.ID] = sub
	h.logger.Debug("observer subscribed", "subscriber_id", sub.ID, "subscribers", len(h.subs))
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.events)
	h.logger.Debug("observer unsubscribed", "subscriber_id", sub.ID, "subscribers", len(h.subs))
}

// Publish queues events for every subscriber without blocking. A subscriber
// whose queue is full misses the event.
func (h *Hub) Publish(events ...models.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		for _, event := range events {
			select {
			case sub.events <- event:
			default:
				h.logger.Debug("dropped event for slow observer",
					"subscriber_id", sub.ID,
					"type", event.Type,
					"record_id", event.ID,
				)
			}
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe calls get a closed queue.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.events)
		delete(h.subs, id)
	}
}

var _ Publisher = (*Hub)(nil)
