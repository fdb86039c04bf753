// Package stream provides live distribution of fired alert events to any
// number of concurrently connected subscribers.
package stream

import (
	"sync"
	"time"

	"daily-tracker/internal/models"
)

// HubConfig holds configuration for the alert hub.
type HubConfig struct {
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SubscriberBufferSize: 16,
	}
}

// Hub fans alert events out to all current subscribers. Delivery is
// at-most-once: there is no replay for late subscribers, and a subscriber
// whose buffer is full misses the event rather than blocking the publisher.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}

	// Metrics
	published uint64
	delivered uint64
	dropped   uint64
}

// Subscriber represents one long-lived streaming connection.
type Subscriber struct {
	Channel   chan models.AlertEvent
	CreatedAt time.Time
}

// NewHub creates a new alert hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new alert hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its channel together
// with an unsubscribe function. Unsubscribe is idempotent and must be
// called when the underlying connection closes.
func (h *Hub) Subscribe() (<-chan models.AlertEvent, func()) {
	sub := &Subscriber{
		Channel:   make(chan models.AlertEvent, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
			close(sub.Channel)
		})
	}
	return sub.Channel, unsubscribe
}

// Publish delivers an event to every current subscriber without blocking.
func (h *Hub) Publish(event models.AlertEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++
	for sub := range h.subscribers {
		select {
		case sub.Channel <- event:
			h.delivered++
		default:
			h.dropped++
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns publish/deliver/drop counters.
func (h *Hub) Stats() (published, delivered, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.published, h.delivered, h.dropped
}
