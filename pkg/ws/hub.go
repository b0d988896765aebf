package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Event is a message fanned out to all live subscribers.
type Event struct {
	Provider string      `json:"provider"`
	Type     string      `json:"type"`
	CallID   string      `json:"call_id,omitempty"`
	AgentID  string      `json:"agent_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

const subscriberBuffer = 32

// Hub fans webhook events out to WebSocket subscribers. A subscriber that
// stops draining its channel is dropped rather than blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber channel. The caller must call the
// returned cancel function when done.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. Slow
// subscribers with a full buffer are disconnected.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			delete(h.subscribers, ch)
			close(ch)
			h.logger.Warn("Dropped slow WebSocket subscriber",
				zap.String("event_type", event.Type),
			)
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
