package signal

import (
	"sync"
)

// Well-known topics. Each has a documented payload schema; see the types in
// the dispatcher and call services that produce them.
const (
	TopicNotificationReceived = "notification.received"
	TopicNotificationOpened   = "notification.opened"
	TopicCallAnswered         = "call.answered"
	TopicCallDeclined         = "call.declined"
	TopicCallEnded            = "call.ended"
)

// Event is one fire-and-forget signal published on a topic.
type Event struct {
	Topic string
	Data  interface{}
}

// Hub fans signals out to in-process subscribers. Publishing never blocks and
// consumes no return value; a subscriber that cannot keep up misses events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new signal Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber for a topic and returns the event channel
// and a cleanup function. Subscribing to the empty topic receives everything.
func (h *Hub) Subscribe(topic string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[topic], ch)
		close(ch)
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
	}

	return ch, cleanup
}

// Emit sends an event to every subscriber of its topic and to wildcard
// subscribers.
func (h *Hub) Emit(topic string, data interface{}) {
	event := Event{Topic: topic, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range []map[chan Event]struct{}{h.subscribers[topic], h.subscribers[""]} {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				// Skip if channel is full (non-blocking to prevent deadlock)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[topic]; ok {
		return len(subs)
	}
	return 0
}

// TotalSubscribers returns the number of subscribers across all topics. The
// dispatcher uses a non-zero count as "the UI runtime is attached".
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
