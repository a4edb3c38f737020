package events

import "sync"

// Type enumerates workspace event kinds
type Type string

const (
	TabCreated    Type = "tab_created"
	TabClosed     Type = "tab_closed"
	TabActivated  Type = "tab_activated"
	TabUpdated    Type = "tab_updated"
	MessageAdded  Type = "message_added"
	MessageStatus Type = "message_status"
)

// Event is a single workspace state change pushed to subscribers
type Event struct {
	Type      Type   `json:"type"`
	TabID     string `json:"tab_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Bus is an explicit publish/subscribe channel for workspace events,
// replacing ambient global callback registration. Publishing never
// blocks: a subscriber that falls behind loses events rather than
// stalling the dispatch path.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a listener and returns its channel plus an
// unsubscribe function. The channel is buffered; it is closed on
// unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan Event, 64)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block dispatch
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
