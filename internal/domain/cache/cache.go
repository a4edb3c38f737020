package cache

import (
	"sync"

	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
	"github.com/procheck/sessiond/internal/shared/types"
)

// DefaultCapacity bounds the number of cached conversations.
const DefaultCapacity = 20

// Conversations is a bounded conversation-id to message-list store used
// to skip remote reloads when reopening a saved conversation.
//
// Eviction is insertion-order FIFO: when an insert pushes the store past
// capacity, the oldest-inserted key is dropped. Reads and overwrites do
// not refresh a key's position. This approximates recency eviction
// without tracking access order.
type Conversations struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]types.Message
	order    []string // insertion order, oldest first
	metrics  *monitoring.Metrics
}

// New creates a conversation cache with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Conversations {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Conversations{
		capacity: capacity,
		entries:  make(map[string][]types.Message),
		order:    make([]string, 0, capacity),
	}
}

// WithMetrics adds metrics tracking to the cache
func (c *Conversations) WithMetrics(metrics *monitoring.Metrics) *Conversations {
	c.metrics = metrics
	return c
}

// Get returns the cached messages for a conversation, if present.
// A miss is not an error; callers fall through to a remote load.
func (c *Conversations) Get(conversationID string) ([]types.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages, ok := c.entries[conversationID]
	if c.metrics != nil {
		if ok {
			c.metrics.CacheHits.Inc()
		} else {
			c.metrics.CacheMisses.Inc()
		}
	}
	if !ok {
		return nil, false
	}

	// Return a copy so callers cannot mutate cached state
	out := make([]types.Message, len(messages))
	copy(out, messages)
	return out, true
}

// Put inserts or overwrites a conversation's messages. Inserting a new
// key beyond capacity evicts exactly one entry, the oldest-inserted key.
func (c *Conversations) Put(conversationID string, messages []types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]types.Message, len(messages))
	copy(stored, messages)

	if _, exists := c.entries[conversationID]; exists {
		// Overwrite keeps the key's original insertion position
		c.entries[conversationID] = stored
		return
	}

	c.entries[conversationID] = stored
	c.order = append(c.order, conversationID)

	if len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		if c.metrics != nil {
			c.metrics.CacheEvictions.Inc()
		}
	}
}

// Remove explicitly evicts a conversation, used when the underlying
// conversation is deleted remotely so stale data is never served.
func (c *Conversations) Remove(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[conversationID]; !exists {
		return
	}

	delete(c.entries, conversationID)
	for i, key := range c.order {
		if key == conversationID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the current number of cached conversations.
func (c *Conversations) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Capacity returns the configured capacity.
func (c *Conversations) Capacity() int {
	return c.capacity
}
