package request

import (
	"context"
	"sync"
)

// Coordinator tracks cancellable in-flight operations by request id.
//
// Each async operation registers its context cancel function under a
// fresh request id. Entries are removed both on natural completion and
// on cancellation, so the tracked set always reflects what is actually
// in flight. CancelAll is deliberately coarse: tab switches cancel every
// outstanding request process-wide.
type Coordinator struct {
	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		inflight: make(map[string]context.CancelFunc),
	}
}

// Track derives a cancellable context from parent and registers it
// under the given request id. The returned context is what the async
// operation should carry.
func (c *Coordinator) Track(parent context.Context, requestID string) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c.Register(requestID, cancel)
	return ctx
}

// Register stores a cancel handle for an in-flight request.
func (c *Coordinator) Register(requestID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[requestID] = cancel
}

// Complete removes a request that resolved naturally. The cancel
// function is still invoked to release the context's resources.
func (c *Coordinator) Complete(requestID string) {
	c.mu.Lock()
	cancel, ok := c.inflight[requestID]
	if ok {
		delete(c.inflight, requestID)
	}
	c.mu.Unlock()

	if ok {
		cancel()
	}
}

// Cancel aborts one tracked request. Unknown ids are a no-op.
func (c *Coordinator) Cancel(requestID string) bool {
	c.mu.Lock()
	cancel, ok := c.inflight[requestID]
	if ok {
		delete(c.inflight, requestID)
	}
	c.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// CancelAll aborts every tracked request and returns how many were
// cancelled. Used on tab switch.
func (c *Coordinator) CancelAll() int {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for id, cancel := range c.inflight {
		cancels = append(cancels, cancel)
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Len returns the number of currently tracked requests.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
