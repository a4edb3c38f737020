package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/procheck/sessiond/internal/gateway"
	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
	"github.com/procheck/sessiond/internal/shared/types"
)

// DefaultDebounce is how long a conversation must sit idle before its
// pending edit is flushed to the store.
const DefaultDebounce = 2 * time.Second

// RecordFunc produces the current record for a tab's conversation at
// flush time, so a burst of edits serializes once, with final state.
type RecordFunc func() *types.ConversationRecord

// Saver debounces conversation persistence per tab. Each edit restarts
// that tab's timer; only the trailing edit in a burst reaches the
// store. Failures are logged and counted, never surfaced to the user.
type Saver struct {
	store    gateway.Store
	userID   string
	debounce time.Duration
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu     sync.Mutex
	timers map[string]*saveTimer
}

type saveTimer struct {
	timer *time.Timer
	build RecordFunc
}

// NewSaver creates a saver writing through the given store.
func NewSaver(store gateway.Store, userID string, debounce time.Duration, logger *logging.Logger, metrics *monitoring.Metrics) *Saver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Saver{
		store:    store,
		userID:   userID,
		debounce: debounce,
		logger:   logger,
		metrics:  metrics,
		timers:   make(map[string]*saveTimer),
	}
}

// Schedule arms (or re-arms) the debounce timer for a tab. The build
// function runs when the timer fires, not now.
func (s *Saver) Schedule(tabID string, build RecordFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[tabID]; ok {
		existing.timer.Stop()
	}

	st := &saveTimer{build: build}
	st.timer = time.AfterFunc(s.debounce, func() {
		s.fire(tabID)
	})
	s.timers[tabID] = st
}

// Cancel drops any pending save for a tab without flushing it. Used
// when the tab is discarded and its conversation should not outlive it.
func (s *Saver) Cancel(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.timers[tabID]; ok {
		st.timer.Stop()
		delete(s.timers, tabID)
	}
}

// SaveNow persists a record immediately, bypassing the debounce. Still
// fire-and-forget: the caller never waits on the store.
func (s *Saver) SaveNow(record *types.ConversationRecord) {
	go s.persist(record)
}

// Flush synchronously persists every pending save. Called at shutdown
// so trailing edits are not lost.
func (s *Saver) Flush() {
	s.mu.Lock()
	pending := make([]*saveTimer, 0, len(s.timers))
	for tabID, st := range s.timers {
		// Stop may report false when the timer already fired but its
		// callback is still waiting on the lock. The entry is removed
		// here either way, so the callback finds nothing and the save
		// happens exactly once, below.
		st.timer.Stop()
		pending = append(pending, st)
		delete(s.timers, tabID)
	}
	s.mu.Unlock()

	for _, st := range pending {
		if record := st.build(); record != nil {
			s.persist(record)
		}
	}
}

// Pending returns the number of armed timers.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Saver) fire(tabID string) {
	s.mu.Lock()
	st, ok := s.timers[tabID]
	if ok {
		delete(s.timers, tabID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if record := st.build(); record != nil {
		s.persist(record)
	}
}

// persist writes one record through the store. No deadline: like the
// rest of the service, cancellation is context driven, never wall
// clock, and the caller never waits on this.
func (s *Saver) persist(record *types.ConversationRecord) {
	ctx := context.Background()

	if s.metrics != nil {
		s.metrics.SavesTotal.Inc()
	}

	if err := s.store.SaveConversation(ctx, s.userID, record); err != nil {
		if s.metrics != nil {
			s.metrics.SaveFailures.Inc()
		}
		s.logger.Warn("conversation save failed",
			zap.String("conversation_id", record.ID),
			zap.Error(err))
		return
	}

	s.logger.Debug("conversation saved",
		zap.String("conversation_id", record.ID),
		zap.Int("messages", len(record.Messages)))
}
