package tabs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/procheck/sessiond/internal/domain/cache"
	"github.com/procheck/sessiond/internal/domain/conversation"
	"github.com/procheck/sessiond/internal/domain/request"
	"github.com/procheck/sessiond/internal/domain/session"
	"github.com/procheck/sessiond/internal/events"
	"github.com/procheck/sessiond/internal/gateway"
	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
	"github.com/procheck/sessiond/internal/shared/id"
	"github.com/procheck/sessiond/internal/shared/types"
)

// DefaultTabTitle is the title of a synthesized chat tab.
const DefaultTabTitle = "New Chat"

// Config wires the manager's collaborators. Sender and Store are
// required; everything else gets a working default.
type Config struct {
	Sender  gateway.Sender
	Store   gateway.Store
	Saver   *session.Saver
	Layout  *session.LayoutStore
	Cache   *cache.Conversations
	Bus     *events.Bus
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	UserID  string
}

// Manager owns the ordered tab list and the active-tab pointer, and
// dispatches every user action: send, retry, switch, close, open a
// saved conversation.
//
// All mutations serialize through one mutex, so logically concurrent
// actions never race on shared state. Async operations (sends, remote
// loads) run in goroutines carrying coordinator-tracked contexts;
// their completions re-enter through the same mutex and apply in
// resolution order. A completion whose context was cancelled in the
// meantime is dropped before it touches any state.
type Manager struct {
	mu     sync.Mutex
	tabs   []*types.Tab
	active string

	tracker  *conversation.Tracker
	requests *request.Coordinator
	cache    *cache.Conversations
	saver    *session.Saver
	layout   *session.LayoutStore
	store    gateway.Store
	sender   gateway.Sender
	bus      *events.Bus
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	userID   string

	baseCtx context.Context
}

// NewManager creates a manager with one default chat tab, so the tab
// set is never empty.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New(cache.DefaultCapacity)
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}
	if cfg.UserID == "" {
		cfg.UserID = "local"
	}

	m := &Manager{
		tracker:  conversation.NewTracker(),
		requests: request.NewCoordinator(),
		cache:    cfg.Cache,
		saver:    cfg.Saver,
		layout:   cfg.Layout,
		store:    cfg.Store,
		sender:   cfg.Sender,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		userID:   cfg.UserID,
		baseCtx:  context.Background(),
	}

	m.mu.Lock()
	m.spawnDefaultLocked()
	m.mu.Unlock()
	return m
}

// Restore replaces the current tab set with a persisted layout. Chat
// tab histories come back with it; an empty or absent layout keeps the
// default tab. Called once at startup, before any user action.
func (m *Manager) Restore(layout *types.Layout) {
	if layout == nil || len(layout.Tabs) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.TabsOpen.Add(float64(len(layout.Tabs) - len(m.tabs)))
	}

	m.tabs = m.tabs[:0]
	m.tracker.DiscardAll()

	for i := range layout.Tabs {
		tab := layout.Tabs[i]
		tab.IsLoading = false
		tab.IsTyping = false
		if tab.IsChat() {
			m.tracker.Replace(tab.ID, tab.Messages)
			tab.Messages = m.tracker.History(tab.ID)
		}
		m.tabs = append(m.tabs, &tab)
	}

	m.active = layout.ActiveTabID
	if m.findLocked(m.active) == nil {
		m.active = m.tabs[0].ID
	}

	m.logger.Info("session restored",
		zap.Int("tabs", len(m.tabs)),
		zap.String("active", m.active))
}

// CreateTab allocates a new tab, appends it, and activates it. Chat
// tabs get a fresh conversation id and an empty history.
func (m *Manager) CreateTab(title string, tabType types.TabType) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.newTabLocked(title, tabType)
	m.tabs = append(m.tabs, tab)
	m.active = tab.ID

	if m.metrics != nil {
		m.metrics.TabsOpen.Inc()
		m.metrics.TabsTotal.Inc()
	}
	m.bus.Publish(events.Event{Type: events.TabCreated, TabID: tab.ID})
	m.bus.Publish(events.Event{Type: events.TabActivated, TabID: tab.ID})
	m.persistLayoutLocked()

	return tab.ID
}

// CloseTab removes a tab. A chat tab with content gets a best-effort
// save first. Closing the active tab activates the first remaining
// tab; closing the last tab synthesizes a fresh default.
func (m *Manager) CloseTab(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil {
		return
	}

	if tab.HasContent() {
		m.saveTabLocked(tab)
	}
	m.removeLocked(tabID)
}

// SwitchTab cancels every tracked in-flight request, saves the tab
// being left if it has content, then moves the active pointer.
func (m *Manager) SwitchTab(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.findLocked(tabID)
	if target == nil || tabID == m.active {
		return
	}

	// Coarse by design: cancellation is process-wide, not scoped to
	// the tab being left.
	if n := m.requests.CancelAll(); n > 0 {
		if m.metrics != nil {
			m.metrics.RequestsCanceled.Add(float64(n))
		}
		m.logger.Debug("canceled in-flight requests on switch", zap.Int("count", n))
	}

	if leaving := m.findLocked(m.active); leaving != nil && leaving.HasContent() {
		m.saveTabLocked(leaving)
	}

	m.active = tabID
	m.bus.Publish(events.Event{Type: events.TabActivated, TabID: tabID})
	m.persistLayoutLocked()
}

// UpdateTab shallow-merges fields into a tab. Type-required fields
// cannot be cleared: a nil field in the update leaves the tab's value
// alone. A messages update rewrites the tab's history and schedules a
// debounced save, so rapid successive edits collapse into one write.
func (m *Manager) UpdateTab(tabID string, update types.TabUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil {
		return false
	}

	if update.Title != nil {
		tab.Title = *update.Title
	}
	if update.IsLoading != nil {
		tab.IsLoading = *update.IsLoading
	}
	if update.IsTyping != nil {
		tab.IsTyping = *update.IsTyping
	}
	if update.Messages != nil && tab.IsChat() {
		m.tracker.Replace(tabID, *update.Messages)
		tab.Messages = m.tracker.History(tabID)
		m.scheduleSaveLocked(tab)
	}

	m.bus.Publish(events.Event{Type: events.TabUpdated, TabID: tabID})
	m.persistLayoutLocked()
	return true
}

// CloseAllTabs replaces the whole tab set with one fresh default tab.
// It does not save anything; callers wanting saves do them first.
func (m *Manager) CloseAllTabs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tab := range m.tabs {
		if m.saver != nil {
			m.saver.Cancel(tab.ID)
		}
		if m.metrics != nil {
			m.metrics.TabsOpen.Dec()
		}
		m.bus.Publish(events.Event{Type: events.TabClosed, TabID: tab.ID})
	}
	m.tabs = m.tabs[:0]
	m.tracker.DiscardAll()
	m.requests.CancelAll()

	m.spawnDefaultLocked()
}

// SendMessage appends content optimistically as a pending user message
// on a chat tab, flips the tab into loading, and dispatches the send.
// The message id is returned immediately; resolution arrives async.
func (m *Manager) SendMessage(tabID, content string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil || !tab.IsChat() {
		return "", false
	}

	msg := conversation.NewUserMessage(content)
	m.tracker.Append(tabID, msg)
	tab.Messages = m.tracker.History(tabID)
	tab.IsLoading = true
	tab.IsTyping = true

	if m.metrics != nil {
		m.metrics.MessagesTotal.WithLabelValues(string(types.StatusPending)).Inc()
	}
	m.bus.Publish(events.Event{
		Type:      events.MessageAdded,
		TabID:     tabID,
		MessageID: msg.ID,
		Status:    string(msg.Status),
	})

	m.dispatchSendLocked(tabID, msg.ID, content, false)
	return msg.ID, true
}

// RetryMessage re-submits a failed message. Ids absent from the
// failed-index are a silent no-op: all state is left unchanged.
func (m *Manager) RetryMessage(messageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabID, content, ok := m.tracker.MarkRetrying(messageID)
	if !ok {
		return false
	}

	tab := m.findLocked(tabID)
	if tab == nil {
		return false
	}
	tab.Messages = m.tracker.History(tabID)
	tab.IsLoading = true
	tab.IsTyping = true

	if m.metrics != nil {
		m.metrics.MessageRetries.Inc()
	}
	m.bus.Publish(events.Event{
		Type:      events.MessageStatus,
		TabID:     tabID,
		MessageID: messageID,
		Status:    string(types.StatusRetrying),
	})

	// Retries skip the dialog check: the query already passed it once.
	m.dispatchSendLocked(tabID, messageID, content, true)
	return true
}

// OpenConversation opens a saved conversation in a new provisional
// tab. A cache hit populates it immediately; a miss falls through to
// an async remote load. Returns the new tab's id.
func (m *Manager) OpenConversation(conversationID, title string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if title == "" {
		title = "Loading..."
	}
	tab := &types.Tab{
		ID:             string(id.NewTabID()),
		Title:          title,
		Type:           types.TabChat,
		ConversationID: conversationID,
		IsLoading:      true,
	}
	m.tabs = append(m.tabs, tab)
	m.active = tab.ID

	if m.metrics != nil {
		m.metrics.TabsOpen.Inc()
		m.metrics.TabsTotal.Inc()
	}
	m.bus.Publish(events.Event{Type: events.TabCreated, TabID: tab.ID})
	m.bus.Publish(events.Event{Type: events.TabActivated, TabID: tab.ID})

	if messages, ok := m.cache.Get(conversationID); ok {
		m.populateLocked(tab.ID, messages)
		m.persistLayoutLocked()
		return tab.ID
	}

	requestID := string(id.NewRequestID())
	ctx := m.requests.Track(m.baseCtx, requestID)
	go m.loadRemote(ctx, requestID, tab.ID, conversationID)

	m.persistLayoutLocked()
	return tab.ID
}

// DeleteConversation removes a conversation from durable storage and
// evicts it from the cache so stale data is never served.
func (m *Manager) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := m.store.DeleteConversation(ctx, m.userID, conversationID); err != nil {
		return err
	}
	m.cache.Remove(conversationID)
	return nil
}

// ListConversations returns the user's saved history.
func (m *Manager) ListConversations(ctx context.Context, limit int) ([]types.ConversationSummary, error) {
	return m.store.ListConversations(ctx, m.userID, limit)
}

// RenameConversation updates a saved conversation's title.
func (m *Manager) RenameConversation(ctx context.Context, conversationID, title string) error {
	return m.store.UpdateTitle(ctx, m.userID, conversationID, title)
}

// ActiveTab returns a snapshot of the active tab.
func (m *Manager) ActiveTab() types.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(m.active)
	return m.snapshotLocked(tab)
}

// GetTab returns a snapshot of one tab.
func (m *Manager) GetTab(tabID string) (types.Tab, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil {
		return types.Tab{}, false
	}
	return m.snapshotLocked(tab), true
}

// Tabs returns an ordered snapshot of all tabs.
func (m *Manager) Tabs() []types.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Tab, 0, len(m.tabs))
	for _, tab := range m.tabs {
		out = append(out, m.snapshotLocked(tab))
	}
	return out
}

// Stats returns registry counters.
func (m *Manager) Stats() types.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := types.Stats{TotalTabs: len(m.tabs)}
	for _, tab := range m.tabs {
		if tab.IsChat() {
			stats.ChatTabs++
		}
	}
	if m.active != "" {
		active := m.active
		stats.ActiveTabID = &active
	}
	return stats
}

// InFlight returns the number of tracked async operations.
func (m *Manager) InFlight() int {
	return m.requests.Len()
}

// Shutdown flushes pending saves and the layout snapshot.
func (m *Manager) Shutdown() {
	m.requests.CancelAll()
	if m.saver != nil {
		m.saver.Flush()
	}
	if m.layout != nil {
		m.layout.Close()
	}
}

// ---- internals (callers hold mu unless noted) ----

func (m *Manager) newTabLocked(title string, tabType types.TabType) *types.Tab {
	if title == "" {
		title = DefaultTabTitle
	}
	tab := &types.Tab{
		ID:    string(id.NewTabID()),
		Title: title,
		Type:  tabType,
	}
	if tab.IsChat() {
		tab.ConversationID = string(id.NewConversationID())
		tab.Messages = []types.Message{}
	}
	return tab
}

func (m *Manager) spawnDefaultLocked() {
	tab := m.newTabLocked(DefaultTabTitle, types.TabChat)
	m.tabs = append(m.tabs, tab)
	m.active = tab.ID

	if m.metrics != nil {
		m.metrics.TabsOpen.Inc()
		m.metrics.TabsTotal.Inc()
	}
	m.bus.Publish(events.Event{Type: events.TabCreated, TabID: tab.ID})
	m.bus.Publish(events.Event{Type: events.TabActivated, TabID: tab.ID})
	m.persistLayoutLocked()
}

func (m *Manager) findLocked(tabID string) *types.Tab {
	for _, tab := range m.tabs {
		if tab.ID == tabID {
			return tab
		}
	}
	return nil
}

func (m *Manager) removeLocked(tabID string) {
	idx := -1
	for i, tab := range m.tabs {
		if tab.ID == tabID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	if m.saver != nil {
		// Pending debounced saves die with the tab; the close-time
		// save already carried the final state.
		m.saver.Cancel(tabID)
	}
	m.tracker.Discard(tabID)
	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)

	if m.metrics != nil {
		m.metrics.TabsOpen.Dec()
	}
	m.bus.Publish(events.Event{Type: events.TabClosed, TabID: tabID})

	if len(m.tabs) == 0 {
		m.spawnDefaultLocked()
		return
	}
	if m.active == tabID {
		m.active = m.tabs[0].ID
		m.bus.Publish(events.Event{Type: events.TabActivated, TabID: m.active})
	}
	m.persistLayoutLocked()
}

// saveTabLocked issues one immediate best-effort save carrying the
// tab's full message list.
func (m *Manager) saveTabLocked(tab *types.Tab) {
	if m.saver == nil || !tab.IsChat() {
		return
	}
	m.saver.Cancel(tab.ID)
	m.saver.SaveNow(session.BuildRecord(tab.ConversationID, m.tracker.History(tab.ID)))
}

func (m *Manager) scheduleSaveLocked(tab *types.Tab) {
	if m.saver == nil || !tab.HasContent() {
		return
	}
	tabID, conversationID := tab.ID, tab.ConversationID
	m.saver.Schedule(tabID, func() *types.ConversationRecord {
		m.mu.Lock()
		messages := m.tracker.History(tabID)
		m.mu.Unlock()
		if len(messages) == 0 {
			return nil
		}
		return session.BuildRecord(conversationID, messages)
	})
}

func (m *Manager) persistLayoutLocked() {
	if m.layout == nil {
		return
	}
	snapshot := types.Layout{
		Tabs:        make([]types.Tab, 0, len(m.tabs)),
		ActiveTabID: m.active,
	}
	for _, tab := range m.tabs {
		snapshot.Tabs = append(snapshot.Tabs, m.snapshotLocked(tab))
	}
	m.layout.Save(&snapshot)
}

func (m *Manager) snapshotLocked(tab *types.Tab) types.Tab {
	if tab == nil {
		return types.Tab{}
	}
	out := *tab
	if tab.IsChat() {
		out.Messages = m.tracker.History(tab.ID)
	}
	return out
}

// populateLocked fills a provisional tab with a loaded transcript.
func (m *Manager) populateLocked(tabID string, messages []types.Message) {
	tab := m.findLocked(tabID)
	if tab == nil {
		return
	}
	m.tracker.Replace(tabID, messages)
	tab.Messages = m.tracker.History(tabID)
	tab.IsLoading = false
	if tab.Title == "Loading..." && len(messages) > 0 {
		tab.Title = messages[0].Content
	}
	m.bus.Publish(events.Event{Type: events.TabUpdated, TabID: tabID})
}

// dispatchSendLocked starts the async send for a pending or retrying
// message. The goroutine re-enters through the mutex on resolution.
func (m *Manager) dispatchSendLocked(tabID, messageID, content string, skipDialogCheck bool) {
	requestID := string(id.NewRequestID())
	ctx := m.requests.Track(m.baseCtx, requestID)
	go m.performSend(ctx, requestID, tabID, messageID, content, skipDialogCheck)
}

// performSend runs outside the mutex. A completion whose context was
// cancelled mid-flight is dropped without touching any state, so no
// update from a cancelled request lands after a tab switch.
func (m *Manager) performSend(ctx context.Context, requestID, tabID, messageID, content string, skipDialogCheck bool) {
	start := time.Now()
	reply, err := m.sender.Send(ctx, content, skipDialogCheck)

	if ctx.Err() != nil {
		return
	}
	m.requests.Complete(requestID)

	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil {
		return
	}

	// Loading and typing clear regardless of outcome.
	tab.IsLoading = false
	tab.IsTyping = false

	if err != nil {
		m.tracker.MarkFailed(tabID, messageID, err.Error())
		tab.Messages = m.tracker.History(tabID)

		if m.metrics != nil {
			m.metrics.MessagesTotal.WithLabelValues(string(types.StatusFailed)).Inc()
		}
		m.logger.Warn("send failed",
			zap.String("tab_id", tabID),
			zap.String("message_id", messageID),
			zap.Error(err))
		m.bus.Publish(events.Event{
			Type:      events.MessageStatus,
			TabID:     tabID,
			MessageID: messageID,
			Status:    string(types.StatusFailed),
			Error:     err.Error(),
		})
		m.persistLayoutLocked()
		return
	}

	m.tracker.MarkSent(tabID, messageID)
	assistant := conversation.NewAssistantMessage(reply)
	m.tracker.Append(tabID, assistant)
	tab.Messages = m.tracker.History(tabID)

	if m.metrics != nil {
		m.metrics.MessagesTotal.WithLabelValues(string(types.StatusSent)).Inc()
		m.metrics.SendDuration.Observe(time.Since(start).Seconds())
	}
	m.bus.Publish(events.Event{
		Type:      events.MessageStatus,
		TabID:     tabID,
		MessageID: messageID,
		Status:    string(types.StatusSent),
	})
	m.bus.Publish(events.Event{
		Type:      events.MessageAdded,
		TabID:     tabID,
		MessageID: assistant.ID,
		Status:    string(assistant.Status),
	})

	m.scheduleSaveLocked(tab)
	m.persistLayoutLocked()
}

// loadRemote fetches a conversation transcript for a provisional tab.
// Failures leave the tab usable: loading clears and an inline error
// message lands in the transcript instead of a spinner that never ends.
func (m *Manager) loadRemote(ctx context.Context, requestID, tabID, conversationID string) {
	if m.metrics != nil {
		m.metrics.LoadsTotal.Inc()
	}
	messages, err := m.store.LoadConversation(ctx, m.userID, conversationID)

	if ctx.Err() != nil {
		return
	}
	m.requests.Complete(requestID)

	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.findLocked(tabID)
	if tab == nil {
		return
	}

	if err != nil {
		if m.metrics != nil {
			m.metrics.LoadFailures.Inc()
		}
		m.logger.Warn("conversation load failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))

		tab.IsLoading = false
		m.tracker.Append(tabID, types.Message{
			ID:        string(id.NewMessageID()),
			Type:      types.MessageAssistant,
			Content:   "Could not load this conversation. It may have been deleted, or the server is unreachable.",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Status:    types.StatusSent,
		})
		tab.Messages = m.tracker.History(tabID)
		m.bus.Publish(events.Event{Type: events.TabUpdated, TabID: tabID})
		return
	}

	m.cache.Put(conversationID, messages)
	m.populateLocked(tabID, messages)
	m.persistLayoutLocked()
}
