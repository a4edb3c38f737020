package conversation

import (
	"sync"
	"time"

	"github.com/procheck/sessiond/internal/shared/id"
	"github.com/procheck/sessiond/internal/shared/types"
)

// Tracker manages per-message status transitions and the failed-index.
//
// It owns the ordered message history of every chat tab, keyed by tab
// id. All status changes go through the transition guard on
// types.Status; illegal transitions (such as sent back to pending) are
// rejected rather than applied. A failed message stays in the
// failed-index until it is retried successfully or its owning tab is
// discarded, so no message is silently lost.
type Tracker struct {
	mu        sync.RWMutex
	histories map[string][]types.Message
	failed    map[string]string // message id -> owning tab id
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		histories: make(map[string][]types.Message),
		failed:    make(map[string]string),
	}
}

// NewUserMessage builds a pending user message with a fresh id and an
// ISO-8601 timestamp.
func NewUserMessage(content string) types.Message {
	return types.Message{
		ID:        string(id.NewMessageID()),
		Type:      types.MessageUser,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    types.StatusPending,
	}
}

// NewAssistantMessage builds a message from a resolved reply. Assistant
// arrivals are created already sent.
func NewAssistantMessage(reply *types.Reply) types.Message {
	return types.Message{
		ID:                string(id.NewMessageID()),
		Type:              types.MessageAssistant,
		Content:           reply.Content,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ProtocolData:      reply.ProtocolData,
		FollowUpQuestions: reply.FollowUpQuestions,
		Status:            types.StatusSent,
	}
}

// Append adds a message to a tab's history. Messages without an
// explicit status default by author: user messages start pending,
// assistant messages arrive sent.
func (t *Tracker) Append(tabID string, msg types.Message) {
	if msg.Status == "" {
		if msg.Type == types.MessageAssistant {
			msg.Status = types.StatusSent
		} else {
			msg.Status = types.StatusPending
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.histories[tabID] = append(t.histories[tabID], msg)
}

// Replace swaps a tab's entire history, used when populating a tab from
// cache or a remote load.
func (t *Tracker) Replace(tabID string, messages []types.Message) {
	stored := make([]types.Message, len(messages))
	copy(stored, messages)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Drop failed-index entries that pointed into the old history
	for msgID, owner := range t.failed {
		if owner == tabID {
			delete(t.failed, msgID)
		}
	}
	t.histories[tabID] = stored

	for _, msg := range stored {
		if msg.Status == types.StatusFailed {
			t.failed[msg.ID] = tabID
		}
	}
}

// History returns a copy of a tab's ordered messages.
func (t *Tracker) History(tabID string) []types.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	messages := t.histories[tabID]
	out := make([]types.Message, len(messages))
	copy(out, messages)
	return out
}

// Update merges field updates into a message. A status change that the
// transition guard rejects leaves the whole message untouched and
// returns false. Unknown tab or message ids are a silent no-op.
type Update struct {
	Content           *string
	Error             *string
	Status            *types.Status
	ProtocolData      *types.ProtocolData
	FollowUpQuestions []string
}

// Apply merges an update into the addressed message.
func (t *Tracker) Apply(tabID, messageID string, update Update) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(tabID, messageID)
	if msg == nil {
		return false
	}

	if update.Status != nil {
		if !msg.Status.CanTransition(*update.Status) {
			return false
		}
		t.transition(msg, tabID, *update.Status)
	}
	if update.Content != nil {
		msg.Content = *update.Content
	}
	if update.Error != nil {
		msg.Error = *update.Error
	}
	if update.ProtocolData != nil {
		msg.ProtocolData = update.ProtocolData
	}
	if update.FollowUpQuestions != nil {
		msg.FollowUpQuestions = update.FollowUpQuestions
	}
	return true
}

// MarkSent resolves a message. Sent is terminal; the failed-index entry
// is cleared if present.
func (t *Tracker) MarkSent(tabID, messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(tabID, messageID)
	if msg == nil || !msg.Status.CanTransition(types.StatusSent) {
		return false
	}

	t.transition(msg, tabID, types.StatusSent)
	msg.Error = ""
	return true
}

// MarkFailed records a delivery failure and indexes the message for
// retry.
func (t *Tracker) MarkFailed(tabID, messageID, errMsg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := t.find(tabID, messageID)
	if msg == nil || !msg.Status.CanTransition(types.StatusFailed) {
		return false
	}

	t.transition(msg, tabID, types.StatusFailed)
	msg.Error = errMsg
	return true
}

// MarkRetrying moves a failed message into retrying and increments its
// retry count. Only messages present in the failed-index qualify; the
// original content is returned for re-submission. There is no retry
// cap.
func (t *Tracker) MarkRetrying(messageID string) (tabID, content string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tabID, indexed := t.failed[messageID]
	if !indexed {
		return "", "", false
	}

	msg := t.find(tabID, messageID)
	if msg == nil || !msg.Status.CanTransition(types.StatusRetrying) {
		return "", "", false
	}

	msg.Status = types.StatusRetrying
	msg.RetryCount++
	return tabID, msg.Content, true
}

// InFailedIndex reports whether a message is awaiting retry.
func (t *Tracker) InFailedIndex(messageID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.failed[messageID]
	return ok
}

// FailedCount returns the size of the failed-index.
func (t *Tracker) FailedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.failed)
}

// Owner returns the tab owning a message, searching the failed-index
// first and falling back to a history scan.
func (t *Tracker) Owner(messageID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if tabID, ok := t.failed[messageID]; ok {
		return tabID, true
	}
	for tabID, messages := range t.histories {
		for i := range messages {
			if messages[i].ID == messageID {
				return tabID, true
			}
		}
	}
	return "", false
}

// Discard drops a tab's history and any failed-index entries that
// belonged to it. Messages are only ever removed this way, never
// individually.
func (t *Tracker) Discard(tabID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.histories, tabID)
	for msgID, owner := range t.failed {
		if owner == tabID {
			delete(t.failed, msgID)
		}
	}
}

// DiscardAll resets the tracker, used by close-all.
func (t *Tracker) DiscardAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.histories = make(map[string][]types.Message)
	t.failed = make(map[string]string)
}

// find returns a pointer into the live history. Callers must hold mu.
func (t *Tracker) find(tabID, messageID string) *types.Message {
	messages := t.histories[tabID]
	for i := range messages {
		if messages[i].ID == messageID {
			return &messages[i]
		}
	}
	return nil
}

// transition applies a guarded status change and keeps the failed-index
// consistent. Callers must hold mu and have checked CanTransition.
func (t *Tracker) transition(msg *types.Message, tabID string, to types.Status) {
	msg.Status = to

	switch to {
	case types.StatusFailed:
		t.failed[msg.ID] = tabID
	case types.StatusSent:
		delete(t.failed, msg.ID)
	}
}
