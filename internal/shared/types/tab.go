package types

// TabType represents the kind of view a tab holds
type TabType string

const (
	TabChat               TabType = "chat"
	TabProtocolIndex      TabType = "protocol-index"
	TabGeneratedProtocols TabType = "generated-protocols"
)

// Tab is one unit of workspace state. Chat tabs own exactly one
// conversation id for their lifetime; view tabs carry no history.
type Tab struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Type  TabType `json:"type"`

	// Chat-only fields
	ConversationID string    `json:"conversation_id,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
	IsLoading      bool      `json:"is_loading,omitempty"`
	IsTyping       bool      `json:"is_typing,omitempty"`
}

// IsChat reports whether the tab holds a conversation.
func (t *Tab) IsChat() bool {
	return t.Type == TabChat
}

// HasContent reports whether a chat tab has anything worth saving.
func (t *Tab) HasContent() bool {
	return t.IsChat() && len(t.Messages) > 0
}

// TabUpdate holds the fields UpdateTab may merge into a tab.
// Nil fields are left untouched; type-required fields (messages,
// conversation id) cannot be cleared through an update.
type TabUpdate struct {
	Title     *string    `json:"title,omitempty"`
	IsLoading *bool      `json:"is_loading,omitempty"`
	IsTyping  *bool      `json:"is_typing,omitempty"`
	Messages  *[]Message `json:"messages,omitempty"`
}

// Stats contains tab registry statistics
type Stats struct {
	TotalTabs   int     `json:"total_tabs"`
	ChatTabs    int     `json:"chat_tabs"`
	ActiveTabID *string `json:"active_tab_id,omitempty"`
}
