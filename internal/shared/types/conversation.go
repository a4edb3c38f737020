package types

// ConversationRecord is the durable shape of a conversation, keyed by
// conversation id. CreatedAt comes from the first message and is
// preserved across repeated saves.
type ConversationRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	LastQuery string    `json:"last_query"`
	Tags      []string  `json:"tags"`
	CreatedAt string    `json:"created_at"`
}

// ConversationSummary is a list entry in a user's saved history
type ConversationSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
	LastQuery    string `json:"last_query"`
}

// Reply is what the send/generate service resolves with
type Reply struct {
	Content           string        `json:"content"`
	ProtocolData      *ProtocolData `json:"protocol_data,omitempty"`
	FollowUpQuestions []string      `json:"follow_up_questions,omitempty"`
}

// Layout is the persisted session layout: the serialized tab list and
// the active tab id, restored once at startup.
type Layout struct {
	Tabs        []Tab  `json:"tabs"`
	ActiveTabID string `json:"active_tab_id"`
}
