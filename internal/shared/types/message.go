package types

// MessageType distinguishes who authored a message
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Status represents the delivery state of a message
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusRetrying Status = "retrying"
)

// CanTransition reports whether a status change is legal.
// Sent is terminal; pending can only resolve, and failed can only
// re-enter the pipeline through retrying.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusSent || to == StatusFailed
	case StatusFailed:
		return to == StatusRetrying
	case StatusRetrying:
		return to == StatusSent || to == StatusFailed
	case StatusSent:
		return false
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusSent
}

// Citation is a source reference attached to a protocol step
type Citation struct {
	ID           int    `json:"id"`
	Source       string `json:"source"`
	Organization string `json:"organization"`
	Year         string `json:"year"`
	Region       string `json:"region"`
	URL          string `json:"url"`
	Excerpt      string `json:"excerpt"`
}

// ProtocolStep is a single step in a generated protocol
type ProtocolStep struct {
	ID        int        `json:"id"`
	Step      string     `json:"step"`
	Citations []Citation `json:"citations"`
}

// ProtocolData is the structured protocol payload carried by
// assistant messages that answer a protocol query
type ProtocolData struct {
	Title        string         `json:"title"`
	Region       string         `json:"region"`
	Year         string         `json:"year"`
	Organization string         `json:"organization"`
	Steps        []ProtocolStep `json:"steps"`
	Citations    []Citation     `json:"citations"`
	LastUpdated  string         `json:"last_updated"`
}

// Message is a single entry in a conversation transcript.
// Timestamp is ISO-8601; the wire shape matches the persisted shape.
type Message struct {
	ID                string        `json:"id"`
	Type              MessageType   `json:"type"`
	Content           string        `json:"content"`
	Timestamp         string        `json:"timestamp"`
	ProtocolData      *ProtocolData `json:"protocol_data,omitempty"`
	FollowUpQuestions []string      `json:"follow_up_questions,omitempty"`
	Status            Status        `json:"status"`
	RetryCount        int           `json:"retry_count"`
	Error             string        `json:"error,omitempty"`
}
