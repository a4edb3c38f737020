package session

import (
	"strings"

	"github.com/procheck/sessiond/internal/shared/types"
)

const maxTitleLen = 50

// BuildRecord assembles the durable record for one conversation from
// its transcript. The title derives from the first user message,
// last_query from the most recent one, and created_at is pinned to the
// first message so repeated saves of the same conversation never move
// it.
func BuildRecord(conversationID string, messages []types.Message) *types.ConversationRecord {
	record := &types.ConversationRecord{
		ID:       conversationID,
		Title:    "Untitled conversation",
		Messages: messages,
		Tags:     []string{},
	}

	if len(messages) > 0 {
		record.CreatedAt = messages[0].Timestamp
	}

	for i := range messages {
		if messages[i].Type != types.MessageUser {
			continue
		}
		if record.Title == "Untitled conversation" {
			record.Title = truncateTitle(messages[i].Content)
		}
		record.LastQuery = messages[i].Content
	}

	return record
}

// truncateTitle caps the title at maxTitleLen characters, never
// splitting a multibyte rune: the result must stay valid UTF-8 on the
// wire.
func truncateTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "Untitled conversation"
	}
	runes := []rune(content)
	if len(runes) <= maxTitleLen {
		return content
	}
	return string(runes[:maxTitleLen]) + "..."
}
