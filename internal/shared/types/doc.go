// Package types provides shared data structures for the session service.
//
// This package defines the core types used across all components,
// ensuring type safety and consistent wire/persisted shapes.
//
// Core Types:
//   - Tab: Open workspace tab (chat or protocol view)
//   - Message: Conversation transcript entry
//   - ConversationRecord: Durable conversation shape
//   - Reply: Send/generate service response
//   - Layout: Persisted session layout
//
// State Management:
//   - Status: Message delivery state enum with transition guards
//   - TabType, MessageType: Kind enums
//   - Stats: Registry statistics
//
// Example Usage:
//
//	msg := types.Message{
//	    ID:      string(id.NewMessageID()),
//	    Type:    types.MessageUser,
//	    Content: "dengue protocol?",
//	    Status:  types.StatusPending,
//	}
package types
