// Package id provides centralized ID generation for the session service.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (tab_*, msg_*, req_*)
//   - Type safety: Separate types prevent ID misuse
//   - Performance: Lock-free generation, ~2μs per ULID
//
// Conversation IDs are deliberately a separate namespace: they are plain
// UUIDs, stable across cache and storage round-trips, and never collide
// with the ULID namespaces used for tabs, messages, and requests.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// TabID identifies an open workspace tab
type TabID string

// MessageID identifies a message within a conversation
type MessageID string

// RequestID identifies an in-flight async operation
type RequestID string

// ConversationID identifies a persisted conversation
type ConversationID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	TabPrefix     = "tab"
	MessagePrefix = "msg"
	RequestPrefix = "req"
)

// ============================================================================
// ULID Generator (Primary)
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewTabID generates a new tab ID
func NewTabID() TabID {
	return TabID(Default().GenerateWithPrefix(TabPrefix))
}

// NewMessageID generates a new message ID
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewConversationID generates a new conversation ID (UUID namespace)
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

// String methods for ID types
func (id TabID) String() string          { return string(id) }
func (id MessageID) String() string      { return string(id) }
func (id RequestID) String() string      { return string(id) }
func (id ConversationID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
