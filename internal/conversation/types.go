// Package conversation holds the per-category message transcript and its
// persistence policy: at most MaxMessages retained entries, snapshots that
// expire as a whole unit after MaxAge, and self-healing on unreadable
// storage.
package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ajaypalvai07/ai-help-center/internal/sanitize"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a category transcript. Insertion order is display
// order, oldest first.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
}

// NewUserMessage builds a sanitized user message with a client-generated ID.
// The ID is rewritten to the server-assigned one once the analyze call
// returns.
func NewUserMessage(content, category string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   sanitize.Message(content),
		Role:      RoleUser,
		Timestamp: now,
		Category:  category,
	}
}

// NewAssistantMessage builds a sanitized assistant message.
func NewAssistantMessage(id, content, category string, now time.Time) Message {
	if id == "" {
		id = uuid.NewString()
	}
	return Message{
		ID:        id,
		Content:   sanitize.Message(content),
		Role:      RoleAssistant,
		Timestamp: now,
		Category:  category,
	}
}

// snapshot is the persisted form of a transcript: the messages plus the
// write timestamp the expiry policy is evaluated against.
type snapshot struct {
	Messages  []Message `json:"messages"`
	Timestamp int64     `json:"timestamp"` // epoch milliseconds
}
