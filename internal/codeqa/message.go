package codeqa

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	ID        string    `json:"id"`   // UUID v4, stable key for renderers
	Role      Role      `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh ID
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// GetShortID returns the shortened message ID (first 8 characters)
func (m Message) GetShortID() string {
	if len(m.ID) >= 8 {
		return m.ID[:8]
	}
	return m.ID
}
