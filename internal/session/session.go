package session

import (
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Session represents a conversation session (application-level type).
// Page records which admin page the operator was on when the session
// last spoke, so reloading the UI restores the right context.
type Session struct {
	ID        uuid.UUID
	Title     string
	Page      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message roles, matching Genkit's ai.Role values.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleTool   = "tool"
	RoleSystem = "system"
)

// Message represents a single conversation message (application-level type).
// Content stores Genkit's ai.Part slice, serialized as JSON in the database.
type Message struct {
	ID             int64
	SessionID      uuid.UUID
	Role           string     // RoleUser, RoleModel, or RoleTool
	Content        []*ai.Part // Genkit Part slice (stored as JSON)
	SequenceNumber int
	CreatedAt      time.Time
}

// FromAI converts a genkit message into a storable Message.
func FromAI(msg *ai.Message) *Message {
	return &Message{
		Role:    string(msg.Role),
		Content: msg.Content,
	}
}

// ToAI converts a stored Message back into a genkit message.
func (m *Message) ToAI() *ai.Message {
	return &ai.Message{
		Role:    ai.Role(m.Role),
		Content: m.Content,
	}
}
