package models

import "time"

// Role tells who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is the plaintext application shape of one chat message. It belongs
// to exactly one SymptomSession and is owned through it.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is the row persisted in the symptom_messages table.
type StoredMessage struct {
	ID               string
	SessionID        string
	Role             Role
	ContentEncrypted *string
	CreatedAt        time.Time
}
