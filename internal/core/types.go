package core

import (
	"encoding/json"
	"time"
)

const (
	AppName    = "memochat"
	AppVersion = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a logical conversation thread. The id is opaque and normally
// chosen by the client; the server only generates one when asked to.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`

	// MessageCount is populated by list queries only.
	MessageCount int `json:"messageCount,omitempty"`
}

// Message is one stored conversation turn. Append-only, never mutated.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextBlob is the model backend's opaque continuation token, stored at
// most once per session and replaced after each memory-enabled turn.
type ContextBlob = json.RawMessage

// UserFact is a key/value fact extracted from user messages, unique per
// (session, key). Latest write wins; facts are not historized.
type UserFact struct {
	SessionID string    `json:"sessionId"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ReferenceContext is a user-curated text block optionally injected into
// prompts when judged topically relevant. Rows are deliberately not
// foreign-keyed to sessions and may outlive them; readers filter by
// session id.
type ReferenceContext struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsActive  bool      `json:"isActive"`
}
