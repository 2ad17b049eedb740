package domain

import (
	"encoding/json"
	"time"
)

// Session is one uploaded dataset and the conversation bound to it.
type Session struct {
	SessionID    string    `json:"session_id"`
	TableName    string    `json:"table_name"`
	StorePath    string    `json:"-"`
	UploadPath   string    `json:"-"`
	SystemPrompt string    `json:"-"`
	ThreadID     string    `json:"thread_id,omitempty"`
	RowCount     int       `json:"row_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// SessionRecord is the journaled form of a session.
type SessionRecord struct {
	SessionID string          `json:"session_id"`
	TableName string          `json:"table_name"`
	CreatedAt time.Time       `json:"created_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Message represents a single journaled message in a session.
type Message struct {
	MessageID string          `json:"message_id"`
	SessionID string          `json:"session_id"`
	RunID     string          `json:"run_id,omitempty"`
	Role      string          `json:"role"` // user, assistant
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}
