package domain

// UploadResponse is returned after a CSV upload has been turned into a session.
type UploadResponse struct {
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
	DBDescription string `json:"db_description"`
}

// ChatRequest is the body of a chat message.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the error body used by every HTTP endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SessionSummary describes a live session without exposing file paths.
type SessionSummary struct {
	SessionID  string `json:"session_id"`
	TableName  string `json:"table_name"`
	RowCount   int    `json:"row_count"`
	HasThread  bool   `json:"has_thread"`
	CreatedAt  int64  `json:"created_at"`
	LastUsedAt int64  `json:"last_used_at"`
}
