package domain

// SessionCreatedPayload is the payload for session_created event.
type SessionCreatedPayload struct {
	SessionID string `json:"session_id"`
	TableName string `json:"table_name"`
	RowCount  int    `json:"row_count"`
	Fallback  bool   `json:"fallback_prompt"`
}

// RunStartedPayload is the payload for run_started event.
type RunStartedPayload struct {
	SessionID string `json:"session_id"`
	ThreadID  string `json:"thread_id"`
}

// UserInputPayload is the payload for user_input event.
type UserInputPayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// RunStatusPayload is the payload for run_status event.
type RunStatusPayload struct {
	Status RunStatus `json:"status"`
}

// ToolRequestPayload is the payload for tool_request event.
type ToolRequestPayload struct {
	ToolCallID string   `json:"tool_call_id"`
	ToolName   string   `json:"tool_name"`
	Kind       ToolKind `json:"kind"`
	Arguments  string   `json:"arguments"`
}

// ToolResultPayload is the payload for tool_result event.
type ToolResultPayload struct {
	ToolCallID string         `json:"tool_call_id"`
	Status     ToolCallStatus `json:"status"`
	LatencyMs  int64          `json:"latency_ms"`
}

// ToolOutputsPayload is the payload for tool_outputs_submitted event.
type ToolOutputsPayload struct {
	Count int `json:"count"`
}

// RunDonePayload is the payload for run_done event.
type RunDonePayload struct {
	FinalMessage string `json:"final_message,omitempty"`
}

// RunFailedPayload is the payload for run_failed event.
type RunFailedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LLMCallStartedPayload is the payload for llm_call_started event.
type LLMCallStartedPayload struct {
	RequestID string `json:"request_id"`
	Model     string `json:"model"`
}

// LLMCallDonePayload is the payload for llm_call_done event.
type LLMCallDonePayload struct {
	RequestID        string `json:"request_id"`
	Model            string `json:"model"`
	LatencyMs        int64  `json:"latency_ms"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
	Error            string `json:"error,omitempty"`
}
