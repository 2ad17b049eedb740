package domain

import (
	"encoding/json"
	"time"
)

// SQLQueryToolName is the function name the agent calls to run a query.
const SQLQueryToolName = "run_sql_query"

// ToolKind identifies which typed variant a pending tool call parsed into.
type ToolKind string

const (
	ToolKindSQLQuery ToolKind = "sql_query"
	ToolKindUnknown  ToolKind = "unknown"
	ToolKindInvalid  ToolKind = "invalid"
)

// PendingToolCall is a function call the reasoning service is waiting on.
type PendingToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// SQLQueryArgs are the validated arguments of a run_sql_query call.
type SQLQueryArgs struct {
	SQLQuery string `json:"sql_query"`
}

// ToolInvocation is a pending tool call after parsing. Exactly one of SQL or
// Err is set, depending on Kind.
type ToolInvocation struct {
	CallID string
	Name   string
	Kind   ToolKind
	SQL    *SQLQueryArgs
	Err    error
}

// ToolOutput pairs a tool call id with the JSON-encoded result string.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`

	// Failed marks an output that reports an error rather than a result.
	// It is never sent upstream.
	Failed bool `json:"-"`
}

// ToolCall represents a journaled tool execution.
type ToolCall struct {
	ToolCallID  string          `json:"tool_call_id"`
	RunID       string          `json:"run_id"`
	ToolName    string          `json:"tool_name"`
	Kind        ToolKind        `json:"kind"`
	Status      ToolCallStatus  `json:"status"`
	Args        json.RawMessage `json:"args"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
