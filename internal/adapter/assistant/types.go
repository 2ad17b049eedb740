package assistant

import (
	"encoding/json"
	"strings"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Thread is a conversation thread owned by the reasoning service.
type Thread struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
}

// Run is one attempt to produce an assistant turn within a thread.
type Run struct {
	ID             string           `json:"id"`
	Object         string           `json:"object"`
	ThreadID       string           `json:"thread_id"`
	AssistantID    string           `json:"assistant_id"`
	Status         domain.RunStatus `json:"status"`
	RequiredAction *RequiredAction  `json:"required_action,omitempty"`
	LastError      *RunError        `json:"last_error,omitempty"`
}

// RequiredAction lists the tool calls a run is blocked on.
type RequiredAction struct {
	Type              string            `json:"type"`
	SubmitToolOutputs SubmitToolOutputs `json:"submit_tool_outputs"`
}

// SubmitToolOutputs holds the pending tool calls.
type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ToolCall is a function call requested by the assistant.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the function and carries its JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RunError is the failure reason reported for a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PendingToolCalls returns the tool calls the run is waiting on.
func (r *Run) PendingToolCalls() []domain.PendingToolCall {
	if r.RequiredAction == nil {
		return nil
	}
	calls := r.RequiredAction.SubmitToolOutputs.ToolCalls
	out := make([]domain.PendingToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, domain.PendingToolCall{ID: c.ID, Name: c.Function.Name, Arguments: c.Function.Arguments})
	}
	return out
}

// Message is a thread message.
type Message struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	ThreadID  string         `json:"thread_id"`
	RunID     string         `json:"run_id,omitempty"`
	Role      string         `json:"role"`
	Content   []ContentBlock `json:"content"`
	CreatedAt int64          `json:"created_at"`
}

// ContentBlock is one piece of message content.
type ContentBlock struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent is the body of a text block.
type TextContent struct {
	Value string `json:"value"`
}

// Text concatenates the message's text blocks.
func (m *Message) Text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == "text" && block.Text != nil {
			b.WriteString(block.Text.Value)
		}
	}
	return strings.TrimSpace(b.String())
}

// CreateRunRequest starts a run on a thread.
type CreateRunRequest struct {
	AssistantID  string           `json:"assistant_id"`
	Instructions string           `json:"instructions,omitempty"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// ToolDefinition advertises a function tool to the assistant.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a function tool.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []domain.ToolOutput `json:"tool_outputs"`
}

type messageList struct {
	Object string    `json:"object"`
	Data   []Message `json:"data"`
}
