// Package domain defines the core domain models for datachat.
package domain

// RunStatus is the status of an assistant run as reported by the reasoning service.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"

	// RunStatusTimeout is never reported upstream; the journal records it when
	// the local wait gives up on a run.
	RunStatusTimeout RunStatus = "timed_out"
)

// Terminal reports whether no further status change is expected.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusIncomplete, RunStatusExpired, RunStatusTimeout:
		return true
	}
	return false
}

// Settled reports whether the orchestrator has to act on the run: either it
// reached a terminal status or it is waiting for tool outputs.
func (s RunStatus) Settled() bool {
	return s == RunStatusRequiresAction || s.Terminal()
}

// EventType represents the type of a journal event.
type EventType string

const (
	EventTypeSessionCreated       EventType = "session_created"
	EventTypeSessionDeleted       EventType = "session_deleted"
	EventTypeThreadCreated        EventType = "thread_created"
	EventTypeRunStarted           EventType = "run_started"
	EventTypeUserInput            EventType = "user_input"
	EventTypeRunStatus            EventType = "run_status"
	EventTypeToolRequest          EventType = "tool_request"
	EventTypeToolResult           EventType = "tool_result"
	EventTypeToolOutputsSubmitted EventType = "tool_outputs_submitted"
	EventTypeRunDone              EventType = "run_done"
	EventTypeRunFailed            EventType = "run_failed"
	EventTypeRunTimeout           EventType = "run_timeout"

	// LLM call events
	EventTypeLLMCallStarted EventType = "llm_call_started"
	EventTypeLLMCallDone    EventType = "llm_call_done"
)

// ToolCallStatus represents the status of a journaled tool call.
type ToolCallStatus string

const (
	ToolCallStatusRunning   ToolCallStatus = "RUNNING"
	ToolCallStatusSucceeded ToolCallStatus = "SUCCEEDED"
	ToolCallStatusFailed    ToolCallStatus = "FAILED"
	ToolCallStatusRejected  ToolCallStatus = "REJECTED"
)
