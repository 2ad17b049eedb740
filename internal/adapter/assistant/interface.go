// Package assistant provides clients for the thread/run assistant API the
// chat orchestrator drives.
package assistant

import (
	"context"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// AssistantClient defines the thread and run operations the orchestrator needs.
type AssistantClient interface {
	// CreateThread starts a new conversation thread.
	CreateThread(ctx context.Context) (*Thread, error)

	// AddMessage appends a message to a thread.
	AddMessage(ctx context.Context, threadID, role, content string) (*Message, error)

	// CreateRun asks the assistant to produce a turn.
	CreateRun(ctx context.Context, threadID string, req *CreateRunRequest) (*Run, error)

	// GetRun retrieves the current state of a run.
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)

	// SubmitToolOutputs resubmits all outputs for a run blocked in requires_action.
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []domain.ToolOutput) (*Run, error)

	// CancelRun asks the service to stop a run.
	CancelRun(ctx context.Context, threadID, runID string) (*Run, error)

	// ListMessages returns up to limit messages, newest first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
}

// Ensure Client implements AssistantClient interface.
var _ AssistantClient = (*Client)(nil)
