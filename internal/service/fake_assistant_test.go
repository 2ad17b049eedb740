package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// fakeAssistant replays a fixed sequence of run states. Each GetRun returns
// the next step; the last step repeats.
type fakeAssistant struct {
	mu sync.Mutex

	steps     []assistant.Run
	reply     *assistant.Message
	pollDelay time.Duration

	threads   int
	runs      int
	stepIdx   map[string]int
	submitted [][]domain.ToolOutput
	cancelled []string
	messages  []string

	inflight    int
	maxInflight int
}

func newFakeAssistant(steps ...assistant.Run) *fakeAssistant {
	return &fakeAssistant{
		steps:   steps,
		stepIdx: make(map[string]int),
		reply: &assistant.Message{
			Role:    "assistant",
			Content: []assistant.ContentBlock{{Type: "text", Text: &assistant.TextContent{Value: "done"}}},
		},
	}
}

func completedStep() assistant.Run {
	return assistant.Run{Status: domain.RunStatusCompleted}
}

func toolStep(calls ...assistant.ToolCall) assistant.Run {
	return assistant.Run{
		Status: domain.RunStatusRequiresAction,
		RequiredAction: &assistant.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: assistant.SubmitToolOutputs{ToolCalls: calls},
		},
	}
}

func sqlCall(id, query string) assistant.ToolCall {
	return assistant.ToolCall{
		ID:   id,
		Type: "function",
		Function: assistant.ToolCallFunction{
			Name:      domain.SQLQueryToolName,
			Arguments: fmt.Sprintf(`{"sql_query":%q}`, query),
		},
	}
}

func (f *fakeAssistant) CreateThread(ctx context.Context) (*assistant.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	return &assistant.Thread{ID: fmt.Sprintf("thread_%d", f.threads)}, nil
}

func (f *fakeAssistant) AddMessage(ctx context.Context, threadID, role, content string) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, content)
	return &assistant.Message{ID: "msg", ThreadID: threadID, Role: role}, nil
}

func (f *fakeAssistant) CreateRun(ctx context.Context, threadID string, req *assistant.CreateRunRequest) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	return &assistant.Run{ID: fmt.Sprintf("run_%d", f.runs), ThreadID: threadID, Status: domain.RunStatusQueued}, nil
}

func (f *fakeAssistant) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	if f.pollDelay > 0 {
		time.Sleep(f.pollDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.stepIdx[runID]
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	f.stepIdx[runID] = idx + 1

	run := f.steps[idx]
	run.ID = runID
	run.ThreadID = threadID
	if run.Status.Terminal() {
		f.inflight--
	}
	return &run, nil
}

func (f *fakeAssistant) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []domain.ToolOutput) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, outputs)
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: domain.RunStatusQueued}, nil
}

func (f *fakeAssistant) CancelRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, runID)
	return &assistant.Run{ID: runID, ThreadID: threadID, Status: domain.RunStatusCancelling}, nil
}

func (f *fakeAssistant) ListMessages(ctx context.Context, threadID string, limit int) ([]assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reply == nil {
		return nil, nil
	}
	return []assistant.Message{*f.reply}, nil
}
