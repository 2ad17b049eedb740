package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

var tablePattern = regexp.MustCompile("(?:CREATE TABLE|FROM) `([^`]+)`")

// MockClient is an in-memory AssistantClient. Every run first asks for one
// run_sql_query call counting the rows of the table named in the run
// instructions, then completes with a reply quoting the tool output.
type MockClient struct {
	mu       sync.Mutex
	messages map[string][]Message
	runs     map[string]*mockRun
}

type mockRun struct {
	run     Run
	table   string
	outputs []domain.ToolOutput
	polled  int
}

// NewMockClient creates a new mock assistant client.
func NewMockClient() *MockClient {
	return &MockClient{
		messages: make(map[string][]Message),
		runs:     make(map[string]*mockRun),
	}
}

// Ensure MockClient implements AssistantClient interface.
var _ AssistantClient = (*MockClient)(nil)

func (m *MockClient) CreateThread(ctx context.Context) (*Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "thread_mock_" + uuid.New().String()[:8]
	m.messages[id] = nil
	return &Thread{ID: id, Object: "thread", CreatedAt: time.Now().Unix()}, nil
}

func (m *MockClient) AddMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[threadID]; !ok {
		return nil, &APIError{StatusCode: 404, Message: fmt.Sprintf("No thread found with id '%s'.", threadID), Type: "invalid_request_error"}
	}
	msg := m.appendMessage(threadID, "", role, content)
	return &msg, nil
}

func (m *MockClient) CreateRun(ctx context.Context, threadID string, req *CreateRunRequest) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[threadID]; !ok {
		return nil, &APIError{StatusCode: 404, Message: fmt.Sprintf("No thread found with id '%s'.", threadID), Type: "invalid_request_error"}
	}

	table := "financial_data"
	if match := tablePattern.FindStringSubmatch(req.Instructions); match != nil {
		table = match[1]
	}

	r := &mockRun{
		run: Run{
			ID:          "run_mock_" + uuid.New().String()[:8],
			Object:      "thread.run",
			ThreadID:    threadID,
			AssistantID: req.AssistantID,
			Status:      domain.RunStatusQueued,
		},
		table: table,
	}
	m.runs[r.run.ID] = r
	run := r.run
	return &run, nil
}

func (m *MockClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(threadID, runID)
	if err != nil {
		return nil, err
	}

	r.polled++
	switch r.run.Status {
	case domain.RunStatusQueued:
		r.run.Status = domain.RunStatusInProgress
	case domain.RunStatusInProgress:
		if r.outputs == nil {
			r.run.Status = domain.RunStatusRequiresAction
			r.run.RequiredAction = &RequiredAction{
				Type: "submit_tool_outputs",
				SubmitToolOutputs: SubmitToolOutputs{ToolCalls: []ToolCall{{
					ID:   "call_mock_" + uuid.New().String()[:8],
					Type: "function",
					Function: ToolCallFunction{
						Name:      domain.SQLQueryToolName,
						Arguments: mustJSON(domain.SQLQueryArgs{SQLQuery: fmt.Sprintf("SELECT COUNT(*) AS row_count FROM `%s`", r.table)}),
					},
				}}},
			}
		} else {
			r.run.Status = domain.RunStatusCompleted
			m.appendMessage(threadID, runID, "assistant", fmt.Sprintf("[MOCK] The query returned: %s", r.outputs[0].Output))
		}
	}
	run := r.run
	return &run, nil
}

func (m *MockClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []domain.ToolOutput) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(threadID, runID)
	if err != nil {
		return nil, err
	}
	if r.run.Status != domain.RunStatusRequiresAction {
		return nil, &APIError{StatusCode: 400, Message: fmt.Sprintf("Runs in status %q do not accept tool outputs.", r.run.Status), Type: "invalid_request_error"}
	}
	if len(outputs) == 0 {
		return nil, &APIError{StatusCode: 400, Message: "tool_outputs must not be empty", Type: "invalid_request_error"}
	}

	r.outputs = append([]domain.ToolOutput(nil), outputs...)
	r.run.RequiredAction = nil
	r.run.Status = domain.RunStatusInProgress
	run := r.run
	return &run, nil
}

func (m *MockClient) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(threadID, runID)
	if err != nil {
		return nil, err
	}
	if !r.run.Status.Terminal() {
		r.run.Status = domain.RunStatusCancelled
		r.run.RequiredAction = nil
	}
	run := r.run
	return &run, nil
}

func (m *MockClient) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.messages[threadID]
	if !ok {
		return nil, &APIError{StatusCode: 404, Message: fmt.Sprintf("No thread found with id '%s'.", threadID), Type: "invalid_request_error"}
	}
	out := make([]Message, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (m *MockClient) lookup(threadID, runID string) (*mockRun, error) {
	r, ok := m.runs[runID]
	if !ok || r.run.ThreadID != threadID {
		return nil, &APIError{StatusCode: 404, Message: fmt.Sprintf("No run found with id '%s'.", runID), Type: "invalid_request_error"}
	}
	return r, nil
}

func (m *MockClient) appendMessage(threadID, runID, role, content string) Message {
	msg := Message{
		ID:        "msg_mock_" + uuid.New().String()[:8],
		Object:    "thread.message",
		ThreadID:  threadID,
		RunID:     runID,
		Role:      role,
		Content:   []ContentBlock{{Type: "text", Text: &TextContent{Value: content}}},
		CreatedAt: time.Now().Unix(),
	}
	m.messages[threadID] = append(m.messages[threadID], msg)
	return msg
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
