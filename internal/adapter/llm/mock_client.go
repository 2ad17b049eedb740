package llm

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

var createTablePattern = regexp.MustCompile("CREATE TABLE `([^`]+)`")

// MockClient is a mock implementation of LLMClient for local runs and tests.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletion returns a canned system prompt built from the schema
// found in the last user message.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	responseContent := m.generateMockResponse(req)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: responseContent,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(responseContent) / 4,
			TotalTokens:      m.estimateTokens(req) + len(responseContent)/4,
		},
	}, nil
}

// generateMockResponse generates a mock response based on the request.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	table := "financial_data"
	if match := createTablePattern.FindStringSubmatch(lastUserMessage); match != nil {
		table = match[1]
	}

	return fmt.Sprintf("You are Nuralance, an expert financial AI assistant.\n"+
		"[MOCK] The `%[1]s` table appears to hold the rows of the uploaded file.\n"+
		"Your task is to answer user questions by generating read-only SQLite queries and calling the `run_sql_query` function.\n"+
		"Only use the tables and columns in the schema, quoted with backticks.\n"+
		"Do calculations (SUM, AVG, COUNT) and sorting inside the SQL query.\n"+
		"Example: SELECT COUNT(*) AS row_count FROM `%[1]s`;\n"+
		"Happy analyzing!", table)
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}
