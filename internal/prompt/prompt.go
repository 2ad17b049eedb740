// Package prompt turns a store's schema description into the system prompt
// the assistant runs with.
package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/logging"
)

const (
	// Identity is the sentence every system prompt opens with.
	Identity = "You are Nuralance, an expert financial AI assistant."

	// TaskMarker separates the table interpretation from the instructions.
	TaskMarker = "Your task is to answer user questions"

	// DefaultPreview is used when a prompt has no interpretation to show.
	DefaultPreview = "Database was analyzed."

	// DefaultTemperature keeps analyzer output close to deterministic.
	DefaultTemperature = 0.2
)

const analystInstructions = "You are an expert SQL data analyst. Your task is to create a concise and " +
	"effective system prompt for another AI assistant based on the provided SQLite database schema. " +
	"This prompt will guide the assistant to answer questions about a user's financial data."

const requestTemplate = `Here is the schema from a user's database, which was loaded from a CSV file:
---
%[1]s
---
Based on this schema, generate a system prompt for a financial AI assistant named Nuralance. The prompt MUST:
1. Start with its identity: "You are Nuralance, an expert financial AI assistant."
2. Briefly interpret the purpose of the main table based on its columns (e.g., 'The ` + "`%[2]s`" + ` table appears to track sales records...').
3. State "Your task is to answer user questions" and instruct the assistant that it MUST do so by generating **read-only SQLite queries** and calling the ` + "`run_sql_query`" + ` function.
4. Emphasize that it should ONLY use the table and column names explicitly provided in the schema, using backticks for identifiers (e.g., ` + "`product_name`" + `).
5. Instruct it to perform calculations (SUM, AVG, COUNT), and sorting directly within the SQL query for efficiency.
6. Provide a clear, complex example query relevant to the schema, such as finding top-selling products.
7. End with a friendly closing.

Return ONLY the generated system prompt, without any extra text or explanations.`

// Synthesizer asks an analyzer model to write the system prompt.
type Synthesizer struct {
	client      llm.LLMClient
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewSynthesizer creates a Synthesizer using model for analysis.
func NewSynthesizer(client llm.LLMClient, model string, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Synthesizer{
		client:      client,
		model:       model,
		temperature: DefaultTemperature,
		logger:      logger,
	}
}

// Synthesize returns a system prompt for the schema. It never fails: any
// analyzer error falls back to the template prompt and fallback is true.
func (s *Synthesizer) Synthesize(ctx context.Context, schemaText, table string) (prompt string, fallback bool) {
	start := time.Now()
	temp := s.temperature
	resp, err := s.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:       s.model,
		Temperature: &temp,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: analystInstructions},
			{Role: "user", Content: fmt.Sprintf(requestTemplate, schemaText, table)},
		},
	})
	if err != nil {
		s.logger.Error("system prompt synthesis failed", zap.String("model", s.model), zap.Error(err))
		return Fallback(schemaText), true
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		s.logger.Error("system prompt synthesis returned no choices", zap.String("model", s.model))
		return Fallback(schemaText), true
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		s.logger.Error("system prompt synthesis returned empty content", zap.String("model", s.model))
		return Fallback(schemaText), true
	}

	s.logger.Info("system prompt generated",
		zap.String("model", s.model),
		zap.Int("length", len(content)),
		zap.Duration("latency", time.Since(start)))
	return content, false
}

// Fallback is the template prompt used when the analyzer is unavailable.
func Fallback(schemaText string) string {
	return Identity + " The user's database schema is:\n" + schemaText +
		"\nAnswer questions by generating read-only SQLite queries for the `run_sql_query` function."
}

// Preview extracts the table interpretation shown after an upload: the text
// before the task marker, minus the identity line.
func Preview(prompt string) string {
	head, _, _ := strings.Cut(prompt, TaskMarker)
	_, rest, found := strings.Cut(head, "\n")
	if !found {
		return DefaultPreview
	}
	if preview := strings.TrimSpace(rest); preview != "" {
		return preview
	}
	return DefaultPreview
}
