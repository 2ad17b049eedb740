package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// journaledLLM records llm_call_started and llm_call_done events for every
// completion made on behalf of a session.
type journaledLLM struct {
	svc       *Service
	sessionID string
}

var _ llm.LLMClient = (*journaledLLM)(nil)

func (j *journaledLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	requestID := "llm_" + uuid.New().String()[:8]
	startTime := time.Now()

	j.svc.journalEvent(ctx, j.sessionID, "", domain.EventTypeLLMCallStarted, domain.LLMCallStartedPayload{
		RequestID: requestID,
		Model:     req.Model,
	})

	resp, err := j.svc.llmClient.CreateChatCompletion(ctx, req)
	latencyMs := time.Since(startTime).Milliseconds()
	if err != nil {
		j.svc.journalEvent(ctx, j.sessionID, "", domain.EventTypeLLMCallDone, domain.LLMCallDonePayload{
			RequestID: requestID,
			Model:     req.Model,
			LatencyMs: latencyMs,
			Error:     err.Error(),
		})
		return nil, err
	}

	payload := domain.LLMCallDonePayload{
		RequestID: requestID,
		Model:     resp.Model,
		LatencyMs: latencyMs,
	}
	if resp.Usage != nil {
		payload.PromptTokens = resp.Usage.PromptTokens
		payload.CompletionTokens = resp.Usage.CompletionTokens
		payload.TotalTokens = resp.Usage.TotalTokens
	}
	j.svc.journalEvent(ctx, j.sessionID, "", domain.EventTypeLLMCallDone, payload)

	return resp, nil
}
