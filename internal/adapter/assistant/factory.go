package assistant

import (
	"time"

	"go.uber.org/zap"
)

// ModeMock selects the in-memory client.
const ModeMock = "MOCK"

// NewAssistantClient creates an assistant client for the given mode.
func NewAssistantClient(mode, baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) AssistantClient {
	if mode == ModeMock {
		logger.Info("mock mode detected, using mock assistant client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
