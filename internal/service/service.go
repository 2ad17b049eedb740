// Package service implements the upload pipeline and the chat orchestrator.
package service

import (
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/logging"
	"github.com/xiaot623/gogo/datachat/internal/repository"
	"github.com/xiaot623/gogo/datachat/internal/session"
	"github.com/xiaot623/gogo/datachat/internal/tools"
)

// Service wires sessions, the reasoning service and the journal together.
type Service struct {
	store     repository.Store
	sessions  *session.Registry
	assistant assistant.AssistantClient
	llmClient llm.LLMClient
	tools     *tools.Registry
	config    *config.Config
	logger    *zap.Logger
}

func New(store repository.Store, sessions *session.Registry, assistantClient assistant.AssistantClient, llmClient llm.LLMClient, toolRegistry *tools.Registry, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:     store,
		sessions:  sessions,
		assistant: assistantClient,
		llmClient: llmClient,
		tools:     toolRegistry,
		config:    cfg,
		logger:    logger,
	}
}
