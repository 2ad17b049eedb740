package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func (s *Service) GetRunEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	events, err := s.store.GetEvents(ctx, runID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get run events: %w", err)
	}
	return events, nil
}

func (s *Service) GetSessionEvents(ctx context.Context, sessionID string, limit int) ([]domain.Event, error) {
	events, err := s.store.GetSessionEvents(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get session events: %w", err)
	}
	return events, nil
}

// GetRunToolCalls returns the journaled tool calls of a run.
func (s *Service) GetRunToolCalls(ctx context.Context, runID string) ([]domain.ToolCall, error) {
	calls, err := s.store.ListToolCalls(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool calls: %w", err)
	}
	return calls, nil
}
