package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// GetMessages returns the journaled messages of a session, oldest first.
func (s *Service) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	messages, err := s.store.GetMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}
