package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// recordEvent records an event to the store. runID is empty for
// session-level events.
func (s *Service) recordEvent(ctx context.Context, sessionID, runID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:   "evt_" + uuid.New().String()[:8],
		SessionID: sessionID,
		RunID:     runID,
		Ts:        time.Now().UnixMilli(),
		Type:      eventType,
		Payload:   payloadBytes,
	}

	return s.store.CreateEvent(ctx, event)
}

// journalEvent records an event and logs instead of failing; the journal
// never blocks a turn.
func (s *Service) journalEvent(ctx context.Context, sessionID, runID string, eventType domain.EventType, payload interface{}) {
	if err := s.recordEvent(ctx, sessionID, runID, eventType, payload); err != nil {
		s.logger.Warn("failed to record event",
			zap.String("type", string(eventType)),
			zap.String("session_id", sessionID),
			zap.String("run_id", runID),
			zap.Error(err))
	}
}

// journalMessage stores a chat message.
func (s *Service) journalMessage(ctx context.Context, sessionID, runID, role, content string) string {
	msgID := "msg_" + uuid.New().String()[:8]
	err := s.store.CreateMessage(ctx, &domain.Message{
		MessageID: msgID,
		SessionID: sessionID,
		RunID:     runID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to save message",
			zap.String("session_id", sessionID),
			zap.String("role", role),
			zap.Error(err))
	}
	return msgID
}
