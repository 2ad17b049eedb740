package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// GetSession describes a live session.
func (s *Service) GetSession(sessionID string) (*domain.SessionSummary, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return summarize(sess), nil
}

// ListSessions describes all live sessions.
func (s *Service) ListSessions() []domain.SessionSummary {
	live := s.sessions.List()
	out := make([]domain.SessionSummary, 0, len(live))
	for _, sess := range live {
		out = append(out, *summarize(sess))
	}
	return out
}

// DeleteSession tears down a session and its files.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if _, ok := s.sessions.Delete(sessionID); !ok {
		return domain.ErrSessionNotFound
	}
	s.journalSessionDeleted(ctx, sessionID, "deleted")
	return nil
}

// ExpireSession journals a session the janitor removed.
func (s *Service) ExpireSession(sess domain.Session) {
	s.journalSessionDeleted(context.Background(), sess.SessionID, "expired")
}

func (s *Service) journalSessionDeleted(ctx context.Context, sessionID, reason string) {
	if err := s.store.MarkSessionDeleted(ctx, sessionID); err != nil {
		s.logger.Warn("failed to mark session deleted", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.journalEvent(ctx, sessionID, "", domain.EventTypeSessionDeleted, map[string]string{"reason": reason})
}

func summarize(sess domain.Session) *domain.SessionSummary {
	return &domain.SessionSummary{
		SessionID:  sess.SessionID,
		TableName:  sess.TableName,
		RowCount:   sess.RowCount,
		HasThread:  sess.ThreadID != "",
		CreatedAt:  sess.CreatedAt.UnixMilli(),
		LastUsedAt: sess.LastUsedAt.UnixMilli(),
	}
}
