package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/logging"
	"github.com/xiaot623/gogo/datachat/internal/session"
)

const (
	// NoTextReply is returned when a completed run left no assistant text.
	NoTextReply = "Assistant did not provide a text response."

	cancelTimeout = 5 * time.Second
)

// Chat sends message to the session's thread, drives the resulting run until
// it completes and returns the assistant's reply. Turns on one session are
// serialized.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidRequest)
	}

	turn, err := s.sessions.Acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer turn.Release()

	if s.config.AssistantID == "" {
		return "", fmt.Errorf("ASSISTANT_ID is not configured")
	}

	threadID, err := s.ensureThread(ctx, turn)
	if err != nil {
		return "", err
	}

	if _, err := s.assistant.AddMessage(ctx, threadID, "user", message); err != nil {
		return "", fmt.Errorf("failed to add message: %w", err)
	}

	run, err := s.assistant.CreateRun(ctx, threadID, &assistant.CreateRunRequest{
		AssistantID:  s.config.AssistantID,
		Instructions: turn.Session.SystemPrompt,
		Tools:        s.tools.Definitions(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	s.startRunJournal(ctx, turn.Session, run, message)

	reply, err := s.driveRun(ctx, turn.Session, run)
	if err != nil {
		s.finishRunJournal(ctx, turn.Session.SessionID, run.ID, err)
		return "", err
	}

	s.journalMessage(ctx, sessionID, run.ID, "assistant", reply)
	if err := s.store.UpdateRunCompleted(ctx, run.ID, domain.RunStatusCompleted, nil); err != nil {
		s.logger.Warn("failed to complete run", zap.String("run_id", run.ID), zap.Error(err))
	}
	s.journalEvent(ctx, sessionID, run.ID, domain.EventTypeRunDone, domain.RunDonePayload{
		FinalMessage: logging.Truncate(reply, 500),
	})
	return reply, nil
}

// ensureThread returns the session's thread, creating it on the first turn.
// The caller holds the session's chat lock, so at most one turn creates it.
func (s *Service) ensureThread(ctx context.Context, turn *session.Turn) (string, error) {
	if turn.Session.ThreadID != "" {
		return turn.Session.ThreadID, nil
	}

	thread, err := s.assistant.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	sessionID := turn.Session.SessionID
	if turn.SetThread(thread.ID) {
		s.logger.Info("thread created", zap.String("session_id", sessionID), zap.String("thread_id", thread.ID))
		s.journalEvent(ctx, sessionID, "", domain.EventTypeThreadCreated, map[string]string{"thread_id": thread.ID})
	}
	return thread.ID, nil
}

// driveRun advances a run until it produces a reply or ends otherwise.
func (s *Service) driveRun(ctx context.Context, sess domain.Session, run *assistant.Run) (string, error) {
	deadline := time.Now().Add(s.config.RunTimeout)
	threadID := run.ThreadID
	if threadID == "" {
		threadID = sess.ThreadID
	}
	runID := run.ID

	for {
		if !run.Status.Settled() {
			next, err := s.waitForRun(ctx, sess.SessionID, threadID, runID, run.Status, deadline)
			if err != nil {
				if errors.Is(err, domain.ErrRunTimeout) || ctx.Err() != nil {
					s.cancelRun(ctx, threadID, runID)
				}
				return "", err
			}
			run = next
		}

		switch run.Status {
		case domain.RunStatusRequiresAction:
			outputs, err := s.runToolCalls(ctx, sess, run)
			if err != nil {
				return "", err
			}
			next, err := s.assistant.SubmitToolOutputs(ctx, threadID, runID, outputs)
			if err != nil {
				return "", fmt.Errorf("failed to submit tool outputs: %w", err)
			}
			s.journalEvent(ctx, sess.SessionID, runID, domain.EventTypeToolOutputsSubmitted, domain.ToolOutputsPayload{Count: len(outputs)})
			run = next

		case domain.RunStatusCompleted:
			return s.latestReply(ctx, threadID)

		case domain.RunStatusFailed:
			reason := "Unknown error"
			if run.LastError != nil && run.LastError.Message != "" {
				reason = run.LastError.Message
			}
			return "", &domain.RunFailedError{Status: run.Status, Reason: reason}

		default:
			reason := "no reply was produced"
			if run.LastError != nil && run.LastError.Message != "" {
				reason = run.LastError.Message
			}
			return "", &domain.RunFailedError{Status: run.Status, Reason: reason}
		}
	}
}

// latestReply returns the text of the newest thread message if the
// assistant wrote it.
func (s *Service) latestReply(ctx context.Context, threadID string) (string, error) {
	msgs, err := s.assistant.ListMessages(ctx, threadID, 1)
	if err != nil {
		return "", fmt.Errorf("failed to fetch assistant response: %w", err)
	}
	if len(msgs) == 0 || msgs[0].Role != "assistant" {
		return NoTextReply, nil
	}
	if text := msgs[0].Text(); text != "" {
		return text, nil
	}
	return NoTextReply, nil
}

// cancelRun asks the reasoning service to stop a run we gave up on.
func (s *Service) cancelRun(ctx context.Context, threadID, runID string) {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if _, err := s.assistant.CancelRun(cancelCtx, threadID, runID); err != nil {
		s.logger.Warn("failed to cancel run", zap.String("run_id", runID), zap.Error(err))
	}
}

func (s *Service) startRunJournal(ctx context.Context, sess domain.Session, run *assistant.Run, message string) {
	threadID := run.ThreadID
	if threadID == "" {
		threadID = sess.ThreadID
	}
	if err := s.store.CreateRun(ctx, &domain.Run{
		RunID:     run.ID,
		SessionID: sess.SessionID,
		ThreadID:  threadID,
		Status:    run.Status,
		StartedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("failed to create run", zap.String("run_id", run.ID), zap.Error(err))
	}

	msgID := s.journalMessage(ctx, sess.SessionID, run.ID, "user", message)
	s.journalEvent(ctx, sess.SessionID, run.ID, domain.EventTypeRunStarted, domain.RunStartedPayload{
		SessionID: sess.SessionID,
		ThreadID:  threadID,
	})
	s.journalEvent(ctx, sess.SessionID, run.ID, domain.EventTypeUserInput, domain.UserInputPayload{
		MessageID: msgID,
		Content:   message,
	})
}

func (s *Service) finishRunJournal(ctx context.Context, sessionID, runID string, runErr error) {
	ctx = context.WithoutCancel(ctx)

	status := domain.RunStatusFailed
	eventType := domain.EventTypeRunFailed
	code := "error"
	var failed *domain.RunFailedError
	switch {
	case errors.Is(runErr, domain.ErrRunTimeout):
		status = domain.RunStatusTimeout
		eventType = domain.EventTypeRunTimeout
		code = "timeout"
	case errors.As(runErr, &failed):
		status = failed.Status
		code = string(failed.Status)
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = domain.RunStatusCancelled
		code = "cancelled"
	}

	payload := domain.RunFailedPayload{Code: code, Message: runErr.Error()}
	errData, _ := json.Marshal(payload)
	if err := s.store.UpdateRunCompleted(ctx, runID, status, errData); err != nil {
		s.logger.Warn("failed to complete run", zap.String("run_id", runID), zap.Error(err))
	}
	s.journalEvent(ctx, sessionID, runID, eventType, payload)
	s.logger.Warn("run ended without reply",
		zap.String("session_id", sessionID),
		zap.String("run_id", runID),
		zap.String("status", string(status)),
		zap.Error(runErr))
}
