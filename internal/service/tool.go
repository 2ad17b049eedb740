package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/logging"
)

// waitForRun polls a run until it needs action or reaches a terminal status.
func (s *Service) waitForRun(ctx context.Context, sessionID, threadID, runID string, last domain.RunStatus, deadline time.Time) (*assistant.Run, error) {
	ticker := time.NewTicker(s.config.RunPollInterval)
	defer ticker.Stop()

	timeout := time.NewTimer(time.Until(deadline))
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, fmt.Errorf("%w after %s", domain.ErrRunTimeout, s.config.RunTimeout)
		case <-ticker.C:
			run, err := s.assistant.GetRun(ctx, threadID, runID)
			if err != nil {
				return nil, fmt.Errorf("failed to poll run: %w", err)
			}
			if run.Status != last {
				last = run.Status
				if err := s.store.UpdateRunStatus(ctx, runID, run.Status); err != nil {
					s.logger.Warn("failed to update run status", zap.String("run_id", runID), zap.Error(err))
				}
				s.journalEvent(ctx, sessionID, runID, domain.EventTypeRunStatus, domain.RunStatusPayload{Status: run.Status})
			}
			if run.Status.Settled() {
				return run, nil
			}
		}
	}
}

// runToolCalls answers every pending tool call of a run, in order. Calls
// that cannot be executed still get an output so the run never stalls.
func (s *Service) runToolCalls(ctx context.Context, sess domain.Session, run *assistant.Run) ([]domain.ToolOutput, error) {
	calls := run.PendingToolCalls()
	if len(calls) == 0 {
		return nil, fmt.Errorf("run %s requires action but lists no tool calls", run.ID)
	}

	outputs := make([]domain.ToolOutput, 0, len(calls))
	for _, call := range calls {
		inv := s.tools.Parse(call)
		now := time.Now()

		s.journalEvent(ctx, sess.SessionID, run.ID, domain.EventTypeToolRequest, domain.ToolRequestPayload{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Kind:       inv.Kind,
			Arguments:  call.Arguments,
		})
		if err := s.store.CreateToolCall(ctx, &domain.ToolCall{
			ToolCallID: call.ID,
			RunID:      run.ID,
			ToolName:   call.Name,
			Kind:       inv.Kind,
			Status:     domain.ToolCallStatusRunning,
			Args:       argsJSON(call.Arguments),
			CreatedAt:  now,
		}); err != nil {
			s.logger.Warn("failed to create tool call", zap.String("tool_call_id", call.ID), zap.Error(err))
		}

		out := s.tools.Execute(ctx, sess.StorePath, inv)
		outputs = append(outputs, out)

		status := domain.ToolCallStatusSucceeded
		var result, errData []byte
		switch {
		case inv.Err != nil:
			status = domain.ToolCallStatusRejected
			errData = []byte(out.Output)
		case out.Failed:
			status = domain.ToolCallStatusFailed
			errData = []byte(out.Output)
		default:
			result = []byte(out.Output)
		}
		if _, err := s.store.UpdateToolCallResult(ctx, call.ID, status, result, errData); err != nil {
			s.logger.Warn("failed to update tool call", zap.String("tool_call_id", call.ID), zap.Error(err))
		}

		latency := time.Since(now)
		s.journalEvent(ctx, sess.SessionID, run.ID, domain.EventTypeToolResult, domain.ToolResultPayload{
			ToolCallID: call.ID,
			Status:     status,
			LatencyMs:  latency.Milliseconds(),
		})
		s.logger.Info("tool call executed",
			zap.String("session_id", sess.SessionID),
			zap.String("run_id", run.ID),
			zap.String("tool", call.Name),
			zap.String("status", string(status)),
			zap.String("arguments", logging.Truncate(call.Arguments, 200)),
			zap.Duration("latency", latency))
	}
	return outputs, nil
}

// argsJSON keeps well-formed arguments as JSON and quotes anything else so
// the journal column always holds valid JSON.
func argsJSON(arguments string) json.RawMessage {
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	quoted, _ := json.Marshal(arguments)
	return quoted
}
