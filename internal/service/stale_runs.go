package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// SweepStaleRuns closes journaled runs that never finished, such as those
// cut short by a restart. A run counts as stale once it is older than the
// run timeout.
func (s *Service) SweepStaleRuns(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stale, err := s.store.ListStaleRuns(sweepCtx, s.config.RunTimeout, 100)
	if err != nil {
		s.logger.Warn("stale run sweep failed", zap.Error(err))
		return 0
	}

	swept := 0
	for _, run := range stale {
		payload := domain.RunFailedPayload{Code: "interrupted", Message: "run did not finish before the process stopped"}
		errData, _ := json.Marshal(payload)
		if err := s.store.UpdateRunCompleted(sweepCtx, run.RunID, domain.RunStatusTimeout, errData); err != nil {
			s.logger.Warn("failed to close stale run", zap.String("run_id", run.RunID), zap.Error(err))
			continue
		}
		s.journalEvent(sweepCtx, run.SessionID, run.RunID, domain.EventTypeRunTimeout, payload)
		swept++
	}
	if swept > 0 {
		s.logger.Info("closed stale runs", zap.Int("count", swept))
	}
	return swept
}
