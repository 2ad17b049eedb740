package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/datachat/internal/domain"
	"github.com/xiaot623/gogo/datachat/internal/logging"
)

// Janitor periodically expires idle sessions.
type Janitor struct {
	registry  *Registry
	ttl       time.Duration
	cron      *cron.Cron
	logger    *zap.Logger
	onExpired func(domain.Session)
}

// NewJanitor schedules a sweep of registry on schedule, which accepts the
// standard five-field cron syntax and descriptors such as "@every 10m".
// onExpired, if set, is called for every removed session.
func NewJanitor(registry *Registry, schedule string, ttl time.Duration, logger *zap.Logger, onExpired func(domain.Session)) (*Janitor, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	j := &Janitor{
		registry:  registry,
		ttl:       ttl,
		cron:      cron.New(),
		logger:    logger,
		onExpired: onExpired,
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running sweeps in the background.
func (j *Janitor) Start() {
	if j.ttl <= 0 {
		j.logger.Info("session janitor disabled", zap.Duration("ttl", j.ttl))
		return
	}
	j.cron.Start()
	j.logger.Info("session janitor started", zap.Duration("ttl", j.ttl))
}

// Stop stops scheduling sweeps and waits for a running one to finish or ctx
// to end.
func (j *Janitor) Stop(ctx context.Context) {
	cronCtx := j.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		j.logger.Warn("session janitor shutdown timeout")
	}
}

// RunOnce sweeps immediately and returns the number of expired sessions.
func (j *Janitor) RunOnce() int {
	removed := j.registry.Sweep(j.ttl)
	for _, s := range removed {
		if j.onExpired != nil {
			j.onExpired(s)
		}
	}
	if len(removed) > 0 {
		j.logger.Info("session janitor sweep", zap.Int("expired", len(removed)))
	}
	return len(removed)
}
