package quickbooks

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const refreshTimeout = 30 * time.Second

type tokenRefresher interface {
	RefreshExpiring(ctx context.Context, window time.Duration) error
}

// StartRefresher schedules RefreshExpiring on spec and starts the scheduler.
// Callers stop it with Stop and wait on the returned context.
func StartRefresher(client tokenRefresher, spec string, window time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, refreshJob(client, window, logger)); err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("quickbooks token refresher started", zap.String("schedule", spec), zap.Duration("window", window))
	return c, nil
}

func refreshJob(client tokenRefresher, window time.Duration, logger *zap.Logger) func() {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		err := client.RefreshExpiring(ctx, window)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotConnected):
			logger.Debug("quickbooks not connected, nothing to refresh")
		default:
			logger.Warn("scheduled quickbooks token refresh failed", zap.Error(err))
		}
	}
}
