package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// IdleEvictor drops per-session state that has not been used for a while.
type IdleEvictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// StartWorkspaceSweeper evicts idle workspaces every interval until ctx is done.
// The returned channel is closed when the sweeper has stopped.
func StartWorkspaceSweeper(ctx context.Context, evictor IdleEvictor, interval, maxIdle time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := evictor.EvictIdle(maxIdle); n > 0 {
					logger.Info("evicted idle workspaces", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}
