package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/observability"
	"github.com/petnice/clinic-dashboard/internal/session"
)

// StartSessionSweeper purges expired sessions every interval until ctx is done.
// The returned channel is closed once the sweeper has stopped. Backends that expire
// keys on their own (Redis) are not Purgers and get no sweeper.
func StartSessionSweeper(ctx context.Context, backend session.Backend, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	purger, ok := backend.(session.Purger)
	if !ok || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sweeper")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, purger, metrics, logger)
			}
		}
	}()
	return done
}

func sweepOnce(ctx context.Context, purger session.Purger, metrics *observability.Metrics, logger *zap.Logger) {
	purged, err := purger.PurgeExpired(ctx)
	if err != nil {
		logger.Warn("session sweep failed", zap.Error(err))
		return
	}
	metrics.RecordSweep(purged)
	if purged > 0 {
		logger.Debug("expired sessions purged", zap.Int("count", purged))
	}
}
