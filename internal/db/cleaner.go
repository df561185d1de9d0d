package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingPurger removes unapproved accounts created before cutoff.
type PendingPurger interface {
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartPendingUserCleaner removes accounts that were never approved and are
// older than retention, checking every interval until ctx is done.
func StartPendingUserCleaner(
	ctx context.Context,
	users PendingPurger,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := users.DeletePendingBefore(ctx, time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to clean pending accounts", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned pending accounts", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
