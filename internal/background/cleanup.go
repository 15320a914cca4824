package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/loginguard/internal/services"
)

// AttemptPruner deletes attempts recorded at or before a Unix-second cutoff
type AttemptPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// CleanupManager periodically removes failed login attempts older than the retention period.
// The ledger itself never expires rows; this job owns that concern.
type CleanupManager struct {
	pruner    AttemptPruner
	clock     services.Clock
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	pruner AttemptPruner,
	clock services.Clock,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	if clock == nil {
		clock = services.SystemClock
	}
	return &CleanupManager{
		pruner:    pruner,
		clock:     clock,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce removes expired attempts and returns how many were deleted
func (cm *CleanupManager) RunOnce(ctx context.Context) int64 {
	cutoff := cm.clock.Now().Add(-cm.retention).Unix()

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.pruner.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to cleanup expired login attempts",
			slog.Int64("cutoff", cutoff),
			slog.Any("error", err))
		return rowsDeleted
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired login attempt cleanup completed",
			slog.Int64("rows_deleted", rowsDeleted),
			slog.Int64("cutoff", cutoff))
	}
	return rowsDeleted
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
