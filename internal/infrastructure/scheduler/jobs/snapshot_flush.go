package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT FLUSH JOB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotFlushJob rewrites the progression state snapshot of every
// active account. Snapshots are normally written on the hot path after
// each mutation; the periodic flush repairs snapshots lost to write
// failures while the store was degraded.
type SnapshotFlushJob struct {
	accountRepo account.Repository
	stateStore  account.StateStore
	logger      *slog.Logger

	config SnapshotFlushConfig
}

// SnapshotFlushConfig contains configuration for the flush job.
type SnapshotFlushConfig struct {
	// BatchSize is how many accounts are processed per page.
	BatchSize int

	// Timeout is the maximum duration for a full flush.
	Timeout time.Duration
}

// DefaultSnapshotFlushConfig returns sensible defaults.
func DefaultSnapshotFlushConfig() SnapshotFlushConfig {
	return SnapshotFlushConfig{
		BatchSize: 200,
		Timeout:   10 * time.Minute,
	}
}

// NewSnapshotFlushJob creates a new snapshot flush job.
func NewSnapshotFlushJob(
	accountRepo account.Repository,
	stateStore account.StateStore,
	logger *slog.Logger,
	config SnapshotFlushConfig,
) *SnapshotFlushJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &SnapshotFlushJob{
		accountRepo: accountRepo,
		stateStore:  stateStore,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *SnapshotFlushJob) Name() string {
	return "snapshot_flush"
}

// Description returns a human-readable description.
func (j *SnapshotFlushJob) Description() string {
	return "Rewrites progression state snapshots for all active accounts"
}

// Run executes the flush.
func (j *SnapshotFlushJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	opts := account.ListOptions{
		Status: account.StatusActive,
		SortBy: account.SortByJoinedAt,
		Limit:  j.config.BatchSize,
	}

	flushed := 0
	failed := 0
	for {
		page, err := j.accountRepo.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("snapshot flush listing failed: %w", err)
		}

		for _, acct := range page {
			if err := j.stateStore.SaveState(ctx, acct); err != nil {
				failed++
				j.logger.Warn("failed to flush state snapshot",
					"account_id", acct.ID,
					"error", err,
				)
				continue
			}
			flushed++
		}

		if len(page) < j.config.BatchSize {
			break
		}
		opts.Offset += j.config.BatchSize
	}

	j.logger.Info("snapshot_flush job completed",
		"flushed", flushed,
		"failed", failed,
	)

	if failed > 0 && flushed == 0 {
		return fmt.Errorf("snapshot flush failed for all %d accounts", failed)
	}
	return nil
}
