package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE NOTIFICATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PruneNotificationsJob trims read notifications beyond the feed cap.
// Unread notifications are never pruned regardless of age.
type PruneNotificationsJob struct {
	accountRepo      account.Repository
	notificationRepo notification.Repository
	logger           *slog.Logger

	config PruneNotificationsConfig
}

// PruneNotificationsConfig contains configuration for the pruning job.
type PruneNotificationsConfig struct {
	// Keep is how many notifications survive per account.
	Keep int

	// BatchSize is how many accounts are processed per page.
	BatchSize int

	// Timeout is the maximum duration for a full pruning pass.
	Timeout time.Duration
}

// DefaultPruneNotificationsConfig returns sensible defaults.
func DefaultPruneNotificationsConfig() PruneNotificationsConfig {
	return PruneNotificationsConfig{
		Keep:      notification.DefaultFeedCap,
		BatchSize: 200,
		Timeout:   10 * time.Minute,
	}
}

// NewPruneNotificationsJob creates a new pruning job.
func NewPruneNotificationsJob(
	accountRepo account.Repository,
	notificationRepo notification.Repository,
	logger *slog.Logger,
	config PruneNotificationsConfig,
) *PruneNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Keep <= 0 {
		config.Keep = notification.DefaultFeedCap
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &PruneNotificationsJob{
		accountRepo:      accountRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
		config:           config,
	}
}

// Name returns the job name.
func (j *PruneNotificationsJob) Name() string {
	return "prune_notifications"
}

// Description returns a human-readable description.
func (j *PruneNotificationsJob) Description() string {
	return "Deletes read notifications beyond the per-account feed cap"
}

// Run executes the pruning pass.
func (j *PruneNotificationsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	opts := account.ListOptions{
		SortBy: account.SortByJoinedAt,
		Limit:  j.config.BatchSize,
	}

	accounts := 0
	deleted := 0
	for {
		page, err := j.accountRepo.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("pruning pass listing failed: %w", err)
		}

		for _, acct := range page {
			accounts++
			n, err := j.notificationRepo.DeleteOlderThan(ctx, acct.ID, j.config.Keep)
			if err != nil {
				j.logger.Warn("failed to prune notifications",
					"account_id", acct.ID,
					"error", err,
				)
				continue
			}
			deleted += n
		}

		if len(page) < j.config.BatchSize {
			break
		}
		opts.Offset += j.config.BatchSize
	}

	j.logger.Info("prune_notifications job completed",
		"accounts", accounts,
		"deleted", deleted,
	)
	return nil
}
