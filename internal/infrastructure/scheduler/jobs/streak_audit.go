package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK AUDIT JOB
// ══════════════════════════════════════════════════════════════════════════════

// StreakAuditJob resets the daily streak of accounts that missed a full
// UTC day. A streak survives as long as the account was active today or
// yesterday; anything older means the chain is broken.
type StreakAuditJob struct {
	accountRepo     account.Repository
	notificationSvc notification.Service
	eventPublisher  shared.EventPublisher
	logger          *slog.Logger

	config StreakAuditConfig
}

// StreakAuditConfig contains configuration for the streak audit.
type StreakAuditConfig struct {
	// BatchSize is how many accounts are processed per page.
	BatchSize int

	// Timeout is the maximum duration for a full audit.
	Timeout time.Duration
}

// DefaultStreakAuditConfig returns sensible defaults.
func DefaultStreakAuditConfig() StreakAuditConfig {
	return StreakAuditConfig{
		BatchSize: 200,
		Timeout:   5 * time.Minute,
	}
}

// NewStreakAuditJob creates a new streak audit job.
func NewStreakAuditJob(
	accountRepo account.Repository,
	notificationSvc notification.Service,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config StreakAuditConfig,
) *StreakAuditJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &StreakAuditJob{
		accountRepo:     accountRepo,
		notificationSvc: notificationSvc,
		eventPublisher:  eventPublisher,
		logger:          logger,
		config:          config,
	}
}

// Name returns the job name.
func (j *StreakAuditJob) Name() string {
	return "streak_audit"
}

// Description returns a human-readable description.
func (j *StreakAuditJob) Description() string {
	return "Resets streaks of accounts with no activity since the previous UTC day"
}

// Run executes the audit.
func (j *StreakAuditJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Anyone whose last activity predates the start of yesterday has
	// missed at least one full day.
	cutoff := timeutil.StartOfDay(timeutil.Now()).AddDate(0, 0, -1)

	opts := account.ListOptions{
		Status:        account.StatusActive,
		InactiveSince: cutoff,
		SortBy:        account.SortByJoinedAt,
		Limit:         j.config.BatchSize,
	}

	audited := 0
	resets := 0
	for {
		page, err := j.accountRepo.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("streak audit listing failed: %w", err)
		}

		for _, acct := range page {
			audited++
			if acct.CurrentStreak == 0 {
				continue
			}
			if err := j.resetStreak(ctx, acct); err != nil {
				j.logger.Warn("failed to reset streak",
					"account_id", acct.ID,
					"error", err,
				)
				continue
			}
			resets++
		}

		if len(page) < j.config.BatchSize {
			break
		}
		opts.Offset += j.config.BatchSize
	}

	j.logger.Info("streak_audit job completed",
		"audited", audited,
		"resets", resets,
	)
	return nil
}

func (j *StreakAuditJob) resetStreak(ctx context.Context, acct *account.Account) error {
	previous := acct.ResetStreak()
	if err := j.accountRepo.Update(ctx, acct); err != nil {
		return err
	}

	daysMissed := timeutil.DaysSince(acct.LastActivityAt)
	event := shared.NewStreakResetEvent(acct.ID, previous, daysMissed)
	if err := j.eventPublisher.Publish(ctx, event); err != nil {
		j.logger.Warn("failed to publish streak reset",
			"account_id", acct.ID,
			"error", err,
		)
	}

	if _, err := j.notificationSvc.Push(ctx, notification.StreakLost(acct.ID, previous)); err != nil {
		j.logger.Warn("failed to push streak lost notification",
			"account_id", acct.ID,
			"error", err,
		)
	}

	return nil
}
