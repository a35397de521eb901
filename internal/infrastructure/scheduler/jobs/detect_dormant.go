package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT DORMANT JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectDormantJob marks long-inactive accounts as dormant and emits an
// inactivity event for each. Dormant accounts are excluded from the
// leaderboard rebuild; they reactivate on their next recorded activity.
type DetectDormantJob struct {
	accountRepo    account.Repository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config DetectDormantConfig
}

// DetectDormantConfig contains configuration for dormancy detection.
type DetectDormantConfig struct {
	// DormantAfterDays is the inactivity threshold.
	DormantAfterDays int

	// BatchSize is how many accounts are processed per page.
	BatchSize int

	// Timeout is the maximum duration for a full detection pass.
	Timeout time.Duration
}

// DefaultDetectDormantConfig returns sensible defaults.
func DefaultDetectDormantConfig() DetectDormantConfig {
	return DetectDormantConfig{
		DormantAfterDays: 30,
		BatchSize:        200,
		Timeout:          5 * time.Minute,
	}
}

// NewDetectDormantJob creates a new dormancy detection job.
func NewDetectDormantJob(
	accountRepo account.Repository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config DetectDormantConfig,
) *DetectDormantJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DormantAfterDays <= 0 {
		config.DormantAfterDays = 30
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &DetectDormantJob{
		accountRepo:    accountRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *DetectDormantJob) Name() string {
	return "detect_dormant"
}

// Description returns a human-readable description.
func (j *DetectDormantJob) Description() string {
	return "Marks long-inactive accounts as dormant"
}

// Run executes the detection pass.
func (j *DetectDormantJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cutoff := timeutil.Now().AddDate(0, 0, -j.config.DormantAfterDays)

	opts := account.ListOptions{
		Status:        account.StatusActive,
		InactiveSince: cutoff,
		SortBy:        account.SortByJoinedAt,
		Limit:         j.config.BatchSize,
	}

	marked := 0
	for {
		page, err := j.accountRepo.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("dormancy detection listing failed: %w", err)
		}

		pageMarked := 0
		for _, acct := range page {
			if err := j.markDormant(ctx, acct); err != nil {
				j.logger.Warn("failed to mark account dormant",
					"account_id", acct.ID,
					"error", err,
				)
				continue
			}
			pageMarked++
		}
		marked += pageMarked

		if len(page) < j.config.BatchSize {
			break
		}
		// Marked accounts drop out of the active filter; only skip past
		// rows that stayed behind.
		opts.Offset += j.config.BatchSize - pageMarked
	}

	j.logger.Info("detect_dormant job completed", "marked", marked)
	return nil
}

func (j *DetectDormantJob) markDormant(ctx context.Context, acct *account.Account) error {
	lastSeen := acct.LastActivityAt

	if err := acct.MarkDormant(); err != nil {
		if errors.Is(err, account.ErrAccountSuspended) {
			return nil
		}
		return err
	}
	if err := j.accountRepo.Update(ctx, acct); err != nil {
		return err
	}

	event := shared.NewAccountInactiveEvent(acct.ID, timeutil.DaysSince(lastSeen), lastSeen)
	if err := j.eventPublisher.Publish(ctx, event); err != nil {
		j.logger.Warn("failed to publish inactivity event",
			"account_id", acct.ID,
			"error", err,
		)
	}
	return nil
}
