// Package jobs contains implementations of scheduled jobs for CyberGuard Academy Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the global ranking from the system of
// record and emits rank-change events. Incremental updates keep the
// ranking roughly current between runs; the rebuild repairs drift and
// advances the baseline against which rank changes are measured.
type RebuildLeaderboardJob struct {
	refresher      *service.LeaderboardRefresher
	ranking        leaderboard.Ranking
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// NotifyRankChanges enables rank-change events after a rebuild.
	NotifyRankChanges bool

	// MinRankChangeForEvent is the minimum absolute rank change to emit an event.
	MinRankChangeForEvent int

	// ScanTop is how many top entries are scanned for rank changes.
	ScanTop int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		NotifyRankChanges:     true,
		MinRankChangeForEvent: 3,
		ScanTop:               100,
		Timeout:               5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	EntriesScanned   int
	RankChangesFound int
	EventsPublished  int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	refresher *service.LeaderboardRefresher,
	ranking leaderboard.Ranking,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		refresher:      refresher,
		ranking:        ranking,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the global XP ranking and emits rank-change events"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if err := j.refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("leaderboard rebuild failed: %w", err)
	}

	if j.config.NotifyRankChanges {
		j.publishRankChanges(ctx, stats)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"entries_scanned", stats.EntriesScanned,
		"rank_changes", stats.RankChangesFound,
		"events_published", stats.EventsPublished,
	)

	return nil
}

// publishRankChanges scans the top of the rebuilt ranking and emits an
// event for every significant move. Entry.Change is measured against
// the previous rebuild.
func (j *RebuildLeaderboardJob) publishRankChanges(ctx context.Context, stats *RebuildStats) {
	top, err := j.ranking.GetTop(ctx, j.config.ScanTop)
	if err != nil {
		j.logger.Warn("failed to scan rebuilt leaderboard", "error", err)
		return
	}
	stats.EntriesScanned = len(top)

	for _, entry := range top {
		if entry.Change == 0 {
			continue
		}
		stats.RankChangesFound++

		if abs(entry.Change) < j.config.MinRankChangeForEvent {
			continue
		}

		// change = oldRank - newRank, so oldRank = rank + change.
		event := shared.NewRankChangedEvent(entry.AccountID, entry.Rank+entry.Change, entry.Rank)
		if err := j.eventPublisher.Publish(ctx, event); err != nil {
			j.logger.Warn("failed to publish rank change",
				"account_id", entry.AccountID,
				"error", err,
			)
			continue
		}
		stats.EventsPublished++
	}
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
