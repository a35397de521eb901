package service

import (
	"context"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REFRESHER
// ══════════════════════════════════════════════════════════════════════════════

// refreshPageSize is how many accounts are pulled per page during a rebuild.
const refreshPageSize = 500

// LeaderboardRefresher rebuilds the Redis ranking from the system of
// record. Incremental score updates happen on the hot path through
// leaderboard.Ranking; the refresher runs on a schedule to repair any
// drift and to advance the rank-change baseline.
type LeaderboardRefresher struct {
	accounts account.Repository
	ranking  leaderboard.Ranking
	log      *logger.Logger
}

// NewLeaderboardRefresher creates a new LeaderboardRefresher.
func NewLeaderboardRefresher(accounts account.Repository, ranking leaderboard.Ranking, log *logger.Logger) *LeaderboardRefresher {
	return &LeaderboardRefresher{
		accounts: accounts,
		ranking:  ranking,
		log:      log.With(logger.Component("leaderboard_refresher")),
	}
}

// Refresh collects the scores of all active accounts and rebuilds the
// ranking from scratch.
func (r *LeaderboardRefresher) Refresh(ctx context.Context) error {
	start := time.Now()

	scores, err := r.collectScores(ctx)
	if err != nil {
		return err
	}

	if err := r.ranking.Rebuild(ctx, scores); err != nil {
		return err
	}

	r.log.Info("leaderboard rebuilt",
		logger.Int("accounts", len(scores)),
		logger.Latency(time.Since(start)),
	)
	return nil
}

func (r *LeaderboardRefresher) collectScores(ctx context.Context) ([]leaderboard.Score, error) {
	opts := account.ListOptions{
		Status:   account.StatusActive,
		SortBy:   account.SortByTotalXP,
		SortDesc: true,
		Limit:    refreshPageSize,
	}

	scores := []leaderboard.Score{}
	for {
		page, err := r.accounts.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, acct := range page {
			scores = append(scores, leaderboard.Score{
				AccountID:   acct.ID,
				DisplayName: acct.DisplayName,
				TotalXP:     int(acct.TotalXP),
				Level:       int(acct.Level()),
			})
		}
		if len(page) < refreshPageSize {
			return scores, nil
		}
		opts.Offset += refreshPageSize
	}
}
