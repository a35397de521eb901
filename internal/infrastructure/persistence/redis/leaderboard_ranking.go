package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD RANKING
// Redis ZSET implementation of leaderboard.Ranking.
//
// Layout:
//   leaderboard:global      ZSET  score = total XP, member = account id
//   leaderboard:meta        HASH  account id -> display metadata (JSON)
//   leaderboard:prev_ranks  HASH  account id -> rank at last rebuild
//
// prev_ranks is written only by Rebuild so that Change is measured
// between rebuilds, not between individual score updates.
// ══════════════════════════════════════════════════════════════════════════════

const (
	keyLeaderboardGlobal    = PrefixLeaderboard + "global"
	keyLeaderboardMeta      = PrefixLeaderboard + "meta"
	keyLeaderboardPrevRanks = PrefixLeaderboard + "prev_ranks"
)

// entryMeta is the display metadata stored per member.
type entryMeta struct {
	DisplayName string `json:"displayName"`
	Level       int    `json:"level"`
}

// LeaderboardRanking implements leaderboard.Ranking on a Redis ZSET.
type LeaderboardRanking struct {
	cache *Cache
	log   *logger.Logger
}

// NewLeaderboardRanking creates a new LeaderboardRanking.
func NewLeaderboardRanking(cache *Cache, log *logger.Logger) *LeaderboardRanking {
	return &LeaderboardRanking{
		cache: cache,
		log:   log.With(logger.Component("leaderboard_ranking")),
	}
}

// UpdateScore updates the account's score in the global ranking.
func (r *LeaderboardRanking) UpdateScore(ctx context.Context, accountID string, totalXP int) error {
	if accountID == "" {
		return ErrCacheKeyEmpty
	}
	err := r.cache.Client().ZAdd(ctx, keyLeaderboardGlobal, redis.Z{
		Score:  float64(totalXP),
		Member: accountID,
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard: update score: %w", err)
	}
	return nil
}

// SetMeta stores the display metadata shown alongside the score.
// Called on registration and whenever the display name or level changes.
func (r *LeaderboardRanking) SetMeta(ctx context.Context, accountID, displayName string, level int) error {
	return r.cache.HSet(ctx, keyLeaderboardMeta, accountID, entryMeta{
		DisplayName: displayName,
		Level:       level,
	})
}

// GetTop returns the first n rows of the ranking.
func (r *LeaderboardRanking) GetTop(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	if n <= 0 {
		n = 10
	}
	members, err := r.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardGlobal, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: get top: %w", err)
	}
	return r.toEntries(ctx, members, 1)
}

// GetRank returns the account's position, or 0 when not ranked.
func (r *LeaderboardRanking) GetRank(ctx context.Context, accountID string) (int, error) {
	rank, err := r.cache.Client().ZRevRank(ctx, keyLeaderboardGlobal, accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("leaderboard: get rank: %w", err)
	}
	return int(rank) + 1, nil
}

// GetNeighbors returns the rows around the account (radius in each direction).
func (r *LeaderboardRanking) GetNeighbors(ctx context.Context, accountID string, radius int) ([]leaderboard.Entry, error) {
	if radius <= 0 {
		radius = 2
	}

	rank, err := r.cache.Client().ZRevRank(ctx, keyLeaderboardGlobal, accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("leaderboard: get neighbors: %w", err)
	}

	start := rank - int64(radius)
	if start < 0 {
		start = 0
	}
	stop := rank + int64(radius)

	members, err := r.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardGlobal, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: get neighbors: %w", err)
	}
	return r.toEntries(ctx, members, int(start)+1)
}

// Remove removes the account from the ranking.
func (r *LeaderboardRanking) Remove(ctx context.Context, accountID string) error {
	pipe := r.cache.Client().TxPipeline()
	pipe.ZRem(ctx, keyLeaderboardGlobal, accountID)
	pipe.HDel(ctx, keyLeaderboardMeta, accountID)
	pipe.HDel(ctx, keyLeaderboardPrevRanks, accountID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: remove: %w", err)
	}
	return nil
}

// Rebuild replaces the whole ranking from the given scores.
// The current ranks are recorded as previous ranks for Change.
func (r *LeaderboardRanking) Rebuild(ctx context.Context, scores []leaderboard.Score) error {
	// Snapshot current ranks before the wipe.
	current, err := r.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardGlobal, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("leaderboard: rebuild snapshot: %w", err)
	}

	pipe := r.cache.Client().TxPipeline()
	pipe.Del(ctx, keyLeaderboardPrevRanks)
	for i, m := range current {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		pipe.HSet(ctx, keyLeaderboardPrevRanks, id, strconv.Itoa(i+1))
	}

	pipe.Del(ctx, keyLeaderboardGlobal)
	members := make([]redis.Z, 0, len(scores))
	for _, s := range scores {
		members = append(members, redis.Z{
			Score:  float64(s.TotalXP),
			Member: s.AccountID,
		})
		pipe.HSet(ctx, keyLeaderboardMeta, s.AccountID, mustJSON(entryMeta{
			DisplayName: s.DisplayName,
			Level:       s.Level,
		}))
	}
	if len(members) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardGlobal, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: rebuild: %w", err)
	}

	r.log.Info("leaderboard rebuilt", logger.Int("accounts", len(scores)))
	return nil
}

// toEntries hydrates ZSET members into leaderboard entries.
// startRank is the 1-based rank of the first member.
func (r *LeaderboardRanking) toEntries(ctx context.Context, members []redis.Z, startRank int) ([]leaderboard.Entry, error) {
	if len(members) == 0 {
		return nil, nil
	}

	metaRaw, err := r.cache.HGetAll(ctx, keyLeaderboardMeta)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: load meta: %w", err)
	}
	prevRaw, err := r.cache.HGetAll(ctx, keyLeaderboardPrevRanks)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: load previous ranks: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(members))
	for i, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		rank := startRank + i

		entry := leaderboard.Entry{
			Rank:      rank,
			AccountID: id,
			Score:     int(m.Score),
		}
		if raw, ok := metaRaw[id]; ok {
			var meta entryMeta
			if err := unmarshalJSON(raw, &meta); err == nil {
				entry.DisplayName = meta.DisplayName
				entry.Level = meta.Level
			}
		}
		if raw, ok := prevRaw[id]; ok {
			if prev, err := strconv.Atoi(raw); err == nil {
				entry.Change = prev - rank
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func unmarshalJSON(raw string, dest interface{}) error {
	return json.Unmarshal([]byte(raw), dest)
}
