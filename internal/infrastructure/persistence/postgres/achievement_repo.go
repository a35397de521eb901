// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/achievement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
// The unique (account_id, achievement_id) constraint backs the
// no-double-grant rule at the storage level.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// GetUnlocked returns the set of unlocked achievements of the account.
func (r *AchievementRepository) GetUnlocked(ctx context.Context, accountID string) (achievement.UnlockedSet, error) {
	query := `
		SELECT achievement_id, unlocked_at
		FROM achievements_unlocked
		WHERE account_id = $1
	`

	rows, err := r.conn.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocked achievements: %w", err)
	}
	defer rows.Close()

	unlocked := achievement.UnlockedSet{}
	for rows.Next() {
		record := achievement.Unlocked{AccountID: accountID}
		if err := rows.Scan(&record.AchievementID, &record.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked achievement: %w", err)
		}
		unlocked.Add(record)
	}
	return unlocked, rows.Err()
}

// SaveUnlocked stores an unlock record. Saving the same achievement
// again is a no-op.
func (r *AchievementRepository) SaveUnlocked(ctx context.Context, record achievement.Unlocked) error {
	query := `
		INSERT INTO achievements_unlocked (account_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, achievement_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, record.AccountID, record.AchievementID, record.UnlockedAt)
	if err != nil {
		return fmt.Errorf("failed to save unlocked achievement: %w", err)
	}
	return nil
}

// DeleteAllForAccount removes every unlock record of the account
// (progress reset).
func (r *AchievementRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM achievements_unlocked WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete unlocked achievements: %w", err)
	}
	return nil
}
