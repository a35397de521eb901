// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository for PostgreSQL.
// Badges live in a child table and are loaded with the aggregate.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

const accountColumns = `id, display_name, email, avatar, password_hash, total_xp, risk_score,
	   current_streak, help_count, status, completed_mission_ids,
	   completed_game_ids, mastered_role_ids, last_activity_at, joined_at,
	   created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	query := `
		INSERT INTO accounts (
			id, display_name, email, avatar, password_hash, total_xp, risk_score,
			current_streak, help_count, status, completed_mission_ids,
			completed_game_ids, mastered_role_ids, last_activity_at, joined_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.conn.Exec(ctx, query,
		acct.ID,
		acct.DisplayName,
		acct.Email,
		acct.Avatar,
		acct.PasswordHash,
		int(acct.TotalXP),
		int(acct.RiskScore),
		acct.CurrentStreak,
		acct.HelpCount,
		string(acct.Status),
		acct.CompletedMissionIDs,
		acct.CompletedGameIDs,
		acct.MasteredRoleIDs,
		acct.LastActivityAt,
		acct.JoinedAt,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return r.saveBadges(ctx, acct)
}

// GetByID returns an account by internal ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)

	row := r.conn.QueryRow(ctx, query, id)
	acct, err := r.scanAccount(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadBadges(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// GetByEmail returns an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1`, accountColumns)

	row := r.conn.QueryRow(ctx, query, email)
	acct, err := r.scanAccount(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadBadges(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Update updates an account. New badges are inserted; existing badge
// rows are never touched, matching the first-grant-wins rule.
func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	query := `
		UPDATE accounts SET
			display_name = $1,
			email = $2,
			avatar = $3,
			password_hash = $4,
			total_xp = $5,
			risk_score = $6,
			current_streak = $7,
			help_count = $8,
			status = $9,
			completed_mission_ids = $10,
			completed_game_ids = $11,
			mastered_role_ids = $12,
			last_activity_at = $13,
			updated_at = $14
		WHERE id = $15
	`

	result, err := r.conn.Exec(ctx, query,
		acct.DisplayName,
		acct.Email,
		acct.Avatar,
		acct.PasswordHash,
		int(acct.TotalXP),
		int(acct.RiskScore),
		acct.CurrentStreak,
		acct.HelpCount,
		string(acct.Status),
		acct.CompletedMissionIDs,
		acct.CompletedGameIDs,
		acct.MasteredRoleIDs,
		acct.LastActivityAt,
		time.Now().UTC(),
		acct.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return r.saveBadges(ctx, acct)
}

// Delete removes an account and, via cascades, everything owned by it.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List Operations
// ─────────────────────────────────────────────────────────────────────────────

// List returns accounts matching the filter options.
func (r *AccountRepository) List(ctx context.Context, opts account.ListOptions) ([]*account.Account, error) {
	where, args := buildAccountFilter(opts)

	query := fmt.Sprintf(`SELECT %s FROM accounts %s %s`, accountColumns, where, buildAccountOrder(opts))
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := r.scanAccounts(rows)
	if err != nil {
		return nil, err
	}
	for _, acct := range accounts {
		if err := r.loadBadges(ctx, acct); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Count returns the number of accounts matching the filter options.
func (r *AccountRepository) Count(ctx context.Context, opts account.ListOptions) (int, error) {
	where, args := buildAccountFilter(opts)

	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM accounts "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func buildAccountFilter(opts account.ListOptions) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.MinLevel > 1 {
		// Level N starts at (N-1)*1000 total XP.
		args = append(args, (int(opts.MinLevel)-1)*1000)
		clauses = append(clauses, fmt.Sprintf("total_xp >= $%d", len(args)))
	}
	if !opts.InactiveSince.IsZero() {
		args = append(args, opts.InactiveSince)
		clauses = append(clauses, fmt.Sprintf("last_activity_at < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func buildAccountOrder(opts account.ListOptions) string {
	field := "total_xp"
	switch opts.SortBy {
	case account.SortByTotalXP:
		field = "total_xp"
	case account.SortByRiskScore:
		field = "risk_score"
	case account.SortByStreak:
		field = "current_streak"
	case account.SortByJoinedAt:
		field = "joined_at"
	}
	dir := "ASC"
	if opts.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", field, dir)
}

// ─────────────────────────────────────────────────────────────────────────────
// Badges
// ─────────────────────────────────────────────────────────────────────────────

func (r *AccountRepository) loadBadges(ctx context.Context, acct *account.Account) error {
	query := `
		SELECT badge_id, name, description, icon, rarity, earned_at
		FROM account_badges
		WHERE account_id = $1
		ORDER BY earned_at
	`

	rows, err := r.conn.Query(ctx, query, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to load badges: %w", err)
	}
	defer rows.Close()

	badges := []account.Badge{}
	for rows.Next() {
		var b account.Badge
		var rarity string
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &rarity, &b.EarnedAt); err != nil {
			return fmt.Errorf("failed to scan badge: %w", err)
		}
		b.Rarity = account.Rarity(rarity)
		badges = append(badges, b)
	}
	acct.Badges = badges
	return rows.Err()
}

func (r *AccountRepository) saveBadges(ctx context.Context, acct *account.Account) error {
	if len(acct.Badges) == 0 {
		return nil
	}

	query := `
		INSERT INTO account_badges (account_id, badge_id, name, description, icon, rarity, earned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, badge_id) DO NOTHING
	`

	for _, b := range acct.Badges {
		_, err := r.conn.Exec(ctx, query,
			acct.ID, b.ID, b.Name, b.Description, b.Icon, string(b.Rarity), b.EarnedAt)
		if err != nil {
			return fmt.Errorf("failed to save badge %s: %w", b.ID, err)
		}
	}
	return nil
}

// DeleteBadges removes every badge row of the account (progress reset).
func (r *AccountRepository) DeleteBadges(ctx context.Context, accountID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM account_badges WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete badges: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// XP History
// ─────────────────────────────────────────────────────────────────────────────

// RecordXPChange appends an audit row for an XP award.
func (r *AccountRepository) RecordXPChange(ctx context.Context, accountID string, oldXP, newXP int, reason, sourceID string) error {
	query := `
		INSERT INTO xp_history (account_id, old_xp, new_xp, delta, reason, source_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.conn.Exec(ctx, query, accountID, oldXP, newXP, newXP-oldXP, reason, sourceID)
	if err != nil {
		return fmt.Errorf("failed to record xp change: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acct      account.Account
		totalXP   int
		riskScore int
		status    string
	)

	err := row.Scan(
		&acct.ID,
		&acct.DisplayName,
		&acct.Email,
		&acct.Avatar,
		&acct.PasswordHash,
		&totalXP,
		&riskScore,
		&acct.CurrentStreak,
		&acct.HelpCount,
		&status,
		&acct.CompletedMissionIDs,
		&acct.CompletedGameIDs,
		&acct.MasteredRoleIDs,
		&acct.LastActivityAt,
		&acct.JoinedAt,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acct.TotalXP = account.XP(totalXP)
	acct.RiskScore = account.RiskScore(riskScore).Clamp()
	acct.Status = account.Status(status)
	if acct.CompletedMissionIDs == nil {
		acct.CompletedMissionIDs = []string{}
	}
	if acct.CompletedGameIDs == nil {
		acct.CompletedGameIDs = []string{}
	}
	if acct.MasteredRoleIDs == nil {
		acct.MasteredRoleIDs = []string{}
	}
	return &acct, nil
}

func (r *AccountRepository) scanAccounts(rows pgx.Rows) ([]*account.Account, error) {
	accounts := []*account.Account{}
	for rows.Next() {
		acct, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}
