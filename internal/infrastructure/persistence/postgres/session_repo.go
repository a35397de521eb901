// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
// Sessions are the raw activity log that feeds achievement evaluation.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

const sessionColumns = `id, account_id, kind, content_id, category, score, accuracy,
	   mistakes, xp_earned, duration_seconds, started_at, created_at`

// Save stores a session record.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO game_sessions (
			id, account_id, kind, content_id, category, score, accuracy,
			mistakes, xp_earned, duration_seconds, started_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.AccountID,
		string(s.Kind),
		s.ContentID,
		s.Category,
		s.Score,
		s.Accuracy,
		s.Mistakes,
		s.XPEarned,
		int(s.Duration.Seconds()),
		s.StartedAt,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ListByAccount returns the account's sessions, newest first.
// limit <= 0 means "all".
func (r *SessionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*session.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_sessions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, sessionColumns)
	args := []interface{}{accountID}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $2"
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

// ListByAccountSince returns the account's sessions after the given time.
func (r *SessionRepository) ListByAccountSince(ctx context.Context, accountID string, since time.Time) ([]*session.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_sessions
		WHERE account_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, sessionColumns)

	rows, err := r.conn.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions since: %w", err)
	}
	defer rows.Close()

	return r.scanSessions(rows)
}

// CountByAccount returns the number of sessions of the account.
func (r *SessionRepository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_sessions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// DeleteAllForAccount removes every session of the account (progress reset).
func (r *SessionRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM game_sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) scanSessions(rows pgx.Rows) ([]*session.Session, error) {
	sessions := []*session.Session{}
	for rows.Next() {
		var (
			s        session.Session
			kind     string
			duration int
		)
		err := rows.Scan(
			&s.ID,
			&s.AccountID,
			&kind,
			&s.ContentID,
			&s.Category,
			&s.Score,
			&s.Accuracy,
			&s.Mistakes,
			&s.XPEarned,
			&duration,
			&s.StartedAt,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Kind = session.Kind(kind)
		s.Duration = time.Duration(duration) * time.Second
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
