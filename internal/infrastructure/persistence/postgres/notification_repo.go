// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Save stores a notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, account_id, type, priority, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		n.ID,
		n.AccountID,
		string(n.Type),
		string(n.Priority),
		n.Title,
		n.Message,
		n.IsRead,
		n.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// GetFeed returns the account's feed, newest first.
// limit <= 0 means "all".
func (r *NotificationRepository) GetFeed(ctx context.Context, accountID string, limit int) (*notification.Feed, error) {
	query := `
		SELECT id, type, priority, title, message, is_read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{accountID}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $2"
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	feed := notification.NewFeed(accountID)
	for rows.Next() {
		var (
			n        notification.Notification
			typ      string
			priority string
		)
		if err := rows.Scan(&n.ID, &typ, &priority, &n.Title, &n.Message, &n.IsRead, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.AccountID = accountID
		n.Type = notification.Type(typ)
		n.Priority = notification.Priority(priority)
		feed.Items = append(feed.Items, &n)
	}
	return feed, rows.Err()
}

// MarkRead marks one notification as read. Marking an already-read
// notification succeeds without changing anything.
func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, notificationID string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE account_id = $1 AND id = $2
	`

	result, err := r.conn.Exec(ctx, query, accountID, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the account as read
// and returns the number of rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID string) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE account_id = $1 AND NOT is_read
	`

	result, err := r.conn.Exec(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// DeleteOlderThan removes read notifications beyond the newest keep
// rows and returns the number of deleted rows.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, accountID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	query := `
		DELETE FROM notifications
		WHERE account_id = $1
		  AND is_read
		  AND id NOT IN (
			SELECT id FROM notifications
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )
	`

	result, err := r.conn.Exec(ctx, query, accountID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// DeleteAllForAccount removes every notification of the account.
func (r *NotificationRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM notifications WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
