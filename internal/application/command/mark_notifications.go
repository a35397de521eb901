package command

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK NOTIFICATIONS COMMAND
// Marks one or all notifications of an account as read. The read flag
// is monotonic, so repeating the command is always safe.
// ══════════════════════════════════════════════════════════════════════════════

// MarkNotificationsCommand contains the data for marking notifications.
type MarkNotificationsCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// NotificationID identifies a single notification to mark.
	// Empty means "mark everything".
	NotificationID string
}

// Validate validates the command.
func (c MarkNotificationsCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("mark_notifications: account_id is required")
	}
	return nil
}

// MarkNotificationsResult contains the outcome.
type MarkNotificationsResult struct {
	AccountID string
	Marked    int
	MarkedAt  time.Time
}

// MarkNotificationsHandler handles the MarkNotificationsCommand.
type MarkNotificationsHandler struct {
	notificationSvc notification.Service
	log             *logger.Logger
}

// NewMarkNotificationsHandler creates a new handler.
func NewMarkNotificationsHandler(notificationSvc notification.Service, log *logger.Logger) *MarkNotificationsHandler {
	return &MarkNotificationsHandler{
		notificationSvc: notificationSvc,
		log:             log.With(logger.Component("mark_notifications")),
	}
}

// Handle executes the command.
func (h *MarkNotificationsHandler) Handle(ctx context.Context, cmd MarkNotificationsCommand) (*MarkNotificationsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	result := &MarkNotificationsResult{AccountID: cmd.AccountID}

	if cmd.NotificationID != "" {
		if err := h.notificationSvc.MarkRead(ctx, cmd.AccountID, cmd.NotificationID); err != nil {
			return nil, err
		}
		result.Marked = 1
	} else {
		marked, err := h.notificationSvc.MarkAllRead(ctx, cmd.AccountID)
		if err != nil {
			return nil, err
		}
		result.Marked = marked
	}

	result.MarkedAt = time.Now().UTC()
	return result, nil
}
