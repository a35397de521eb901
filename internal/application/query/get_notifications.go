package query

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NOTIFICATIONS QUERY
// Возвращает ленту уведомлений аккаунта от новых к старым.
// ══════════════════════════════════════════════════════════════════════════════

// GetNotificationsQuery содержит параметры запроса ленты.
type GetNotificationsQuery struct {
	// AccountID - внутренний ID аккаунта.
	AccountID string

	// Limit - максимальное число уведомлений (по умолчанию 50).
	Limit int

	// OnlyUnread - вернуть только непрочитанные.
	OnlyUnread bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetNotificationsQuery) Validate() error {
	if q.AccountID == "" {
		return errors.New("account_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	return nil
}

// NotificationDTO - уведомление в ответе.
type NotificationDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

// NotificationsResult - лента уведомлений.
type NotificationsResult struct {
	AccountID   string            `json:"account_id"`
	Items       []NotificationDTO `json:"items"`
	UnreadCount int               `json:"unread_count"`
	TotalCount  int               `json:"total_count"`
}

// GetNotificationsHandler обрабатывает GetNotificationsQuery.
type GetNotificationsHandler struct {
	notificationSvc notification.Service
	log             *logger.Logger
}

// NewGetNotificationsHandler создаёт обработчик запроса.
func NewGetNotificationsHandler(notificationSvc notification.Service, log *logger.Logger) *GetNotificationsHandler {
	return &GetNotificationsHandler{
		notificationSvc: notificationSvc,
		log:             log.With(logger.Component("get_notifications")),
	}
}

// Handle выполняет запрос.
func (h *GetNotificationsHandler) Handle(ctx context.Context, q GetNotificationsQuery) (*NotificationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	feed, err := h.notificationSvc.Feed(ctx, q.AccountID, q.Limit)
	if err != nil {
		return nil, err
	}

	result := &NotificationsResult{
		AccountID: q.AccountID,
		Items:     []NotificationDTO{},
	}
	if feed == nil {
		return result, nil
	}

	result.UnreadCount = feed.UnreadCount()
	result.TotalCount = feed.Len()

	items := feed.List(q.Limit)
	if q.OnlyUnread {
		items = feed.Unread()
		if q.Limit > 0 && len(items) > q.Limit {
			items = items[:q.Limit]
		}
	}

	for _, n := range items {
		result.Items = append(result.Items, NotificationDTO{
			ID:        n.ID,
			Type:      string(n.Type),
			Priority:  string(n.Priority),
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.Timestamp,
			IsRead:    n.IsRead,
		})
	}
	return result, nil
}
