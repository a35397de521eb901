// Package service wires domain services to their backing infrastructure.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// IDGeneratorImpl generates UUIDs for new entities.
type IDGeneratorImpl struct{}

func NewIDGenerator() *IDGeneratorImpl {
	return &IDGeneratorImpl{}
}

func (g *IDGeneratorImpl) GenerateID() string {
	return uuid.New().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// NotificationDispatcher implements notification.Service. Postgres is
// the system of record; after every mutation the feed snapshot in the
// key-value store is rebuilt on a best-effort basis. A snapshot write
// failure never fails the operation that triggered it.
type NotificationDispatcher struct {
	repo      notification.Repository
	feedStore notification.FeedStore
	publisher shared.EventPublisher
	feedCap   int
	log       *logger.Logger
}

// NewNotificationDispatcher creates the notification service.
// feedCap <= 0 falls back to notification.DefaultFeedCap.
func NewNotificationDispatcher(
	repo notification.Repository,
	feedStore notification.FeedStore,
	publisher shared.EventPublisher,
	feedCap int,
	log *logger.Logger,
) *NotificationDispatcher {
	if feedCap <= 0 {
		feedCap = notification.DefaultFeedCap
	}
	return &NotificationDispatcher{
		repo:      repo,
		feedStore: feedStore,
		publisher: publisher,
		feedCap:   feedCap,
		log:       log.With(logger.Component("notification_dispatcher")),
	}
}

// Push creates a notification and appends it to the account's feed.
func (s *NotificationDispatcher) Push(ctx context.Context, params notification.NewNotificationParams) (*notification.Notification, error) {
	if params.ID == "" {
		params.ID = uuid.New().String()
	}

	n, err := notification.NewNotification(params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}

	s.refreshSnapshot(ctx, n.AccountID)

	if s.publisher != nil {
		event := shared.NewNotificationPushedEvent(n.ID, n.AccountID, string(n.Type), string(n.Priority), n.Title)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish notification event",
				logger.AccountID(n.AccountID),
				logger.Err(err),
			)
		}
	}

	s.log.Debug("notification pushed",
		logger.AccountID(n.AccountID),
		logger.String("notification_id", n.ID),
		logger.String("type", string(n.Type)),
	)

	return n, nil
}

// MarkRead marks a single notification as read. The read flag is
// monotonic, repeating the call changes nothing.
func (s *NotificationDispatcher) MarkRead(ctx context.Context, accountID, notificationID string) error {
	if err := s.repo.MarkRead(ctx, accountID, notificationID); err != nil {
		return err
	}
	s.refreshSnapshot(ctx, accountID)
	return nil
}

// MarkAllRead marks every notification of the account as read and
// returns the number of records actually changed.
func (s *NotificationDispatcher) MarkAllRead(ctx context.Context, accountID string) (int, error) {
	marked, err := s.repo.MarkAllRead(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.refreshSnapshot(ctx, accountID)
	}
	return marked, nil
}

// Feed returns the account's feed, newest first.
func (s *NotificationDispatcher) Feed(ctx context.Context, accountID string, limit int) (*notification.Feed, error) {
	return s.repo.GetFeed(ctx, accountID, limit)
}

// refreshSnapshot rebuilds the feed snapshot from the system of record.
func (s *NotificationDispatcher) refreshSnapshot(ctx context.Context, accountID string) {
	if s.feedStore == nil {
		return
	}

	feed, err := s.repo.GetFeed(ctx, accountID, s.feedCap)
	if err != nil {
		s.log.Warn("failed to load feed for snapshot",
			logger.AccountID(accountID),
			logger.Err(err),
		)
		return
	}
	feed.Cap = s.feedCap

	if err := s.feedStore.SaveFeed(ctx, feed); err != nil {
		s.log.Warn("failed to save feed snapshot",
			logger.AccountID(accountID),
			logger.Err(err),
		)
	}
}
