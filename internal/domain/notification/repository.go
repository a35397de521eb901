package notification

import "context"

// Repository определяет систему записи для уведомлений.
type Repository interface {
	// Save сохраняет уведомление.
	Save(ctx context.Context, n *Notification) error

	// GetFeed возвращает ленту аккаунта (от новых к старым).
	GetFeed(ctx context.Context, accountID string, limit int) (*Feed, error)

	// MarkRead помечает уведомление прочитанным.
	MarkRead(ctx context.Context, accountID, notificationID string) error

	// MarkAllRead помечает все уведомления аккаунта прочитанными.
	// Возвращает число изменённых записей.
	MarkAllRead(ctx context.Context, accountID string) (int, error)

	// DeleteOlderThan удаляет прочитанные уведомления старше порога.
	// Возвращает число удалённых записей (фоновая чистка).
	DeleteOlderThan(ctx context.Context, accountID string, keep int) (int, error)

	// DeleteAllForAccount удаляет все уведомления аккаунта.
	DeleteAllForAccount(ctx context.Context, accountID string) error
}

// FeedStore - снимки лент в key-value хранилище. Блоб ленты хранится
// независимо от блоба журнала прогресса.
type FeedStore interface {
	// SaveFeed сериализует и сохраняет ленту аккаунта.
	SaveFeed(ctx context.Context, feed *Feed) error

	// LoadFeed загружает ленту. Отсутствие ключа - НЕ ошибка:
	// возвращается (nil, nil).
	LoadFeed(ctx context.Context, accountID string) (*Feed, error)

	// DeleteFeed удаляет снимок ленты.
	DeleteFeed(ctx context.Context, accountID string) error
}
