package notification

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Service - сервис доставки уведомлений. Принимает параметры от
// шаблонов-триггеров, присваивает идентификатор, пишет в систему
// записи и обновляет снимок ленты.
type Service interface {
	// Push создаёт уведомление и добавляет его в ленту аккаунта.
	Push(ctx context.Context, params NewNotificationParams) (*Notification, error)

	// MarkRead помечает уведомление прочитанным (идемпотентно).
	MarkRead(ctx context.Context, accountID, notificationID string) error

	// MarkAllRead помечает все уведомления аккаунта прочитанными.
	// Возвращает число фактически изменённых записей.
	MarkAllRead(ctx context.Context, accountID string) (int, error)

	// Feed возвращает ленту аккаунта от новых к старым.
	Feed(ctx context.Context, accountID string, limit int) (*Feed, error)
}
