package session

import (
	"context"
	"time"
)

// Repository определяет хранилище игровых сессий.
type Repository interface {
	// Save сохраняет запись сессии.
	Save(ctx context.Context, s *Session) error

	// ListByAccount возвращает сессии аккаунта от новых к старым.
	// limit <= 0 означает "все".
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*Session, error)

	// ListByAccountSince возвращает сессии аккаунта после указанного времени.
	ListByAccountSince(ctx context.Context, accountID string, since time.Time) ([]*Session, error)

	// CountByAccount возвращает число сессий аккаунта.
	CountByAccount(ctx context.Context, accountID string) (int, error)

	// DeleteAllForAccount удаляет все сессии аккаунта (сброс прогресса).
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
