package achievement

import "context"

// Repository определяет хранилище фактов разблокировки достижений.
type Repository interface {
	// GetUnlocked возвращает множество разблокированных достижений аккаунта.
	GetUnlocked(ctx context.Context, accountID string) (UnlockedSet, error)

	// SaveUnlocked сохраняет факт разблокировки. Повторное сохранение
	// того же достижения - no-op.
	SaveUnlocked(ctx context.Context, record Unlocked) error

	// DeleteAllForAccount удаляет все факты разблокировки аккаунта
	// (используется при полном сбросе прогресса).
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
