package account

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Интерфейсы определены в домене, реализации живут в infrastructure
// (Dependency Inversion).
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения аккаунтов (система записи).
type Repository interface {
	// Create сохраняет новый аккаунт.
	Create(ctx context.Context, acct *Account) error

	// GetByID возвращает аккаунт по внутреннему ID.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByEmail возвращает аккаунт по email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update сохраняет изменения аккаунта.
	Update(ctx context.Context, acct *Account) error

	// Delete удаляет аккаунт.
	Delete(ctx context.Context, id string) error

	// List возвращает аккаунты с фильтрацией.
	List(ctx context.Context, opts ListOptions) ([]*Account, error)

	// Count возвращает число аккаунтов, подходящих под фильтр.
	Count(ctx context.Context, opts ListOptions) (int, error)
}

// StateStore - быстрое key-value хранилище снимков состояния.
// Для каждого аккаунта хранится отдельный блоб журнала прогресса;
// лента уведомлений хранится независимым блобом (см. пакет notification).
type StateStore interface {
	// SaveState сериализует и сохраняет снимок аккаунта.
	// Ошибка записи не должна останавливать вызывающий поток:
	// состояние в памяти остаётся источником истины.
	SaveState(ctx context.Context, acct *Account) error

	// LoadState загружает снимок аккаунта.
	// Отсутствие ключа - НЕ ошибка: возвращается (nil, nil),
	// вызывающий переходит к значениям по умолчанию.
	LoadState(ctx context.Context, accountID string) (*Account, error)

	// DeleteState удаляет снимок аккаунта.
	DeleteState(ctx context.Context, accountID string) error
}

// Cache определяет кеш аккаунтов поверх системы записи.
type Cache interface {
	// Get возвращает аккаунт из кеша.
	Get(ctx context.Context, accountID string) (*Account, error)

	// Set кладёт аккаунт в кеш с TTL.
	Set(ctx context.Context, acct *Account, ttl time.Duration) error

	// Delete удаляет аккаунт из кеша.
	Delete(ctx context.Context, accountID string) error

	// Invalidate сбрасывает все ключи аккаунта.
	Invalidate(ctx context.Context, accountID string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// SortField определяет поле сортировки списка аккаунтов.
type SortField string

const (
	SortByTotalXP   SortField = "total_xp"
	SortByRiskScore SortField = "risk_score"
	SortByStreak    SortField = "current_streak"
	SortByJoinedAt  SortField = "joined_at"
)

// ListOptions содержит параметры выборки аккаунтов.
type ListOptions struct {
	// Status фильтрует по статусу (пустое значение - все).
	Status Status

	// MinLevel фильтрует аккаунты с уровнем не ниже указанного.
	MinLevel Level

	// InactiveSince выбирает аккаунты без активности после указанного времени.
	InactiveSince time.Time

	// SortBy - поле сортировки.
	SortBy SortField

	// SortDesc - сортировка по убыванию.
	SortDesc bool

	// Limit ограничивает размер выборки (0 - без ограничения).
	Limit int

	// Offset - смещение выборки.
	Offset int
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		SortBy:   SortByTotalXP,
		SortDesc: true,
		Limit:    50,
	}
}

// WithStatus задаёт фильтр по статусу.
func (o ListOptions) WithStatus(status Status) ListOptions {
	o.Status = status
	return o
}

// WithLimit задаёт размер выборки.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithInactiveSince задаёт фильтр по неактивности.
func (o ListOptions) WithInactiveSince(t time.Time) ListOptions {
	o.InactiveSince = t
	return o
}
