package leaderboard

import "context"

// Ranking определяет быстрый доступ к рейтингу (реализация - Redis ZSET).
type Ranking interface {
	// UpdateScore обновляет очки аккаунта в рейтинге.
	UpdateScore(ctx context.Context, accountID string, totalXP int) error

	// GetTop возвращает первые n строк рейтинга.
	GetTop(ctx context.Context, n int) ([]Entry, error)

	// GetRank возвращает позицию аккаунта (0 - не в рейтинге).
	GetRank(ctx context.Context, accountID string) (int, error)

	// GetNeighbors возвращает строки вокруг аккаунта (radius в обе стороны).
	GetNeighbors(ctx context.Context, accountID string, radius int) ([]Entry, error)

	// Remove удаляет аккаунт из рейтинга.
	Remove(ctx context.Context, accountID string) error

	// Rebuild полностью перестраивает рейтинг из набора очков.
	Rebuild(ctx context.Context, scores []Score) error
}
