package catalog

import "context"

// Repository определяет хранилище каталога контента.
// Каталог редактируется только миграциями, поэтому интерфейс read-mostly.
type Repository interface {
	// GetMission возвращает миссию по ID.
	GetMission(ctx context.Context, id string) (*Mission, error)

	// ListMissions возвращает все миссии в порядке каталога.
	ListMissions(ctx context.Context) ([]*Mission, error)

	// GetGame возвращает мини-игру по ID.
	GetGame(ctx context.Context, id string) (*MiniGame, error)

	// ListGames возвращает все мини-игры.
	ListGames(ctx context.Context) ([]*MiniGame, error)

	// GetRole возвращает роль по ID.
	GetRole(ctx context.Context, id string) (*Role, error)

	// ListRoles возвращает все роли.
	ListRoles(ctx context.Context) ([]*Role, error)

	// UpsertMission добавляет или обновляет миссию (миграции/сиды).
	UpsertMission(ctx context.Context, mission *Mission) error

	// UpsertGame добавляет или обновляет мини-игру.
	UpsertGame(ctx context.Context, game *MiniGame) error

	// UpsertRole добавляет или обновляет роль.
	UpsertRole(ctx context.Context, role *Role) error
}
