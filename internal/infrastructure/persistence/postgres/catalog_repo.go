// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// The catalog is read-mostly: content is written by seeds and
// migrations, resolved constantly by the unlock gate.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Repository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Missions
// ─────────────────────────────────────────────────────────────────────────────

const missionColumns = `id, title, description, category, difficulty, xp_reward,
	   unlock_level, prerequisite_ids, estimated_minutes`

// GetMission returns a mission by ID.
func (r *CatalogRepository) GetMission(ctx context.Context, id string) (*catalog.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions WHERE id = $1 AND enabled`, missionColumns)

	row := r.conn.QueryRow(ctx, query, id)
	mission, err := r.scanMission(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, catalog.ErrMissionNotFound
		}
		return nil, err
	}
	return mission, nil
}

// ListMissions returns all enabled missions in catalog order.
func (r *CatalogRepository) ListMissions(ctx context.Context) ([]*catalog.Mission, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM missions
		WHERE enabled
		ORDER BY sort_order, unlock_level, id
	`, missionColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	missions := []*catalog.Mission{}
	for rows.Next() {
		mission, err := r.scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, mission)
	}
	return missions, rows.Err()
}

// UpsertMission adds or updates a mission (seeds/migrations).
func (r *CatalogRepository) UpsertMission(ctx context.Context, mission *catalog.Mission) error {
	query := `
		INSERT INTO missions (id, title, description, category, difficulty, xp_reward,
			unlock_level, prerequisite_ids, estimated_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			difficulty = EXCLUDED.difficulty,
			xp_reward = EXCLUDED.xp_reward,
			unlock_level = EXCLUDED.unlock_level,
			prerequisite_ids = EXCLUDED.prerequisite_ids,
			estimated_minutes = EXCLUDED.estimated_minutes
	`

	_, err := r.conn.Exec(ctx, query,
		mission.ID,
		mission.Title,
		mission.Description,
		string(mission.Category),
		string(mission.Difficulty),
		mission.XPReward,
		mission.UnlockLevel,
		mission.Prerequisites,
		int(mission.EstimatedTime.Minutes()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mission: %w", err)
	}
	return nil
}

func (r *CatalogRepository) scanMission(row pgx.Row) (*catalog.Mission, error) {
	var (
		m          catalog.Mission
		category   string
		difficulty string
		minutes    int
	)
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&category,
		&difficulty,
		&m.XPReward,
		&m.UnlockLevel,
		&m.Prerequisites,
		&minutes,
	)
	if err != nil {
		return nil, err
	}
	m.Category = catalog.Category(category)
	m.Difficulty = catalog.Difficulty(difficulty)
	m.EstimatedTime = time.Duration(minutes) * time.Minute
	if m.Prerequisites == nil {
		m.Prerequisites = []string{}
	}
	return &m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mini-games
// ─────────────────────────────────────────────────────────────────────────────

const gameColumns = `id, name, description, category, difficulty, xp_reward, unlock_level`

// GetGame returns a mini-game by ID.
func (r *CatalogRepository) GetGame(ctx context.Context, id string) (*catalog.MiniGame, error) {
	query := fmt.Sprintf(`SELECT %s FROM mini_games WHERE id = $1 AND enabled`, gameColumns)

	row := r.conn.QueryRow(ctx, query, id)
	game, err := r.scanGame(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, catalog.ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

// ListGames returns all enabled mini-games.
func (r *CatalogRepository) ListGames(ctx context.Context) ([]*catalog.MiniGame, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM mini_games
		WHERE enabled
		ORDER BY sort_order, unlock_level, id
	`, gameColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []*catalog.MiniGame{}
	for rows.Next() {
		game, err := r.scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// UpsertGame adds or updates a mini-game.
func (r *CatalogRepository) UpsertGame(ctx context.Context, game *catalog.MiniGame) error {
	query := `
		INSERT INTO mini_games (id, name, description, category, difficulty, xp_reward, unlock_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			difficulty = EXCLUDED.difficulty,
			xp_reward = EXCLUDED.xp_reward,
			unlock_level = EXCLUDED.unlock_level
	`

	_, err := r.conn.Exec(ctx, query,
		game.ID,
		game.Name,
		game.Description,
		string(game.Category),
		string(game.Difficulty),
		game.XPReward,
		game.UnlockLevel,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}
	return nil
}

func (r *CatalogRepository) scanGame(row pgx.Row) (*catalog.MiniGame, error) {
	var (
		g          catalog.MiniGame
		category   string
		difficulty string
	)
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&category,
		&difficulty,
		&g.XPReward,
		&g.UnlockLevel,
	)
	if err != nil {
		return nil, err
	}
	g.Category = catalog.Category(category)
	g.Difficulty = catalog.GameDifficulty(difficulty)
	return &g, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Career roles
// ─────────────────────────────────────────────────────────────────────────────

const roleColumns = `id, name, description, unlock_level, scenario_ids`

// GetRole returns a career role by ID.
func (r *CatalogRepository) GetRole(ctx context.Context, id string) (*catalog.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM career_roles WHERE id = $1 AND enabled`, roleColumns)

	row := r.conn.QueryRow(ctx, query, id)
	role, err := r.scanRole(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, catalog.ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

// ListRoles returns all enabled career roles.
func (r *CatalogRepository) ListRoles(ctx context.Context) ([]*catalog.Role, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM career_roles
		WHERE enabled
		ORDER BY sort_order, unlock_level, id
	`, roleColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []*catalog.Role{}
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpsertRole adds or updates a career role.
func (r *CatalogRepository) UpsertRole(ctx context.Context, role *catalog.Role) error {
	query := `
		INSERT INTO career_roles (id, name, description, unlock_level, scenario_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			unlock_level = EXCLUDED.unlock_level,
			scenario_ids = EXCLUDED.scenario_ids
	`

	_, err := r.conn.Exec(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.UnlockLevel,
		role.ScenarioIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert role: %w", err)
	}
	return nil
}

func (r *CatalogRepository) scanRole(row pgx.Row) (*catalog.Role, error) {
	var role catalog.Role
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.UnlockLevel,
		&role.ScenarioIDs,
	)
	if err != nil {
		return nil, err
	}
	if role.ScenarioIDs == nil {
		role.ScenarioIDs = []string{}
	}
	return &role, nil
}
