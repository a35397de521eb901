package query

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACCESSIBLE CONTENT QUERY
// Возвращает каталог с вычисленной доступностью: уровень и пререквизиты
// решают всё, других источников правды о доступе нет. Недоступный
// контент отдаётся с флагом locked и списком недостающих пререквизитов.
// ══════════════════════════════════════════════════════════════════════════════

// GetAccessibleContentQuery содержит параметры запроса каталога.
type GetAccessibleContentQuery struct {
	// AccountID - внутренний ID аккаунта.
	AccountID string

	// IncludeLocked - включать недоступный контент с флагом locked.
	IncludeLocked bool
}

// Validate проверяет корректность параметров запроса.
func (q GetAccessibleContentQuery) Validate() error {
	if q.AccountID == "" {
		return errors.New("account_id is required")
	}
	return nil
}

// MissionDTO - миссия каталога с вычисленной доступностью.
type MissionDTO struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Difficulty    string        `json:"difficulty"`
	Category      string        `json:"category"`
	XPReward      int           `json:"xp_reward"`
	UnlockLevel   int           `json:"unlock_level"`
	Prerequisites []string      `json:"prerequisites"`
	EstimatedTime time.Duration `json:"estimated_time"`

	Locked               bool              `json:"locked"`
	Completed            bool              `json:"completed"`
	MissingPrerequisites []PrerequisiteDTO `json:"missing_prerequisites,omitempty"`
}

// PrerequisiteDTO - непройденное предусловие с названием из каталога.
type PrerequisiteDTO struct {
	MissionID string `json:"mission_id"`
	Title     string `json:"title,omitempty"`
}

// GameDTO - мини-игра каталога с вычисленной доступностью.
type GameDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Category    string `json:"category"`
	XPReward    int    `json:"xp_reward"`
	UnlockLevel int    `json:"unlock_level"`

	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
}

// RoleDTO - роль с вычисленной доступностью.
type RoleDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnlockLevel int    `json:"unlock_level"`

	Locked   bool `json:"locked"`
	Mastered bool `json:"mastered"`
}

// AccessibleContentDTO - каталог глазами конкретного аккаунта.
type AccessibleContentDTO struct {
	AccountID string       `json:"account_id"`
	Level     int          `json:"level"`
	Missions  []MissionDTO `json:"missions"`
	Games     []GameDTO    `json:"games"`
	Roles     []RoleDTO    `json:"roles"`
}

// GetAccessibleContentHandler обрабатывает GetAccessibleContentQuery.
type GetAccessibleContentHandler struct {
	accountRepo account.Repository
	catalogRepo catalog.Repository
	log         *logger.Logger
}

// NewGetAccessibleContentHandler создаёт обработчик запроса.
func NewGetAccessibleContentHandler(accountRepo account.Repository, catalogRepo catalog.Repository, log *logger.Logger) *GetAccessibleContentHandler {
	return &GetAccessibleContentHandler{
		accountRepo: accountRepo,
		catalogRepo: catalogRepo,
		log:         log.With(logger.Component("get_accessible_content")),
	}
}

// Handle выполняет запрос.
func (h *GetAccessibleContentHandler) Handle(ctx context.Context, q GetAccessibleContentQuery) (*AccessibleContentDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	acct, err := h.accountRepo.GetByID(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}

	missions, err := h.catalogRepo.ListMissions(ctx)
	if err != nil {
		return nil, err
	}
	games, err := h.catalogRepo.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := h.catalogRepo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	resolver := catalog.NewResolver(missions)
	result := &AccessibleContentDTO{
		AccountID: acct.ID,
		Level:     int(acct.Level()),
		Missions:  []MissionDTO{},
		Games:     []GameDTO{},
		Roles:     []RoleDTO{},
	}

	for _, m := range missions {
		accessible := resolver.MissionAccessible(acct, m)
		if !accessible && !q.IncludeLocked {
			continue
		}
		dto := MissionDTO{
			ID:            m.ID,
			Title:         m.Title,
			Description:   m.Description,
			Difficulty:    string(m.Difficulty),
			Category:      string(m.Category),
			XPReward:      m.XPReward,
			UnlockLevel:   m.UnlockLevel,
			Prerequisites: append([]string{}, m.Prerequisites...),
			EstimatedTime: m.EstimatedTime,
			Locked:        !accessible,
			Completed:     acct.HasCompletedMission(m.ID),
		}
		if !accessible {
			for _, hint := range resolver.MissingPrerequisites(acct, m) {
				dto.MissingPrerequisites = append(dto.MissingPrerequisites, PrerequisiteDTO{
					MissionID: hint.MissionID,
					Title:     hint.Title,
				})
			}
		}
		result.Missions = append(result.Missions, dto)
	}

	for _, g := range games {
		accessible := resolver.GameAccessible(acct, g)
		if !accessible && !q.IncludeLocked {
			continue
		}
		result.Games = append(result.Games, GameDTO{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			Difficulty:  string(g.Difficulty),
			Category:    string(g.Category),
			XPReward:    g.XPReward,
			UnlockLevel: g.UnlockLevel,
			Locked:      !accessible,
			Completed:   acct.HasCompletedGame(g.ID),
		})
	}

	for _, r := range roles {
		accessible := resolver.RoleAccessible(acct, r)
		if !accessible && !q.IncludeLocked {
			continue
		}
		result.Roles = append(result.Roles, RoleDTO{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			UnlockLevel: r.UnlockLevel,
			Locked:      !accessible,
			Mastered:    acct.HasMasteredRole(r.ID),
		})
	}

	return result, nil
}
