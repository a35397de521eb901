// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Возвращает полный журнал прогресса аккаунта: уровень, опыт, серию,
// оценку риска, значки и счётчики прохождений. Уровень и опыт внутри
// уровня всегда вычисляются из суммарного опыта.
// ══════════════════════════════════════════════════════════════════════════════

// CacheTTLProgress - время жизни кешированного аккаунта.
const CacheTTLProgress = 2 * time.Minute

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// AccountID - внутренний ID аккаунта.
	AccountID string
}

// Validate проверяет корректность параметров запроса.
func (q GetProgressQuery) Validate() error {
	if q.AccountID == "" {
		return errors.New("account_id is required")
	}
	return nil
}

// BadgeDTO - значок в ответе.
type BadgeDTO struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Rarity   string    `json:"rarity"`
	EarnedAt time.Time `json:"earned_at"`
}

// ProgressDTO - журнал прогресса аккаунта.
type ProgressDTO struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`

	// Level и XP - производные от TotalXP.
	Level         int     `json:"level"`
	LevelTitle    string  `json:"level_title"`
	TotalXP       int     `json:"total_xp"`
	XP            int     `json:"xp"`
	XPToNextLevel int     `json:"xp_to_next_level"`
	LevelProgress float64 `json:"level_progress"`

	RiskScore      int    `json:"risk_score"`
	RiskLabel      string `json:"risk_label"`
	CurrentStreak  int    `json:"current_streak"`
	Status         string `json:"status"`
	HelpCount      int    `json:"help_count"`
	MissionsDone   int    `json:"missions_done"`
	GamesDone      int    `json:"games_done"`
	MasteredRoles  int    `json:"mastered_roles"`
	Badges         []BadgeDTO `json:"badges"`
	CompletedMissionIDs []string `json:"completed_mission_ids"`
	CompletedGameIDs    []string `json:"completed_game_ids"`

	JoinedAt       time.Time `json:"joined_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// GetProgressHandler обрабатывает GetProgressQuery.
type GetProgressHandler struct {
	accountRepo account.Repository
	cache       account.Cache
	log         *logger.Logger
}

// NewGetProgressHandler создаёт обработчик запроса.
func NewGetProgressHandler(accountRepo account.Repository, cache account.Cache, log *logger.Logger) *GetProgressHandler {
	return &GetProgressHandler{
		accountRepo: accountRepo,
		cache:       cache,
		log:         log.With(logger.Component("get_progress")),
	}
}

// Handle выполняет запрос.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	acct, err := h.load(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}

	return buildProgressDTO(acct), nil
}

func (h *GetProgressHandler) load(ctx context.Context, accountID string) (*account.Account, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, accountID); err == nil && cached != nil {
			return cached, nil
		}
	}

	acct, err := h.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, acct, CacheTTLProgress); err != nil {
			h.log.Warn("cache set failed", logger.Err(err), logger.AccountID(accountID))
		}
	}
	return acct, nil
}

func buildProgressDTO(acct *account.Account) *ProgressDTO {
	total := int(acct.TotalXP)
	within := int(account.XPWithinLevel(acct.TotalXP))
	level := shared.Level(acct.Level())

	badges := make([]BadgeDTO, 0, len(acct.Badges))
	for _, b := range acct.Badges {
		badges = append(badges, BadgeDTO{
			ID:       b.ID,
			Name:     b.Name,
			Icon:     b.Icon,
			Rarity:   string(b.Rarity),
			EarnedAt: b.EarnedAt,
		})
	}

	return &ProgressDTO{
		AccountID:   acct.ID,
		DisplayName: acct.DisplayName,
		Avatar:      acct.Avatar,

		Level:         int(acct.Level()),
		LevelTitle:    level.Title(),
		TotalXP:       total,
		XP:            within,
		XPToNextLevel: account.XPPerLevel - within,
		LevelProgress: float64(within) / float64(account.XPPerLevel),

		RiskScore:     int(acct.RiskScore),
		RiskLabel:     shared.RiskScore(acct.RiskScore).Label(),
		CurrentStreak: acct.CurrentStreak,
		Status:        string(acct.Status),
		HelpCount:     acct.HelpCount,
		MissionsDone:  acct.MissionsCompleted(),
		GamesDone:     acct.GamesCompleted(),
		MasteredRoles: len(acct.MasteredRoleIDs),
		Badges:        badges,

		CompletedMissionIDs: append([]string{}, acct.CompletedMissionIDs...),
		CompletedGameIDs:    append([]string{}, acct.CompletedGameIDs...),

		JoinedAt:       acct.JoinedAt,
		LastActivityAt: acct.LastActivityAt,
	}
}
