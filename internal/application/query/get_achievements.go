package query

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/achievement"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Возвращает каталог достижений глазами аккаунта: разблокированные - с
// временем разблокировки, секретные и ещё не открытые - скрыты.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery содержит параметры запроса достижений.
type GetAchievementsQuery struct {
	// AccountID - внутренний ID аккаунта.
	AccountID string

	// OnlyUnlocked - вернуть только разблокированные.
	OnlyUnlocked bool
}

// Validate проверяет корректность параметров запроса.
func (q GetAchievementsQuery) Validate() error {
	if q.AccountID == "" {
		return errors.New("account_id is required")
	}
	return nil
}

// AchievementDTO - достижение в ответе.
type AchievementDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Rarity      string `json:"rarity"`
	RewardXP    int    `json:"reward_xp"`
	Secret      bool   `json:"secret"`

	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// AchievementsResult - каталог достижений глазами аккаунта.
type AchievementsResult struct {
	AccountID     string           `json:"account_id"`
	Items         []AchievementDTO `json:"items"`
	UnlockedCount int              `json:"unlocked_count"`
	TotalVisible  int              `json:"total_visible"`
}

// GetAchievementsHandler обрабатывает GetAchievementsQuery.
type GetAchievementsHandler struct {
	achievementRepo achievement.Repository
	definitions     []*achievement.Definition
	log             *logger.Logger
}

// NewGetAchievementsHandler создаёт обработчик запроса поверх
// стандартного каталога определений.
func NewGetAchievementsHandler(achievementRepo achievement.Repository, log *logger.Logger) *GetAchievementsHandler {
	return &GetAchievementsHandler{
		achievementRepo: achievementRepo,
		definitions:     achievement.DefaultDefinitions(),
		log:             log.With(logger.Component("get_achievements")),
	}
}

// Handle выполняет запрос.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*AchievementsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	unlocked, err := h.achievementRepo.GetUnlocked(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	if unlocked == nil {
		unlocked = achievement.UnlockedSet{}
	}

	result := &AchievementsResult{
		AccountID: q.AccountID,
		Items:     []AchievementDTO{},
	}

	for _, def := range achievement.VisibleDefinitions(h.definitions, unlocked) {
		record, isUnlocked := unlocked[def.ID]
		if q.OnlyUnlocked && !isUnlocked {
			continue
		}

		dto := AchievementDTO{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			Category:    def.Category,
			Rarity:      string(def.Rarity),
			RewardXP:    def.RewardXP,
			Secret:      def.Secret,
			Unlocked:    isUnlocked,
		}
		if isUnlocked {
			at := record.UnlockedAt
			dto.UnlockedAt = &at
			result.UnlockedCount++
		}
		result.Items = append(result.Items, dto)
	}
	result.TotalVisible = len(result.Items)
	return result, nil
}
