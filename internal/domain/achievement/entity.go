// Package achievement содержит модель достижений и их вычислитель.
// Определения достижений - статический каталог; факты разблокировки
// хранятся на аккаунте.
package achievement

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// RequirementType определяет вид условия достижения.
type RequirementType string

const (
	// RequirementMissionsCompleted - пройдено не менее N миссий.
	RequirementMissionsCompleted RequirementType = "missions_completed"

	// RequirementDailyStreak - серия активных дней не короче N.
	RequirementDailyStreak RequirementType = "daily_streak"

	// RequirementGameAccuracy - точность в мини-играх не ниже N процентов.
	RequirementGameAccuracy RequirementType = "game_accuracy"

	// RequirementMissionTime - миссия пройдена не дольше N секунд.
	RequirementMissionTime RequirementType = "mission_time"

	// RequirementTimeOfDay - не менее N активностей в ночные часы.
	RequirementTimeOfDay RequirementType = "time_of_day"

	// RequirementHelpOthers - оказана помощь не менее N участникам.
	RequirementHelpOthers RequirementType = "help_others"

	// RequirementRoleMastery - освоено не менее N ролей.
	RequirementRoleMastery RequirementType = "role_mastery"

	// RequirementSecretSequence - выполнена секретная последовательность.
	RequirementSecretSequence RequirementType = "secret_sequence"
)

// IsValid проверяет, что тип условия известен.
func (r RequirementType) IsValid() bool {
	switch r {
	case RequirementMissionsCompleted, RequirementDailyStreak,
		RequirementGameAccuracy, RequirementMissionTime,
		RequirementTimeOfDay, RequirementHelpOthers,
		RequirementRoleMastery, RequirementSecretSequence:
		return true
	default:
		return false
	}
}

// Requirement - одно условие достижения. Все условия определения
// объединяются через И.
type Requirement struct {
	// Type - вид условия.
	Type RequirementType

	// Value - пороговое значение.
	Value int

	// Category - необязательное сужение условия по тематике
	// (используется game_accuracy: точность только в играх категории).
	Category string

	// Description - человекочитаемое описание условия.
	Description string
}

// ══════════════════════════════════════════════════════════════════════════════
// RARITY
// ══════════════════════════════════════════════════════════════════════════════

// Rarity определяет редкость достижения.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// IsValid проверяет, что редкость корректна.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary, RarityMythic:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// Ошибки валидации определений.
var (
	// ErrEmptyDefinitionID - определение без идентификатора.
	ErrEmptyDefinitionID = errors.New("achievement definition id is required")

	// ErrNoRequirements - определение без условий.
	ErrNoRequirements = errors.New("achievement definition has no requirements")

	// ErrUnknownRequirement - неизвестный тип условия.
	ErrUnknownRequirement = errors.New("unknown requirement type")

	// ErrNegativeReward - награда опытом не может быть отрицательной.
	ErrNegativeReward = errors.New("reward xp must be non-negative")
)

// Definition - статическое определение достижения.
type Definition struct {
	// ID - уникальный идентификатор достижения.
	ID string

	// Title - отображаемое название.
	Title string

	// Description - описание условия получения.
	Description string

	// Icon - идентификатор иконки.
	Icon string

	// Category - категория достижения (completion, streak, mastery...).
	Category string

	// Rarity - редкость.
	Rarity Rarity

	// Requirements - условия получения (конъюнкция).
	Requirements []Requirement

	// RewardXP - награда опытом при разблокировке. Начисляется через
	// обычный поток AwardExperience, отдельного пути для XP нет.
	RewardXP int

	// RewardTitle - почётный титул при разблокировке.
	RewardTitle string

	// Secret - секретное достижение: вычисляется наравне с остальными,
	// но скрывается в списках до разблокировки.
	Secret bool
}

// Validate проверяет корректность определения.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyDefinitionID
	}
	if len(d.Requirements) == 0 {
		return ErrNoRequirements
	}
	for _, req := range d.Requirements {
		if !req.Type.IsValid() {
			return ErrUnknownRequirement
		}
	}
	if d.RewardXP < 0 {
		return ErrNegativeReward
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCKED RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Unlocked - факт разблокировки достижения аккаунтом.
// Достижение выдаётся не более одного раза.
type Unlocked struct {
	// AchievementID - идентификатор определения.
	AchievementID string

	// AccountID - идентификатор аккаунта.
	AccountID string

	// UnlockedAt - время разблокировки.
	UnlockedAt time.Time
}

// UnlockedSet - множество разблокированных достижений аккаунта.
type UnlockedSet map[string]Unlocked

// Contains проверяет, разблокировано ли достижение.
func (s UnlockedSet) Contains(achievementID string) bool {
	_, ok := s[achievementID]
	return ok
}

// Add добавляет факт разблокировки. Повторное добавление - no-op.
func (s UnlockedSet) Add(record Unlocked) bool {
	if s.Contains(record.AchievementID) {
		return false
	}
	s[record.AchievementID] = record
	return true
}
