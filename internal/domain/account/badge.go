package account

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// Значки выдаются за конкретные события (первая миссия, серия дней,
// высокий счёт). Множество значков аккаунта не допускает дублей по ID.
// ══════════════════════════════════════════════════════════════════════════════

// Rarity определяет редкость значка.
type Rarity string

const (
	// RarityCommon - обычный значок.
	RarityCommon Rarity = "common"
	// RarityRare - редкий значок.
	RarityRare Rarity = "rare"
	// RarityEpic - эпический значок.
	RarityEpic Rarity = "epic"
	// RarityLegendary - легендарный значок.
	RarityLegendary Rarity = "legendary"
	// RarityMythic - мифический значок.
	RarityMythic Rarity = "mythic"
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

// Order возвращает порядковый номер редкости для сортировки.
func (r Rarity) Order() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityRare:
		return 1
	case RarityEpic:
		return 2
	case RarityLegendary:
		return 3
	case RarityMythic:
		return 4
	default:
		return -1
	}
}

// String возвращает строковое представление редкости.
func (r Rarity) String() string {
	return string(r)
}

// Badge - значок, полученный аккаунтом.
type Badge struct {
	// ID - уникальный идентификатор значка.
	ID string

	// Name - отображаемое название.
	Name string

	// Description - описание условия получения.
	Description string

	// Icon - идентификатор иконки.
	Icon string

	// Rarity - редкость значка.
	Rarity Rarity

	// EarnedAt - время получения.
	EarnedAt time.Time
}

// ErrInvalidRarity - невалидная редкость значка.
var ErrInvalidRarity = errors.New("invalid badge rarity")

// NewBadge создаёт значок с валидацией.
func NewBadge(id, name, description, icon string, rarity Rarity) (Badge, error) {
	if id == "" {
		return Badge{}, ErrEmptyBadgeID
	}
	if !rarity.IsValid() {
		return Badge{}, ErrInvalidRarity
	}
	return Badge{
		ID:          id,
		Name:        name,
		Description: description,
		Icon:        icon,
		Rarity:      rarity,
		EarnedAt:    time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDARD BADGE CATALOG
// Значки, которые выдаёт поток прохождения миссий и игр.
// ══════════════════════════════════════════════════════════════════════════════

// Идентификаторы стандартных значков.
const (
	BadgeFirstMission   = "first-mission"
	BadgeMissionVeteran = "mission-veteran"
	BadgeHighScorer     = "high-scorer"
)

// Пороговые значения для выдачи стандартных значков.
const (
	// MissionVeteranThreshold - число миссий для значка "ветеран".
	MissionVeteranThreshold = 5

	// HighScorerThreshold - минимальный счёт сессии для значка "рекордсмен".
	HighScorerThreshold = 1000
)

// FirstMissionBadge возвращает значок за первую пройденную миссию.
func FirstMissionBadge() Badge {
	b, _ := NewBadge(BadgeFirstMission, "First Steps", "Complete your first mission", "🎯", RarityCommon)
	return b
}

// MissionVeteranBadge возвращает значок за пять пройденных миссий.
func MissionVeteranBadge() Badge {
	b, _ := NewBadge(BadgeMissionVeteran, "Mission Veteran", "Complete 5 missions", "🏅", RarityRare)
	return b
}

// HighScorerBadge возвращает значок за сессию со счётом 1000+.
func HighScorerBadge() Badge {
	b, _ := NewBadge(BadgeHighScorer, "High Scorer", "Score 1000+ points in a single session", "💯", RarityEpic)
	return b
}
