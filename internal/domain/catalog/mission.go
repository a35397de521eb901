// Package catalog содержит доменную модель учебного контента:
// миссии, мини-игры и роли. Контент только для чтения; прогресс
// прохождения живёт в пакете account.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty определяет сложность миссии.
type Difficulty string

const (
	// DifficultyBeginner - вводные миссии.
	DifficultyBeginner Difficulty = "beginner"
	// DifficultyIntermediate - миссии среднего уровня.
	DifficultyIntermediate Difficulty = "intermediate"
	// DifficultyAdvanced - продвинутые миссии.
	DifficultyAdvanced Difficulty = "advanced"
	// DifficultyExpert - экспертные миссии.
	DifficultyExpert Difficulty = "expert"
)

// IsValid проверяет, что сложность корректна.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	default:
		return false
	}
}

// RiskImprovement возвращает, на сколько пунктов прохождение миссии
// этой сложности повышает оценку защищённости аккаунта.
func (d Difficulty) RiskImprovement() int {
	switch d {
	case DifficultyBeginner:
		return 2
	case DifficultyIntermediate:
		return 3
	case DifficultyAdvanced:
		return 4
	case DifficultyExpert:
		return 5
	default:
		return 0
	}
}

// Order возвращает порядковый номер сложности для сортировки.
func (d Difficulty) Order() int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	case DifficultyExpert:
		return 3
	default:
		return -1
	}
}

// Category определяет тематическую категорию контента.
type Category string

const (
	CategoryIncidentResponse  Category = "incident-response"
	CategoryPhishing          Category = "phishing"
	CategoryMalware           Category = "malware"
	CategorySocialEngineering Category = "social-engineering"
	CategoryPasswordSecurity  Category = "password-security"
	CategoryDataProtection    Category = "data-protection"
	CategoryNetworkSecurity   Category = "network-security"
	CategoryCryptography      Category = "cryptography"
)

// IsValid проверяет, что категория корректна.
func (c Category) IsValid() bool {
	switch c {
	case CategoryIncidentResponse, CategoryPhishing, CategoryMalware,
		CategorySocialEngineering, CategoryPasswordSecurity,
		CategoryDataProtection, CategoryNetworkSecurity, CategoryCryptography:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyMissionID - миссия без идентификатора.
	ErrEmptyMissionID = errors.New("mission id is required")

	// ErrInvalidDifficulty - невалидная сложность.
	ErrInvalidDifficulty = errors.New("invalid mission difficulty")

	// ErrInvalidUnlockLevel - уровень открытия должен быть не меньше 1.
	ErrInvalidUnlockLevel = errors.New("unlock level must be at least 1")

	// ErrNegativeXPReward - награда опытом не может быть отрицательной.
	ErrNegativeXPReward = errors.New("xp reward must be non-negative")

	// ErrMissionNotFound - миссия не найдена в каталоге.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrGameNotFound - мини-игра не найдена в каталоге.
	ErrGameNotFound = errors.New("mini-game not found")

	// ErrRoleNotFound - роль не найдена в каталоге.
	ErrRoleNotFound = errors.New("role not found")

	// ErrMissionLocked - миссия недоступна по уровню или пререквизитам.
	ErrMissionLocked = errors.New("mission is locked")

	// ErrGameLocked - мини-игра недоступна по уровню.
	ErrGameLocked = errors.New("mini-game is locked")
)

// ══════════════════════════════════════════════════════════════════════════════
// MISSION
// ══════════════════════════════════════════════════════════════════════════════

// Mission - учебная миссия с сюжетом и наградой.
type Mission struct {
	// ID - уникальный идентификатор миссии.
	ID string

	// Title - отображаемое название.
	Title string

	// Description - краткое описание сюжета.
	Description string

	// Difficulty - сложность миссии.
	Difficulty Difficulty

	// Category - тематическая категория.
	Category Category

	// XPReward - награда опытом за первое прохождение.
	XPReward int

	// UnlockLevel - минимальный уровень аккаунта для доступа.
	UnlockLevel int

	// Prerequisites - миссии, которые должны быть пройдены до этой.
	Prerequisites []string

	// EstimatedTime - ориентировочная длительность прохождения.
	EstimatedTime time.Duration
}

// NewMissionParams содержит параметры для создания миссии.
type NewMissionParams struct {
	ID            string
	Title         string
	Description   string
	Difficulty    Difficulty
	Category      Category
	XPReward      int
	UnlockLevel   int
	Prerequisites []string
	EstimatedTime time.Duration
}

// NewMission создаёт миссию с валидацией.
func NewMission(params NewMissionParams) (*Mission, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrEmptyMissionID
	}
	if !params.Difficulty.IsValid() {
		return nil, ErrInvalidDifficulty
	}
	if params.UnlockLevel < 1 {
		return nil, ErrInvalidUnlockLevel
	}
	if params.XPReward < 0 {
		return nil, ErrNegativeXPReward
	}

	prereqs := params.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}

	return &Mission{
		ID:            params.ID,
		Title:         params.Title,
		Description:   params.Description,
		Difficulty:    params.Difficulty,
		Category:      params.Category,
		XPReward:      params.XPReward,
		UnlockLevel:   params.UnlockLevel,
		Prerequisites: prereqs,
		EstimatedTime: params.EstimatedTime,
	}, nil
}

// HasPrerequisites возвращает true, если у миссии есть обязательные
// предшественники.
func (m *Mission) HasPrerequisites() bool {
	return len(m.Prerequisites) > 0
}
