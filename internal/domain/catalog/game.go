package catalog

import (
	"errors"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// MINI-GAMES
// Мини-игры открываются только по уровню, без цепочек предусловий.
// ══════════════════════════════════════════════════════════════════════════════

// GameDifficulty определяет сложность мини-игры.
type GameDifficulty string

const (
	GameDifficultyEasy   GameDifficulty = "easy"
	GameDifficultyMedium GameDifficulty = "medium"
	GameDifficultyHard   GameDifficulty = "hard"
)

// IsValid проверяет, что сложность корректна.
func (g GameDifficulty) IsValid() bool {
	switch g {
	case GameDifficultyEasy, GameDifficultyMedium, GameDifficultyHard:
		return true
	default:
		return false
	}
}

// ErrEmptyGameID - мини-игра без идентификатора.
var ErrEmptyGameID = errors.New("game id is required")

// MiniGame - короткая игровая сессия с очками и точностью.
type MiniGame struct {
	// ID - уникальный идентификатор игры.
	ID string

	// Name - отображаемое название.
	Name string

	// Description - краткое описание.
	Description string

	// Difficulty - сложность игры.
	Difficulty GameDifficulty

	// Category - тематическая категория.
	Category Category

	// XPReward - награда опытом за первое прохождение.
	XPReward int

	// UnlockLevel - минимальный уровень аккаунта для доступа.
	UnlockLevel int
}

// NewMiniGameParams содержит параметры для создания мини-игры.
type NewMiniGameParams struct {
	ID          string
	Name        string
	Description string
	Difficulty  GameDifficulty
	Category    Category
	XPReward    int
	UnlockLevel int
}

// NewMiniGame создаёт мини-игру с валидацией.
func NewMiniGame(params NewMiniGameParams) (*MiniGame, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrEmptyGameID
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

	return &MiniGame{
		ID:          params.ID,
		Name:        params.Name,
		Description: params.Description,
		Difficulty:  params.Difficulty,
		Category:    params.Category,
		XPReward:    params.XPReward,
		UnlockLevel: params.UnlockLevel,
	}, nil
}
