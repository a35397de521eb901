package catalog

import (
	"errors"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLES
// Роли - сюжетные карьерные треки (защитник, аналитик, этичный хакер).
// Открываются по уровню; освоение роли учитывается в достижениях.
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyRoleID - роль без идентификатора.
var ErrEmptyRoleID = errors.New("role id is required")

// Role - карьерный трек с собственным набором сценариев.
type Role struct {
	// ID - уникальный идентификатор роли.
	ID string

	// Name - отображаемое название.
	Name string

	// Description - краткое описание трека.
	Description string

	// UnlockLevel - минимальный уровень аккаунта для доступа.
	UnlockLevel int

	// ScenarioIDs - сценарии, входящие в трек.
	ScenarioIDs []string
}

// NewRole создаёт роль с валидацией.
func NewRole(id, name, description string, unlockLevel int, scenarioIDs []string) (*Role, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyRoleID
	}
	if unlockLevel < 1 {
		return nil, ErrInvalidUnlockLevel
	}
	if scenarioIDs == nil {
		scenarioIDs = []string{}
	}
	return &Role{
		ID:          id,
		Name:        name,
		Description: description,
		UnlockLevel: unlockLevel,
		ScenarioIDs: scenarioIDs,
	}, nil
}
