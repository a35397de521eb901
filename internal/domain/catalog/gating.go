package catalog

import (
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK GATING RESOLVER
// Единственный источник истины о доступности контента. Флаги
// "открыто/закрыто" нигде не хранятся - доступность всегда вычисляется
// заново из текущего уровня и множества пройденных миссий.
// ══════════════════════════════════════════════════════════════════════════════

// Resolver вычисляет доступность контента для аккаунта.
type Resolver struct {
	missions map[string]*Mission
}

// NewResolver создаёт резолвер над набором миссий каталога.
func NewResolver(missions []*Mission) *Resolver {
	index := make(map[string]*Mission, len(missions))
	for _, m := range missions {
		index[m.ID] = m
	}
	return &Resolver{missions: index}
}

// MissionAccessible возвращает true, если миссия доступна аккаунту.
// Условия объединяются через И:
//
//  1. уровень аккаунта >= UnlockLevel миссии;
//  2. КАЖДАЯ миссия из Prerequisites уже пройдена.
//
// Прохождение предусловий не компенсирует нехватку уровня, и наоборот.
// Предусловие, ссылающееся на неизвестную миссию, не может быть
// выполнено никогда.
func (r *Resolver) MissionAccessible(acct *account.Account, mission *Mission) bool {
	if mission == nil || acct == nil {
		return false
	}
	if int(acct.Level()) < mission.UnlockLevel {
		return false
	}
	for _, prereqID := range mission.Prerequisites {
		if !acct.HasCompletedMission(prereqID) {
			return false
		}
	}
	return true
}

// GameAccessible возвращает true, если мини-игра доступна аккаунту.
// Игры открываются только по уровню.
func (r *Resolver) GameAccessible(acct *account.Account, game *MiniGame) bool {
	if game == nil || acct == nil {
		return false
	}
	return int(acct.Level()) >= game.UnlockLevel
}

// RoleAccessible возвращает true, если роль доступна аккаунту.
func (r *Resolver) RoleAccessible(acct *account.Account, role *Role) bool {
	if role == nil || acct == nil {
		return false
	}
	return int(acct.Level()) >= role.UnlockLevel
}

// AccessibleMissions возвращает доступные миссии, сохраняя порядок каталога.
func (r *Resolver) AccessibleMissions(acct *account.Account, missions []*Mission) []*Mission {
	result := make([]*Mission, 0, len(missions))
	for _, m := range missions {
		if r.MissionAccessible(acct, m) {
			result = append(result, m)
		}
	}
	return result
}

// AccessibleGames возвращает доступные мини-игры.
func (r *Resolver) AccessibleGames(acct *account.Account, games []*MiniGame) []*MiniGame {
	result := make([]*MiniGame, 0, len(games))
	for _, g := range games {
		if r.GameAccessible(acct, g) {
			result = append(result, g)
		}
	}
	return result
}

// AccessibleRoles возвращает доступные роли.
func (r *Resolver) AccessibleRoles(acct *account.Account, roles []*Role) []*Role {
	result := make([]*Role, 0, len(roles))
	for _, role := range roles {
		if r.RoleAccessible(acct, role) {
			result = append(result, role)
		}
	}
	return result
}

// PrerequisiteHint - непройденное предусловие миссии для подсказки в
// интерфейсе. Title берётся из индекса каталога; пустой Title означает,
// что каталог такую миссию не знает и предусловие невыполнимо.
type PrerequisiteHint struct {
	MissionID string
	Title     string
}

// MissingPrerequisites возвращает непройденные предусловия миссии с
// названиями из каталога (для подсказок в интерфейсе).
func (r *Resolver) MissingPrerequisites(acct *account.Account, mission *Mission) []PrerequisiteHint {
	if mission == nil || acct == nil {
		return nil
	}
	missing := []PrerequisiteHint{}
	for _, prereqID := range mission.Prerequisites {
		if acct.HasCompletedMission(prereqID) {
			continue
		}
		hint := PrerequisiteHint{MissionID: prereqID}
		if known, ok := r.missions[prereqID]; ok {
			hint.Title = known.Title
		}
		missing = append(missing, hint)
	}
	return missing
}
