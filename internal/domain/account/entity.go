// Package account содержит доменную модель аккаунта CyberGuard Academy.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package account

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет суммарные очки опыта аккаунта за всё время.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Diff вычисляет разницу между двумя значениями XP.
func (x XP) Diff(other XP) XP {
	return x - other
}

// Level представляет уровень аккаунта, вычисляемый из суммарного XP.
type Level int

// XPPerLevel - фиксированная ширина уровня в очках опыта.
const XPPerLevel = 1000

// CalculateLevel вычисляет уровень на основе суммарного XP.
// Формула: каждые 1000 XP = 1 уровень, новый аккаунт начинает с 1 уровня.
func CalculateLevel(total XP) Level {
	if total < 0 {
		return 1
	}
	return Level(int(total)/XPPerLevel + 1)
}

// XPWithinLevel возвращает очки опыта внутри текущего уровня (0-999).
func XPWithinLevel(total XP) XP {
	if total < 0 {
		return 0
	}
	return XP(int(total) % XPPerLevel)
}

// RiskScore представляет оценку защищённости аккаунта (0-100, больше - лучше).
type RiskScore int

const (
	// MinRiskScore - нижняя граница оценки риска.
	MinRiskScore RiskScore = 0
	// MaxRiskScore - верхняя граница оценки риска.
	MaxRiskScore RiskScore = 100
	// DefaultRiskScore - оценка риска нового аккаунта.
	DefaultRiskScore RiskScore = 45
)

// Clamp приводит значение к диапазону [0, 100] без ошибки.
func (r RiskScore) Clamp() RiskScore {
	if r < MinRiskScore {
		return MinRiskScore
	}
	if r > MaxRiskScore {
		return MaxRiskScore
	}
	return r
}

// IsValid проверяет, что оценка риска в допустимом диапазоне.
func (r RiskScore) IsValid() bool {
	return r >= MinRiskScore && r <= MaxRiskScore
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус аккаунта.
type Status string

const (
	// StatusActive - аккаунт активно занимается.
	StatusActive Status = "active"
	// StatusDormant - аккаунт неактивен (не заходил более N дней).
	StatusDormant Status = "dormant"
	// StatusSuspended - аккаунт временно заблокирован.
	StatusSuspended Status = "suspended"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDormant, StatusSuspended:
		return true
	default:
		return false
	}
}

// CanPlay возвращает true, если аккаунту разрешено проходить контент.
func (s Status) CanPlay() bool {
	return s == StatusActive || s == StatusDormant
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ACCOUNT
// Агрегат объединяет неизменяемую идентичность и журнал прогресса.
// Уровень и опыт внутри уровня ВСЕГДА вычисляются из TotalXP и нигде
// не хранятся отдельно.
// ══════════════════════════════════════════════════════════════════════════════

// Account - центральная сущность системы.
type Account struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Email - адрес электронной почты.
	Email string

	// Avatar - идентификатор аватара.
	Avatar string

	// PasswordHash - bcrypt-хеш пароля. Устанавливается слоем приложения.
	PasswordHash string

	// TotalXP - суммарный опыт за всё время. Единственный источник
	// истины для уровня и опыта внутри уровня.
	TotalXP XP

	// RiskScore - текущая оценка защищённости (0-100).
	RiskScore RiskScore

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// Badges - полученные значки. Повторная выдача того же значка невозможна.
	Badges []Badge

	// CompletedMissionIDs - идентификаторы пройденных миссий (множество).
	CompletedMissionIDs []string

	// CompletedGameIDs - идентификаторы пройденных мини-игр (множество).
	CompletedGameIDs []string

	// HelpCount - количество оказанных помощей другим участникам.
	HelpCount int

	// MasteredRoleIDs - роли, по которым пройдены все сценарии.
	MasteredRoleIDs []string

	// Status - текущий статус аккаунта.
	Status Status

	// LastActivityAt - время последней зачтённой активности.
	LastActivityAt time.Time

	// JoinedAt - время регистрации.
	JoinedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidEmail - невалидный email.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidXP - невалидное значение XP.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrNegativeAward - попытка начислить отрицательный опыт.
	ErrNegativeAward = errors.New("xp award must be non-negative")

	// ErrInvalidStatus - невалидный статус аккаунта.
	ErrInvalidStatus = errors.New("invalid account status")

	// ErrEmptyBadgeID - значок без идентификатора.
	ErrEmptyBadgeID = errors.New("badge id is required")

	// ErrEmptyContentID - пустой идентификатор миссии или игры.
	ErrEmptyContentID = errors.New("content id is required")

	// ErrAccountNotFound - аккаунт не найден.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists - аккаунт уже существует.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrAccountSuspended - аккаунт заблокирован.
	ErrAccountSuspended = errors.New("account is suspended")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewAccountParams содержит параметры для создания нового аккаунта.
type NewAccountParams struct {
	ID          string
	DisplayName string
	Email       string
	Avatar      string
}

// NewAccount создаёт новый аккаунт с валидацией всех полей.
// Прогресс начинается с нуля: 1 уровень, 0 XP, оценка риска 45.
func NewAccount(params NewAccountParams) (*Account, error) {
	if params.ID == "" {
		return nil, errors.New("account id is required")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if !strings.Contains(email, "@") || len(email) < 5 {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()

	return &Account{
		ID:                  params.ID,
		DisplayName:         displayName,
		Email:               email,
		Avatar:              params.Avatar,
		TotalXP:             0,
		RiskScore:           DefaultRiskScore,
		CurrentStreak:       0,
		Badges:              []Badge{},
		CompletedMissionIDs: []string{},
		CompletedGameIDs:    []string{},
		MasteredRoleIDs:     []string{},
		Status:              StatusActive,
		LastActivityAt:      now,
		JoinedAt:            now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS: XP & LEVEL
// ══════════════════════════════════════════════════════════════════════════════

// Level возвращает текущий уровень аккаунта (производное от TotalXP).
func (a *Account) Level() Level {
	return CalculateLevel(a.TotalXP)
}

// ExperiencePoints возвращает опыт внутри текущего уровня (0-999).
func (a *Account) ExperiencePoints() XP {
	return XPWithinLevel(a.TotalXP)
}

// LevelChange описывает изменение уровня после начисления опыта.
type LevelChange struct {
	OldLevel Level
	NewLevel Level
	OldTotal XP
	NewTotal XP
}

// LeveledUp возвращает true, если уровень вырос.
// Одно крупное начисление может поднять сразу несколько уровней.
func (c LevelChange) LeveledUp() bool {
	return c.NewLevel > c.OldLevel
}

// LevelsGained возвращает число полученных уровней.
func (c LevelChange) LevelsGained() int {
	return int(c.NewLevel - c.OldLevel)
}

// AwardExperience начисляет опыт. Единственный способ изменить TotalXP
// вне полного сброса прогресса. Нулевое начисление допустимо и ничего
// не меняет, отрицательное - ошибка.
func (a *Account) AwardExperience(amount int) (LevelChange, error) {
	change := LevelChange{
		OldLevel: a.Level(),
		OldTotal: a.TotalXP,
	}

	if amount < 0 {
		change.NewLevel = change.OldLevel
		change.NewTotal = change.OldTotal
		return change, ErrNegativeAward
	}

	a.TotalXP = a.TotalXP.Add(XP(amount))
	a.touch()

	change.NewLevel = a.Level()
	change.NewTotal = a.TotalXP
	return change, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS: RISK SCORE
// ══════════════════════════════════════════════════════════════════════════════

// SetRiskScore устанавливает оценку риска с тихим ограничением [0, 100].
// Выход за границы не является ошибкой.
func (a *Account) SetRiskScore(score int) RiskScore {
	a.RiskScore = RiskScore(score).Clamp()
	a.touch()
	return a.RiskScore
}

// ImproveRiskScore повышает оценку на delta (лучшая защищённость).
func (a *Account) ImproveRiskScore(delta int) RiskScore {
	return a.SetRiskScore(int(a.RiskScore) + delta)
}

// DegradeRiskScore снижает оценку на delta.
func (a *Account) DegradeRiskScore(delta int) RiskScore {
	return a.SetRiskScore(int(a.RiskScore) - delta)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS: STREAK
// Серия меняется только двумя способами: инкремент и сброс.
// Политика "сгорания" серии живёт снаружи (фоновый аудит).
// ══════════════════════════════════════════════════════════════════════════════

// IncrementStreak увеличивает серию активных дней на один.
func (a *Account) IncrementStreak() int {
	a.CurrentStreak++
	a.touch()
	return a.CurrentStreak
}

// ResetStreak сбрасывает серию в ноль и возвращает прежнее значение.
func (a *Account) ResetStreak() int {
	previous := a.CurrentStreak
	a.CurrentStreak = 0
	a.touch()
	return previous
}

// RecordActivity отмечает активность для фонового аудита серий.
func (a *Account) RecordActivity(at time.Time) {
	a.LastActivityAt = at.UTC()
	if a.Status == StatusDormant {
		a.Status = StatusActive
	}
	a.touch()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS: BADGES & COMPLETIONS
// ══════════════════════════════════════════════════════════════════════════════

// HasBadge проверяет наличие значка по идентификатору.
func (a *Account) HasBadge(badgeID string) bool {
	for _, b := range a.Badges {
		if b.ID == badgeID {
			return true
		}
	}
	return false
}

// AddBadge добавляет значок. Повторная выдача значка с тем же ID -
// безопасный no-op, возвращает false.
func (a *Account) AddBadge(badge Badge) (bool, error) {
	if badge.ID == "" {
		return false, ErrEmptyBadgeID
	}
	if a.HasBadge(badge.ID) {
		return false, nil
	}
	if badge.EarnedAt.IsZero() {
		badge.EarnedAt = time.Now().UTC()
	}
	a.Badges = append(a.Badges, badge)
	a.touch()
	return true, nil
}

// HasCompletedMission проверяет, пройдена ли миссия.
func (a *Account) HasCompletedMission(missionID string) bool {
	return containsID(a.CompletedMissionIDs, missionID)
}

// CompleteMission отмечает миссию пройденной. Возвращает true только
// при ПЕРВОМ прохождении; повторы ничего не меняют.
func (a *Account) CompleteMission(missionID string) (bool, error) {
	if missionID == "" {
		return false, ErrEmptyContentID
	}
	if a.HasCompletedMission(missionID) {
		return false, nil
	}
	a.CompletedMissionIDs = append(a.CompletedMissionIDs, missionID)
	a.touch()
	return true, nil
}

// HasCompletedGame проверяет, пройдена ли мини-игра.
func (a *Account) HasCompletedGame(gameID string) bool {
	return containsID(a.CompletedGameIDs, gameID)
}

// CompleteGame отмечает мини-игру пройденной. Семантика идентична
// CompleteMission: true только при первом прохождении.
func (a *Account) CompleteGame(gameID string) (bool, error) {
	if gameID == "" {
		return false, ErrEmptyContentID
	}
	if a.HasCompletedGame(gameID) {
		return false, nil
	}
	a.CompletedGameIDs = append(a.CompletedGameIDs, gameID)
	a.touch()
	return true, nil
}

// MissionsCompleted возвращает число пройденных миссий.
func (a *Account) MissionsCompleted() int {
	return len(a.CompletedMissionIDs)
}

// GamesCompleted возвращает число пройденных мини-игр.
func (a *Account) GamesCompleted() int {
	return len(a.CompletedGameIDs)
}

// RecordHelp учитывает оказанную помощь другому участнику.
func (a *Account) RecordHelp() int {
	a.HelpCount++
	a.touch()
	return a.HelpCount
}

// HasMasteredRole проверяет, освоена ли роль.
func (a *Account) HasMasteredRole(roleID string) bool {
	return containsID(a.MasteredRoleIDs, roleID)
}

// MasterRole отмечает роль освоенной (множество, как и прохождения).
func (a *Account) MasterRole(roleID string) bool {
	if roleID == "" || a.HasMasteredRole(roleID) {
		return false
	}
	a.MasteredRoleIDs = append(a.MasteredRoleIDs, roleID)
	a.touch()
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS: RESET & STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgress полностью сбрасывает прогресс, сохраняя идентичность:
// ID, имя, email, дата регистрации и хеш пароля не меняются.
func (a *Account) ResetProgress() {
	a.TotalXP = 0
	a.RiskScore = DefaultRiskScore
	a.CurrentStreak = 0
	a.Badges = []Badge{}
	a.CompletedMissionIDs = []string{}
	a.CompletedGameIDs = []string{}
	a.MasteredRoleIDs = []string{}
	a.HelpCount = 0
	a.touch()
}

// MarkDormant помечает аккаунт как неактивный.
func (a *Account) MarkDormant() error {
	if a.Status == StatusSuspended {
		return ErrAccountSuspended
	}
	a.Status = StatusDormant
	a.touch()
	return nil
}

// Suspend блокирует аккаунт.
func (a *Account) Suspend() {
	a.Status = StatusSuspended
	a.touch()
}

// Reactivate возвращает аккаунт в активное состояние.
func (a *Account) Reactivate() {
	a.Status = StatusActive
	a.touch()
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY METHODS
// ══════════════════════════════════════════════════════════════════════════════

// Clone возвращает глубокую копию аккаунта.
func (a *Account) Clone() *Account {
	clone := *a
	clone.Badges = make([]Badge, len(a.Badges))
	copy(clone.Badges, a.Badges)
	clone.CompletedMissionIDs = append([]string{}, a.CompletedMissionIDs...)
	clone.CompletedGameIDs = append([]string{}, a.CompletedGameIDs...)
	clone.MasteredRoleIDs = append([]string{}, a.MasteredRoleIDs...)
	return &clone
}

// String возвращает строковое представление для логов.
func (a *Account) String() string {
	return fmt.Sprintf("Account{ID: %s, Name: %s, Level: %d, TotalXP: %d, Risk: %d, Streak: %d}",
		a.ID, a.DisplayName, a.Level(), a.TotalXP, a.RiskScore, a.CurrentStreak)
}

// touch обновляет время последнего изменения.
func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
