// Package session содержит записи игровых сессий: прохождения миссий
// и мини-игр с метриками (очки, точность, время). Агрегаты сессий
// питают вычислитель достижений.
package session

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// KINDS
// ══════════════════════════════════════════════════════════════════════════════

// Kind определяет вид сессии.
type Kind string

const (
	// KindMission - прохождение сюжетной миссии.
	KindMission Kind = "mission"
	// KindGame - сессия мини-игры.
	KindGame Kind = "game"
	// KindHelp - помощь другому участнику.
	KindHelp Kind = "help"
)

// IsValid проверяет, что вид сессии известен.
func (k Kind) IsValid() bool {
	switch k {
	case KindMission, KindGame, KindHelp:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptySessionID - сессия без идентификатора.
	ErrEmptySessionID = errors.New("session id is required")

	// ErrEmptyAccountID - сессия без аккаунта.
	ErrEmptyAccountID = errors.New("session account id is required")

	// ErrInvalidKind - неизвестный вид сессии.
	ErrInvalidKind = errors.New("invalid session kind")

	// ErrInvalidAccuracy - точность вне диапазона [0, 100].
	ErrInvalidAccuracy = errors.New("accuracy must be between 0 and 100")

	// ErrNegativeDuration - длительность не может быть отрицательной.
	ErrNegativeDuration = errors.New("duration must be non-negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Session - одна завершённая игровая сессия.
type Session struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// AccountID - кто играл.
	AccountID string

	// Kind - вид сессии.
	Kind Kind

	// ContentID - идентификатор миссии или игры.
	ContentID string

	// Category - тематическая категория контента.
	Category string

	// StartedAt - время начала.
	StartedAt time.Time

	// Duration - длительность сессии.
	Duration time.Duration

	// Score - набранные очки.
	Score int

	// Accuracy - точность в процентах (мини-игры).
	Accuracy int

	// Mistakes - число ошибок.
	Mistakes int

	// XPEarned - начисленный опыт.
	XPEarned int

	// CreatedAt - время записи.
	CreatedAt time.Time
}

// NewSessionParams содержит параметры для записи сессии.
type NewSessionParams struct {
	ID        string
	AccountID string
	Kind      Kind
	ContentID string
	Category  string
	StartedAt time.Time
	Duration  time.Duration
	Score     int
	Accuracy  int
	Mistakes  int
	XPEarned  int
}

// NewSession создаёт запись сессии с валидацией.
func NewSession(params NewSessionParams) (*Session, error) {
	if params.ID == "" {
		return nil, ErrEmptySessionID
	}
	if params.AccountID == "" {
		return nil, ErrEmptyAccountID
	}
	if !params.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if params.Accuracy < 0 || params.Accuracy > 100 {
		return nil, ErrInvalidAccuracy
	}
	if params.Duration < 0 {
		return nil, ErrNegativeDuration
	}

	startedAt := params.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	return &Session{
		ID:        params.ID,
		AccountID: params.AccountID,
		Kind:      params.Kind,
		ContentID: params.ContentID,
		Category:  params.Category,
		StartedAt: startedAt.UTC(),
		Duration:  params.Duration,
		Score:     params.Score,
		Accuracy:  params.Accuracy,
		Mistakes:  params.Mistakes,
		XPEarned:  params.XPEarned,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Ночные часы для достижения "Night Owl": 00:00-05:59 локального времени.
const (
	nightStartHour = 0
	nightEndHour   = 6
)

// IsNightActivity возвращает true, если сессия началась ночью.
func (s *Session) IsNightActivity() bool {
	hour := s.StartedAt.Hour()
	return hour >= nightStartHour && hour < nightEndHour
}

// String возвращает строковое представление для логов.
func (s *Session) String() string {
	return fmt.Sprintf("Session{ID: %s, Kind: %s, Content: %s, Score: %d, Accuracy: %d%%}",
		s.ID, s.Kind, s.ContentID, s.Score, s.Accuracy)
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// Свёртка истории сессий в статистику для вычислителя достижений.
// ══════════════════════════════════════════════════════════════════════════════

// Aggregate - агрегированная статистика сессий аккаунта.
type Aggregate struct {
	// TotalSessions - общее число сессий.
	TotalSessions int

	// BestAccuracy - лучшая точность среди всех мини-игр.
	BestAccuracy int

	// BestAccuracyByCategory - лучшая точность по категориям мини-игр.
	BestAccuracyByCategory map[string]int

	// BestScore - лучший счёт за одну сессию.
	BestScore int

	// FastestMissionTime - лучшее время прохождения миссии (0 - нет данных).
	FastestMissionTime time.Duration

	// NightActivityCount - число ночных сессий.
	NightActivityCount int

	// HelpSessions - число сессий помощи.
	HelpSessions int
}

// Aggregate сворачивает историю сессий в статистику.
func AggregateSessions(sessions []*Session) Aggregate {
	agg := Aggregate{
		BestAccuracyByCategory: map[string]int{},
	}

	for _, s := range sessions {
		agg.TotalSessions++

		if s.IsNightActivity() {
			agg.NightActivityCount++
		}
		if s.Score > agg.BestScore {
			agg.BestScore = s.Score
		}

		switch s.Kind {
		case KindGame:
			if s.Accuracy > agg.BestAccuracy {
				agg.BestAccuracy = s.Accuracy
			}
			if s.Category != "" && s.Accuracy > agg.BestAccuracyByCategory[s.Category] {
				agg.BestAccuracyByCategory[s.Category] = s.Accuracy
			}
		case KindMission:
			if s.Duration > 0 && (agg.FastestMissionTime == 0 || s.Duration < agg.FastestMissionTime) {
				agg.FastestMissionTime = s.Duration
			}
		case KindHelp:
			agg.HelpSessions++
		}
	}

	return agg
}
