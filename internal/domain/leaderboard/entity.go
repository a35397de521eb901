// Package leaderboard содержит модель глобального рейтинга аккаунтов
// по суммарному опыту. Рейтинг пересчитывается фоновой задачей и
// кешируется в отсортированном множестве Redis.
package leaderboard

import (
	"errors"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка рейтинга.
type Entry struct {
	// Rank - позиция (1 - лучший).
	Rank int

	// AccountID - идентификатор аккаунта.
	AccountID string

	// DisplayName - отображаемое имя.
	DisplayName string

	// Score - суммарный опыт.
	Score int

	// Level - уровень аккаунта.
	Level int

	// Change - изменение позиции с прошлого пересчёта
	// (положительное - поднялся, отрицательное - опустился).
	Change int
}

// IsTop3 возвращает true для призовых мест.
func (e Entry) IsTop3() bool {
	return e.Rank >= 1 && e.Rank <= 3
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyLeaderboard - рейтинг ещё не построен.
var ErrEmptyLeaderboard = errors.New("leaderboard is empty")

// Leaderboard - снимок рейтинга на момент пересчёта.
type Leaderboard struct {
	// Entries - строки от первого места к последнему.
	Entries []Entry

	// GeneratedAt - время пересчёта.
	GeneratedAt time.Time
}

// Score - сырьё для построения рейтинга.
type Score struct {
	AccountID   string
	DisplayName string
	TotalXP     int
	Level       int
}

// Build строит рейтинг из набора очков. Сортировка по убыванию опыта;
// при равенстве очков порядок стабилен по идентификатору. previous
// используется для вычисления Change (может быть nil).
func Build(scores []Score, previous *Leaderboard) *Leaderboard {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalXP != sorted[j].TotalXP {
			return sorted[i].TotalXP > sorted[j].TotalXP
		}
		return sorted[i].AccountID < sorted[j].AccountID
	})

	prevRanks := map[string]int{}
	if previous != nil {
		for _, e := range previous.Entries {
			prevRanks[e.AccountID] = e.Rank
		}
	}

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		change := 0
		if prev, ok := prevRanks[s.AccountID]; ok {
			change = prev - rank // положительное - поднялся
		}
		entries[i] = Entry{
			Rank:        rank,
			AccountID:   s.AccountID,
			DisplayName: s.DisplayName,
			Score:       s.TotalXP,
			Level:       s.Level,
			Change:      change,
		}
	}

	return &Leaderboard{
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}
}

// Top возвращает первые n строк.
func (l *Leaderboard) Top(n int) []Entry {
	if n <= 0 || n > len(l.Entries) {
		n = len(l.Entries)
	}
	result := make([]Entry, n)
	copy(result, l.Entries[:n])
	return result
}

// RankOf возвращает позицию аккаунта (0 - не в рейтинге).
func (l *Leaderboard) RankOf(accountID string) int {
	for _, e := range l.Entries {
		if e.AccountID == accountID {
			return e.Rank
		}
	}
	return 0
}

// Len возвращает размер рейтинга.
func (l *Leaderboard) Len() int {
	return len(l.Entries)
}
