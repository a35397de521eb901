package query

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Возвращает топ-N рейтинга и, при необходимости, окрестность
// запрашивающего аккаунта. Читает из быстрого рейтинга (Redis ZSET),
// который фоновая задача перестраивает из системы записи.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// AccountID - если задан, в ответ добавляется позиция аккаунта
	// и его соседи.
	AccountID string

	// NeighborRadius - сколько соседей с каждой стороны (по умолчанию 2).
	NeighborRadius int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.NeighborRadius <= 0 {
		q.NeighborRadius = 2
	}
	return nil
}

// LeaderboardEntryDTO - строка рейтинга в ответе.
type LeaderboardEntryDTO struct {
	Rank        int    `json:"rank"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	Level       int    `json:"level"`

	// Change - изменение позиции с прошлого пересчёта.
	Change int `json:"change"`

	// Direction - "up", "down", "stable".
	Direction string `json:"direction"`

	// Medal - эмодзи призового места (пустая строка вне топ-3).
	Medal string `json:"medal,omitempty"`
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	Entries []LeaderboardEntryDTO `json:"entries"`

	// RequesterRank - позиция запрашивающего (0 - не в рейтинге).
	RequesterRank int `json:"requester_rank,omitempty"`

	// Neighbors - окрестность запрашивающего, если он вне топа.
	Neighbors []LeaderboardEntryDTO `json:"neighbors,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	ranking leaderboard.Ranking
	log     *logger.Logger
}

// NewGetLeaderboardHandler создаёт обработчик запроса.
func NewGetLeaderboardHandler(ranking leaderboard.Ranking, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		ranking: ranking,
		log:     log.With(logger.Component("get_leaderboard")),
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	top, err := h.ranking.GetTop(ctx, q.Limit)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Entries:     make([]LeaderboardEntryDTO, 0, len(top)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, e := range top {
		result.Entries = append(result.Entries, toLeaderboardDTO(e))
	}

	if q.AccountID == "" {
		return result, nil
	}

	rank, err := h.ranking.GetRank(ctx, q.AccountID)
	if err != nil {
		h.log.Warn("rank lookup failed", logger.Err(err), logger.AccountID(q.AccountID))
		return result, nil
	}
	result.RequesterRank = rank

	// Neighbors matter only when the requester is below the visible top
	if rank > q.Limit {
		neighbors, err := h.ranking.GetNeighbors(ctx, q.AccountID, q.NeighborRadius)
		if err != nil {
			h.log.Warn("neighbors lookup failed", logger.Err(err), logger.AccountID(q.AccountID))
			return result, nil
		}
		for _, e := range neighbors {
			result.Neighbors = append(result.Neighbors, toLeaderboardDTO(e))
		}
	}
	return result, nil
}

func toLeaderboardDTO(e leaderboard.Entry) LeaderboardEntryDTO {
	dto := LeaderboardEntryDTO{
		Rank:        e.Rank,
		AccountID:   e.AccountID,
		DisplayName: e.DisplayName,
		Score:       e.Score,
		Level:       e.Level,
		Change:      e.Change,
		Direction:   "stable",
	}
	switch {
	case e.Change > 0:
		dto.Direction = "up"
	case e.Change < 0:
		dto.Direction = "down"
	}
	switch e.Rank {
	case 1:
		dto.Medal = "🥇"
	case 2:
		dto.Medal = "🥈"
	case 3:
		dto.Medal = "🥉"
	}
	return dto
}
