package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

func (env *commandEnv) gameHandler() *CompleteGameHandler {
	return NewCompleteGameHandler(
		env.accounts, env.catalog, env.sessions, env.snapshots, env.ranking,
		env.notifier, env.publisher, env.flow, env.idGen, logger.NewNop())
}

func TestCompleteGame_FirstCompletion(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	result, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Score:     400,
		Accuracy:  80,
		TimeSpent: 5 * time.Minute,
	})
	require.NoError(t, err)

	assert.True(t, result.FirstCompletion)
	assert.Equal(t, 150, result.XPEarned)
	assert.Greater(t, result.RiskScore, int(account.DefaultRiskScore))

	// Первая активность нового аккаунта начинает серию, даже если это
	// мини-игра: LastActivityAt проставлен при регистрации.
	assert.Equal(t, 1, result.CurrentStreak)
	assert.True(t, result.StreakExtended)

	count, err := env.sessions.CountByAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, env.snapshots.saved, acct.ID)

	types := env.publisher.eventTypes()
	assert.Contains(t, types, shared.EventGameCompleted)
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventStreakUpdated)
}

func TestCompleteGame_RepeatAwardsNothing(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	first, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Accuracy:  80,
	})
	require.NoError(t, err)
	require.True(t, first.FirstCompletion)

	repeat, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Accuracy:  80,
	})
	require.NoError(t, err)

	assert.False(t, repeat.FirstCompletion)
	assert.Equal(t, 0, repeat.XPEarned)
	// Повторный заход в тот же день не продлевает серию.
	assert.False(t, repeat.StreakExtended)

	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(150), stored.TotalXP)
}

func TestCompleteGame_HighScoreBadgeOnAnyRun(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	_, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Score:     200,
		Accuracy:  80,
	})
	require.NoError(t, err)

	// Рекордный счёт на повторном прохождении всё равно даёт значок.
	repeat, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Score:     account.HighScorerThreshold,
		Accuracy:  80,
	})
	require.NoError(t, err)

	require.Len(t, repeat.BadgesEarned, 1)
	assert.Equal(t, account.BadgeHighScorer, repeat.BadgesEarned[0].ID)
}

func TestCompleteGame_LockedByLevel(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	// game-3 открывается с 3 уровня.
	_, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-3",
		Accuracy:  80,
	})
	assert.ErrorIs(t, err, catalog.ErrGameLocked)
}

func TestCompleteGame_UnknownGame(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	_, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-404",
		Accuracy:  80,
	})
	assert.ErrorIs(t, err, catalog.ErrGameNotFound)
}

func TestCompleteGame_SuspendedAccount(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	acct.Status = account.StatusSuspended
	handler := env.gameHandler()

	_, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Accuracy:  80,
	})
	assert.ErrorIs(t, err, account.ErrAccountSuspended)
}

func TestCompleteGame_Validation(t *testing.T) {
	env := newCommandEnv(t)
	handler := env.gameHandler()

	_, err := handler.Handle(context.Background(), CompleteGameCommand{GameID: "game-1"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), CompleteGameCommand{AccountID: "a"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: "a", GameID: "g", Accuracy: 150,
	})
	assert.Error(t, err)
}

func TestCompleteGame_StreakAcrossDays(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.gameHandler()

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	first, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-1",
		Accuracy:  80,
		Timestamp: day1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStreak)

	second, err := handler.Handle(context.Background(), CompleteGameCommand{
		AccountID: acct.ID,
		GameID:    "game-2",
		Accuracy:  80,
		Timestamp: day2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.CurrentStreak)
	assert.True(t, second.StreakExtended)
}
