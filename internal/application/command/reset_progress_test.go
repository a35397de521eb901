package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

func (env *commandEnv) resetHandler() *ResetProgressHandler {
	return NewResetProgressHandler(
		env.accounts, env.achievements, env.sessions, env.notifications,
		env.snapshots, env.feeds, env.ranking, env.notifier, env.publisher,
		logger.NewNop())
}

// populateProgress прогоняет миссию, чтобы у аккаунта были XP, бейджи,
// достижения, сессии и записи в зависимых хранилищах.
func (env *commandEnv) populateProgress(t *testing.T, accountID string) {
	t.Helper()
	_, err := env.missionHandler().Handle(context.Background(), CompleteMissionCommand{
		AccountID: accountID,
		MissionID: "mission-1",
	})
	require.NoError(t, err)
}

func TestResetProgress_WipesEverything(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	env.populateProgress(t, acct.ID)

	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Equal(t, account.XP(400), stored.TotalXP)

	result, err := env.resetHandler().Handle(context.Background(), ResetProgressCommand{
		AccountID: acct.ID,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 400, result.PreviousXP)
	assert.Equal(t, 1, result.PreviousLevel)
	assert.False(t, result.ResetAt.IsZero())

	// Журнал прогресса вернулся к новорождённому состоянию.
	stored, err = env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(0), stored.TotalXP)
	assert.Equal(t, account.Level(1), stored.Level())
	assert.Equal(t, account.DefaultRiskScore, stored.RiskScore)
	assert.Equal(t, 0, stored.CurrentStreak)
	assert.Empty(t, stored.Badges)
	assert.Empty(t, stored.CompletedMissionIDs)

	// Зависимые хранилища очищены.
	unlocked, err := env.achievements.GetUnlocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	count, err := env.sessions.CountByAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.NotContains(t, env.snapshots.saved, acct.ID)
	assert.NotContains(t, env.feeds.feeds, acct.ID)
	assert.Equal(t, 0, env.ranking.scores[acct.ID])

	assert.Contains(t, env.publisher.eventTypes(), shared.EventProgressReset)
}

func TestResetProgress_PushesNotification(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)

	_, err := env.resetHandler().Handle(context.Background(), ResetProgressCommand{
		AccountID: acct.ID,
		Confirm:   true,
	})
	require.NoError(t, err)

	require.NotEmpty(t, env.notifier.pushed)
	last := env.notifier.pushed[len(env.notifier.pushed)-1]
	assert.Equal(t, notification.ProgressReset(acct.ID).Title, last.Title)
	assert.Equal(t, acct.ID, last.AccountID)
}

func TestResetProgress_RequiresConfirmation(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	env.populateProgress(t, acct.ID)

	_, err := env.resetHandler().Handle(context.Background(), ResetProgressCommand{
		AccountID: acct.ID,
	})
	require.Error(t, err)

	// Без подтверждения прогресс не тронут.
	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(400), stored.TotalXP)
}

func TestResetProgress_UnknownAccount(t *testing.T) {
	env := newCommandEnv(t)

	_, err := env.resetHandler().Handle(context.Background(), ResetProgressCommand{
		AccountID: "missing",
		Confirm:   true,
	})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestResetProgress_IdentitySurvives(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	env.populateProgress(t, acct.ID)

	_, err := env.resetHandler().Handle(context.Background(), ResetProgressCommand{
		AccountID: acct.ID,
		Confirm:   true,
	})
	require.NoError(t, err)

	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agent Vega", stored.DisplayName)
	assert.Equal(t, "vega@cyberguard.academy", stored.Email)
}
