package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

type commandEnv struct {
	accounts      *fakeAccountRepo
	catalog       *fakeCatalogRepo
	sessions      *fakeSessionRepo
	achievements  *fakeAchievementRepo
	notifications *fakeNotificationRepo
	notifier      *fakeNotificationService
	snapshots     *fakeStateStore
	feeds         *fakeFeedStore
	ranking       *fakeRanking
	publisher     *fakePublisher
	flow          *saga.AchievementFlowSaga
	idGen         *seqIDGenerator
}

func newCommandEnv(t *testing.T) *commandEnv {
	t.Helper()
	env := &commandEnv{
		accounts:      newFakeAccountRepo(),
		catalog:       newFakeCatalogRepo(),
		sessions:      newFakeSessionRepo(),
		achievements:  newFakeAchievementRepo(),
		notifications: newFakeNotificationRepo(),
		notifier:      newFakeNotificationService(),
		snapshots:     newFakeStateStore(),
		feeds:         newFakeFeedStore(),
		ranking:       newFakeRanking(),
		publisher:     newFakePublisher(),
		idGen:         &seqIDGenerator{},
	}
	env.flow = saga.NewAchievementFlowSaga(
		env.accounts, env.achievements, env.sessions, env.snapshots,
		env.notifier, env.publisher, logger.NewNop(),
		saga.DefaultAchievementFlowConfig())
	return env
}

func (env *commandEnv) missionHandler() *CompleteMissionHandler {
	return NewCompleteMissionHandler(
		env.accounts, env.catalog, env.sessions, env.snapshots, env.ranking,
		env.notifier, env.publisher, env.flow, env.idGen, logger.NewNop())
}

func (env *commandEnv) seedAccount(t *testing.T) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(account.NewAccountParams{
		ID:          "aaaa1111-2222-4333-8444-555566667777",
		DisplayName: "Agent Vega",
		Email:       "vega@cyberguard.academy",
	})
	require.NoError(t, err)
	require.NoError(t, env.accounts.Create(context.Background(), acct))
	return acct
}

func TestCompleteMission_FirstCompletion(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.missionHandler()

	result, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-1",
		TimeSpent: 12 * time.Minute,
	})
	require.NoError(t, err)

	assert.True(t, result.FirstCompletion)
	assert.Equal(t, 300, result.XPEarned)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.True(t, result.StreakExtended)
	assert.Greater(t, result.RiskScore, int(account.DefaultRiskScore))
	require.Len(t, result.BadgesEarned, 1)

	// Последующая оценка достижений выдала first-steps (+100 XP).
	assert.Contains(t, result.AchievementsUnlocked, "first-steps")
	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(400), stored.TotalXP)

	// Сессия записана, рейтинг и снимок обновлены.
	count, err := env.sessions.CountByAccount(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int(stored.TotalXP), env.ranking.scores[acct.ID])
	assert.Contains(t, env.snapshots.saved, acct.ID)

	types := env.publisher.eventTypes()
	assert.Contains(t, types, shared.EventMissionCompleted)
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventStreakUpdated)
}

func TestCompleteMission_RepeatAwardsNothing(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.missionHandler()

	first, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-1",
	})
	require.NoError(t, err)
	require.True(t, first.FirstCompletion)

	repeat, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-1",
	})
	require.NoError(t, err)

	assert.False(t, repeat.FirstCompletion)
	assert.Equal(t, 0, repeat.XPEarned)
	assert.Empty(t, repeat.BadgesEarned)
	// Второе прохождение в тот же день не продлевает стрик.
	assert.False(t, repeat.StreakExtended)

	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(400), stored.TotalXP)
}

func TestCompleteMission_LockedByLevel(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.missionHandler()

	// mission-3 открывается с 3 уровня и требует mission-1.
	_, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-3",
	})
	assert.ErrorIs(t, err, catalog.ErrMissionLocked)
}

func TestCompleteMission_LockedByPrerequisite(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	// Уровень достаточный, но mission-1 не пройдена.
	_, err := acct.AwardExperience(2500)
	require.NoError(t, err)
	require.NoError(t, env.accounts.Update(context.Background(), acct))

	handler := env.missionHandler()
	_, err = handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-3",
	})
	assert.ErrorIs(t, err, catalog.ErrMissionLocked)
}

func TestCompleteMission_UnknownMission(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.missionHandler()

	_, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-404",
	})
	assert.ErrorIs(t, err, catalog.ErrMissionNotFound)
}

func TestCompleteMission_SuspendedAccount(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	acct.Status = account.StatusSuspended
	handler := env.missionHandler()

	_, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-1",
	})
	assert.ErrorIs(t, err, account.ErrAccountSuspended)
}

func TestCompleteMission_Validation(t *testing.T) {
	env := newCommandEnv(t)
	handler := env.missionHandler()

	_, err := handler.Handle(context.Background(), CompleteMissionCommand{MissionID: "mission-1"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), CompleteMissionCommand{AccountID: "a"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: "a", MissionID: "m", Mistakes: -1,
	})
	assert.Error(t, err)
}

func TestCompleteMission_StreakAcrossDays(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.missionHandler()

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	first, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-1",
		Timestamp: day1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentStreak)

	second, err := handler.Handle(context.Background(), CompleteMissionCommand{
		AccountID: acct.ID,
		MissionID: "mission-2",
		Timestamp: day2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.CurrentStreak)
	assert.True(t, second.StreakExtended)
}
