package saga

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

type achievementEnv struct {
	saga         *AchievementFlowSaga
	accounts     *fakeAccountRepo
	achievements *fakeAchievementRepo
	sessions     *fakeSessionRepo
	notifier     *fakeNotificationService
	snapshots    *fakeStateStore
	publisher    *fakePublisher
}

func newAchievementEnv(t *testing.T, cfg AchievementFlowConfig) *achievementEnv {
	t.Helper()
	env := &achievementEnv{
		accounts:     newFakeAccountRepo(),
		achievements: newFakeAchievementRepo(),
		sessions:     newFakeSessionRepo(),
		notifier:     newFakeNotificationService(),
		snapshots:    newFakeStateStore(),
		publisher:    newFakePublisher(),
	}
	env.saga = NewAchievementFlowSaga(
		env.accounts, env.achievements, env.sessions, env.snapshots,
		env.notifier, env.publisher, logger.NewNop(), cfg)
	return env
}

// seedAccount кладёт в репозиторий аккаунт с n пройденными миссиями.
func (env *achievementEnv) seedAccount(t *testing.T, missions int) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(account.NewAccountParams{
		ID:          "11111111-2222-4333-8444-555566667777",
		DisplayName: "Flow Subject",
		Email:       "flow@cyberguard.academy",
	})
	require.NoError(t, err)
	for i := 1; i <= missions; i++ {
		_, err := acct.CompleteMission(fmt.Sprintf("mission-%d", i))
		require.NoError(t, err)
	}
	require.NoError(t, env.accounts.Create(context.Background(), acct))
	return acct
}

func TestAchievementFlow_FirstMission(t *testing.T) {
	env := newAchievementEnv(t, DefaultAchievementFlowConfig())
	acct := env.seedAccount(t, 1)
	xpBefore := acct.TotalXP

	result, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)

	require.Len(t, result.Grants, 1)
	assert.Equal(t, "first-steps", result.Grants[0].Definition.ID)
	assert.Equal(t, 100, result.TotalRewardXP)

	// Награда прошла через обычный поток начисления и сохранена.
	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, xpBefore+100, stored.TotalXP)

	// Факт разблокировки записан, уведомление отправлено, событие опубликовано.
	unlocked, err := env.achievements.GetUnlocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.Contains("first-steps"))
	assert.Equal(t, 1, result.NotificationsSent)
	assert.Contains(t, env.publisher.eventTypes(), shared.EventAchievementUnlocked)
	assert.Contains(t, env.snapshots.saved, acct.ID)
}

func TestAchievementFlow_NoDoubleGrant(t *testing.T) {
	env := newAchievementEnv(t, DefaultAchievementFlowConfig())
	acct := env.seedAccount(t, 1)

	first, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, first.Grants, 1)

	second, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, second.Grants)
	assert.False(t, second.HasNewAchievements())

	// Опыт не начислен повторно.
	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.XP(100), stored.TotalXP)
}

func TestAchievementFlow_NotificationCapKeepsGrantsDurable(t *testing.T) {
	cfg := DefaultAchievementFlowConfig()
	cfg.MaxGrantsPerRun = 1
	env := newAchievementEnv(t, cfg)

	// 10 миссий открывают сразу first-steps и mission-veteran.
	acct := env.seedAccount(t, 10)

	result, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, result.Grants, 2)

	// Оба факта разблокировки записаны, но в ленту ушло одно уведомление.
	unlocked, err := env.achievements.GetUnlocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.Contains("first-steps"))
	assert.True(t, unlocked.Contains("mission-veteran"))
	assert.Equal(t, 1, result.NotificationsSent)

	// Повторный прогон ничего не выдаёт заново.
	again, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Grants)
}

func TestAchievementFlow_NotificationFailureIsNonFatal(t *testing.T) {
	env := newAchievementEnv(t, DefaultAchievementFlowConfig())
	acct := env.seedAccount(t, 1)
	env.notifier.failPush = assert.AnError

	result, err := env.saga.CheckAfterMission(context.Background(), acct.ID)
	require.NoError(t, err)
	require.Len(t, result.Grants, 1)
	assert.Equal(t, 0, result.NotificationsSent)

	// Разблокировка тем не менее долговечна.
	unlocked, err := env.achievements.GetUnlocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, unlocked.Contains("first-steps"))
}

func TestAchievementFlow_UnknownAccount(t *testing.T) {
	env := newAchievementEnv(t, DefaultAchievementFlowConfig())

	_, err := env.saga.CheckAfterMission(context.Background(), "missing")
	require.Error(t, err)

	var flowErr *AchievementFlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, StepLoadAccount, flowErr.Step)
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestAchievementFlow_SecretSequence(t *testing.T) {
	env := newAchievementEnv(t, DefaultAchievementFlowConfig())
	acct := env.seedAccount(t, 0)

	result, err := env.saga.CheckSecretSequence(context.Background(), acct.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Grants))
	for _, g := range result.Grants {
		ids = append(ids, g.Definition.ID)
	}
	assert.Contains(t, ids, "the-matrix")
}
