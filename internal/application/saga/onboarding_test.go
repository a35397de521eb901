package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

type onboardingEnv struct {
	saga      *OnboardingSaga
	accounts  *fakeAccountRepo
	ranking   *fakeRanking
	notifier  *fakeNotificationService
	snapshots *fakeStateStore
	publisher *fakePublisher
}

func newOnboardingEnv(t *testing.T, cfg OnboardingSagaConfig) *onboardingEnv {
	t.Helper()
	env := &onboardingEnv{
		accounts:  newFakeAccountRepo(),
		ranking:   newFakeRanking(),
		notifier:  newFakeNotificationService(),
		snapshots: newFakeStateStore(),
		publisher: newFakePublisher(),
	}
	env.saga = NewOnboardingSaga(
		env.accounts, env.ranking, env.notifier, env.snapshots,
		env.publisher, &seqIDGenerator{}, logger.NewNop(), cfg)
	return env
}

// Минимальная стоимость bcrypt, чтобы тесты не тормозили.
func fastConfig() OnboardingSagaConfig {
	return OnboardingSagaConfig{BcryptCost: bcrypt.MinCost, WelcomeEnabled: true}
}

func validInput() RegisterAccountInput {
	return RegisterAccountInput{
		DisplayName: "Agent Nova",
		Email:       "nova@cyberguard.academy",
		Password:    "correct-horse",
	}
}

func TestOnboarding_RegistersAccount(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())

	result, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, result.Account)

	acct := result.Account
	assert.Equal(t, "Agent Nova", acct.DisplayName)
	assert.Equal(t, account.Level(1), acct.Level())
	assert.Equal(t, account.XP(0), acct.TotalXP)
	assert.Equal(t, account.DefaultRiskScore, acct.RiskScore)
	assert.NotEmpty(t, acct.PasswordHash)
	assert.NotEqual(t, "correct-horse", acct.PasswordHash)

	// Побочные шаги: рейтинг, приветствие, снимок, событие.
	assert.Contains(t, env.ranking.scores, acct.ID)
	assert.True(t, result.WelcomeSent)
	assert.Contains(t, env.snapshots.saved, acct.ID)
	assert.Contains(t, env.publisher.eventTypes(), shared.EventAccountRegistered)
}

func TestOnboarding_RejectsDuplicateEmail(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())

	_, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)

	_, err = env.saga.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestOnboarding_RejectsShortPassword(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())

	input := validInput()
	input.Password = "short"
	_, err := env.saga.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestOnboarding_RejectsInvalidEmail(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())

	input := validInput()
	input.Email = "not-an-email"
	_, err := env.saga.Execute(context.Background(), input)
	assert.ErrorIs(t, err, account.ErrInvalidEmail)
}

func TestOnboarding_WelcomeFailureIsNonFatal(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())
	env.notifier.failPush = assert.AnError

	result, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.False(t, result.WelcomeSent)
	// Аккаунт тем не менее создан.
	_, err = env.accounts.GetByEmail(context.Background(), "nova@cyberguard.academy")
	assert.NoError(t, err)
}

func TestOnboarding_WelcomeDisabled(t *testing.T) {
	cfg := fastConfig()
	cfg.WelcomeEnabled = false
	env := newOnboardingEnv(t, cfg)

	result, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.False(t, result.WelcomeSent)
	assert.Empty(t, env.notifier.pushedTitles())
}

func TestAuthenticate_Success(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())
	_, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)

	acct, err := env.saga.Authenticate(context.Background(), "NOVA@cyberguard.academy", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "Agent Nova", acct.DisplayName)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())
	_, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)

	_, err = env.saga.Authenticate(context.Background(), "nova@cyberguard.academy", "battery-staple")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())

	_, err := env.saga.Authenticate(context.Background(), "ghost@cyberguard.academy", "whatever")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestAuthenticate_SuspendedAccount(t *testing.T) {
	env := newOnboardingEnv(t, fastConfig())
	result, err := env.saga.Execute(context.Background(), validInput())
	require.NoError(t, err)

	result.Account.Status = account.StatusSuspended

	_, err = env.saga.Authenticate(context.Background(), "nova@cyberguard.academy", "correct-horse")
	assert.ErrorIs(t, err, account.ErrAccountSuspended)
}
