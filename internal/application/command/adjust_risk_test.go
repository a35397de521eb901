package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

func (env *commandEnv) riskHandler() *AdjustRiskHandler {
	return NewAdjustRiskHandler(
		env.accounts, env.snapshots, env.notifier, env.publisher, logger.NewNop())
}

func TestAdjustRisk_SetClampedToMax(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     150,
		Reason:    "simulation",
	})
	require.NoError(t, err)

	assert.Equal(t, int(account.DefaultRiskScore), result.PreviousScore)
	assert.Equal(t, int(account.MaxRiskScore), result.NewScore)
	// Рост оценки - укрепление защиты, тревоги нет.
	assert.False(t, result.ThreatAlert)
	assert.Contains(t, env.publisher.eventTypes(), shared.EventRiskScoreChanged)
	assert.Contains(t, env.snapshots.saved, acct.ID)
}

func TestAdjustRisk_SetClampedToMin(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     -50,
	})
	require.NoError(t, err)

	assert.Equal(t, int(account.MinRiskScore), result.NewScore)
	// Падение ниже нижней отметки - тревога.
	assert.True(t, result.ThreatAlert)
}

func TestAdjustRisk_DeltaImproves(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		Delta:     20,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, result.PreviousScore)
	assert.Equal(t, 65, result.NewScore)
	assert.False(t, result.ThreatAlert)
}

func TestAdjustRisk_DeltaDegrades(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		Delta:     -20,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, result.PreviousScore)
	assert.Equal(t, 25, result.NewScore)
	// Отметка 30 пересечена вниз.
	assert.True(t, result.ThreatAlert)

	stored, err := env.accounts.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, account.RiskScore(25), stored.RiskScore)
}

func TestAdjustRisk_ThreatAlertOnlyOnDownwardCrossing(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	// 45 -> 30: ровно на отметке, тревога есть.
	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     int(shared.RiskLowWatermark),
	})
	require.NoError(t, err)
	assert.True(t, result.ThreatAlert)

	// 30 -> 10: уже ниже отметки, повторной тревоги нет.
	result, err = handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     10,
	})
	require.NoError(t, err)
	assert.False(t, result.ThreatAlert)

	// 10 -> 90: движение вверх тревогу не даёт.
	result, err = handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     90,
	})
	require.NoError(t, err)
	assert.False(t, result.ThreatAlert)
}

func TestAdjustRisk_NoEventWhenUnchanged(t *testing.T) {
	env := newCommandEnv(t)
	acct := env.seedAccount(t)
	handler := env.riskHandler()

	result, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: acct.ID,
		SetTo:     int(account.DefaultRiskScore),
	})
	require.NoError(t, err)

	assert.Equal(t, result.PreviousScore, result.NewScore)
	assert.Empty(t, env.publisher.events)
}

func TestAdjustRisk_UnknownAccount(t *testing.T) {
	env := newCommandEnv(t)
	handler := env.riskHandler()

	_, err := handler.Handle(context.Background(), AdjustRiskCommand{
		AccountID: "missing",
		Delta:     5,
	})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestAdjustRisk_Validation(t *testing.T) {
	env := newCommandEnv(t)
	handler := env.riskHandler()

	_, err := handler.Handle(context.Background(), AdjustRiskCommand{})
	assert.Error(t, err)
}
