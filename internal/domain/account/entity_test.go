package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	acct, err := NewAccount(NewAccountParams{
		ID:          "a81bc81b-dead-4e5d-abff-90865d1e13b1",
		DisplayName: "Alex Chen",
		Email:       "alex@cyberguard.academy",
	})
	require.NoError(t, err)
	return acct
}

func TestNewAccount_Defaults(t *testing.T) {
	acct := newTestAccount(t)

	assert.Equal(t, Level(1), acct.Level())
	assert.Equal(t, XP(0), acct.TotalXP)
	assert.Equal(t, XP(0), acct.ExperiencePoints())
	assert.Equal(t, DefaultRiskScore, acct.RiskScore)
	assert.Equal(t, 0, acct.CurrentStreak)
	assert.Empty(t, acct.Badges)
	assert.Empty(t, acct.CompletedMissionIDs)
	assert.Equal(t, StatusActive, acct.Status)
}

func TestNewAccount_Validation(t *testing.T) {
	_, err := NewAccount(NewAccountParams{DisplayName: "x", Email: "x@y.io"})
	assert.Error(t, err)

	_, err = NewAccount(NewAccountParams{ID: "id-1", DisplayName: "", Email: "x@y.io"})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	_, err = NewAccount(NewAccountParams{ID: "id-1", DisplayName: "x", Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAwardExperience_DerivesLevelAndXP(t *testing.T) {
	acct := newTestAccount(t)

	change, err := acct.AwardExperience(999)
	require.NoError(t, err)
	assert.False(t, change.LeveledUp())
	assert.Equal(t, Level(1), acct.Level())
	assert.Equal(t, XP(999), acct.ExperiencePoints())

	change, err = acct.AwardExperience(1)
	require.NoError(t, err)
	assert.True(t, change.LeveledUp())
	assert.Equal(t, Level(2), acct.Level())
	assert.Equal(t, XP(0), acct.ExperiencePoints())
	assert.Equal(t, XP(1000), acct.TotalXP)
}

func TestAwardExperience_MultiLevelJump(t *testing.T) {
	acct := newTestAccount(t)

	change, err := acct.AwardExperience(3500)
	require.NoError(t, err)
	assert.True(t, change.LeveledUp())
	assert.Equal(t, 3, change.LevelsGained())
	assert.Equal(t, Level(4), acct.Level())
	assert.Equal(t, XP(500), acct.ExperiencePoints())
}

func TestAwardExperience_ZeroAndNegative(t *testing.T) {
	acct := newTestAccount(t)

	change, err := acct.AwardExperience(0)
	require.NoError(t, err)
	assert.False(t, change.LeveledUp())
	assert.Equal(t, XP(0), acct.TotalXP)

	_, err = acct.AwardExperience(-10)
	assert.ErrorIs(t, err, ErrNegativeAward)
	assert.Equal(t, XP(0), acct.TotalXP)
}

func TestSetRiskScore_SilentClamp(t *testing.T) {
	acct := newTestAccount(t)

	assert.Equal(t, RiskScore(100), acct.SetRiskScore(150))
	assert.Equal(t, RiskScore(0), acct.SetRiskScore(-20))
	assert.Equal(t, RiskScore(73), acct.SetRiskScore(73))

	acct.SetRiskScore(98)
	assert.Equal(t, RiskScore(100), acct.ImproveRiskScore(5))

	acct.SetRiskScore(1)
	assert.Equal(t, RiskScore(0), acct.DegradeRiskScore(7))
}

func TestRiskScore_ImproveRaisesDegradeLowers(t *testing.T) {
	acct := newTestAccount(t)

	// Новый аккаунт стартует с 45: улучшение поднимает оценку.
	assert.Equal(t, RiskScore(47), acct.ImproveRiskScore(2))
	assert.Equal(t, RiskScore(44), acct.DegradeRiskScore(3))
}

func TestStreak_IncrementAndReset(t *testing.T) {
	acct := newTestAccount(t)

	assert.Equal(t, 1, acct.IncrementStreak())
	assert.Equal(t, 2, acct.IncrementStreak())
	assert.Equal(t, 3, acct.IncrementStreak())

	previous := acct.ResetStreak()
	assert.Equal(t, 3, previous)
	assert.Equal(t, 0, acct.CurrentStreak)

	// Сброс пустой серии безопасен.
	assert.Equal(t, 0, acct.ResetStreak())
}

func TestAddBadge_SetSemantics(t *testing.T) {
	acct := newTestAccount(t)

	added, err := acct.AddBadge(FirstMissionBadge())
	require.NoError(t, err)
	assert.True(t, added)
	assert.Len(t, acct.Badges, 1)

	// Повторная выдача того же значка - no-op.
	added, err = acct.AddBadge(FirstMissionBadge())
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, acct.Badges, 1)

	_, err = acct.AddBadge(Badge{Name: "no id"})
	assert.ErrorIs(t, err, ErrEmptyBadgeID)
}

func TestCompleteMission_FirstVsRepeat(t *testing.T) {
	acct := newTestAccount(t)

	first, err := acct.CompleteMission("mission-1")
	require.NoError(t, err)
	assert.True(t, first)

	repeat, err := acct.CompleteMission("mission-1")
	require.NoError(t, err)
	assert.False(t, repeat)
	assert.Equal(t, 1, acct.MissionsCompleted())

	_, err = acct.CompleteMission("")
	assert.ErrorIs(t, err, ErrEmptyContentID)
}

func TestCompleteGame_FirstVsRepeat(t *testing.T) {
	acct := newTestAccount(t)

	first, err := acct.CompleteGame("phishing-frenzy")
	require.NoError(t, err)
	assert.True(t, first)

	repeat, err := acct.CompleteGame("phishing-frenzy")
	require.NoError(t, err)
	assert.False(t, repeat)
	assert.Equal(t, 1, acct.GamesCompleted())
}

func TestResetProgress_PreservesIdentity(t *testing.T) {
	acct := newTestAccount(t)
	acct.PasswordHash = "$2a$10$fakehash"
	joined := acct.JoinedAt

	_, err := acct.AwardExperience(4200)
	require.NoError(t, err)
	acct.SetRiskScore(12)
	acct.IncrementStreak()
	_, _ = acct.AddBadge(FirstMissionBadge())
	_, _ = acct.CompleteMission("mission-1")
	_, _ = acct.CompleteGame("phishing-frenzy")
	acct.RecordHelp()

	acct.ResetProgress()

	assert.Equal(t, XP(0), acct.TotalXP)
	assert.Equal(t, Level(1), acct.Level())
	assert.Equal(t, DefaultRiskScore, acct.RiskScore)
	assert.Equal(t, 0, acct.CurrentStreak)
	assert.Empty(t, acct.Badges)
	assert.Empty(t, acct.CompletedMissionIDs)
	assert.Empty(t, acct.CompletedGameIDs)
	assert.Equal(t, 0, acct.HelpCount)

	// Идентичность не тронута.
	assert.Equal(t, "a81bc81b-dead-4e5d-abff-90865d1e13b1", acct.ID)
	assert.Equal(t, "Alex Chen", acct.DisplayName)
	assert.Equal(t, "alex@cyberguard.academy", acct.Email)
	assert.Equal(t, joined, acct.JoinedAt)
	assert.Equal(t, "$2a$10$fakehash", acct.PasswordHash)
}

func TestCalculateLevel(t *testing.T) {
	assert.Equal(t, Level(1), CalculateLevel(0))
	assert.Equal(t, Level(1), CalculateLevel(999))
	assert.Equal(t, Level(2), CalculateLevel(1000))
	assert.Equal(t, Level(3), CalculateLevel(2500))
	assert.Equal(t, Level(1), CalculateLevel(-50))
}

func TestClone_IsDeep(t *testing.T) {
	acct := newTestAccount(t)
	_, _ = acct.AddBadge(FirstMissionBadge())
	_, _ = acct.CompleteMission("mission-1")

	clone := acct.Clone()
	_, _ = clone.CompleteMission("mission-2")
	_, _ = clone.AddBadge(MissionVeteranBadge())

	assert.Equal(t, 1, acct.MissionsCompleted())
	assert.Equal(t, 2, clone.MissionsCompleted())
	assert.Len(t, acct.Badges, 1)
	assert.Len(t, clone.Badges, 2)
}

func TestRecordActivity_WakesDormantAccount(t *testing.T) {
	acct := newTestAccount(t)
	require.NoError(t, acct.MarkDormant())
	assert.Equal(t, StatusDormant, acct.Status)

	acct.RecordActivity(time.Now())
	assert.Equal(t, StatusActive, acct.Status)
}
