package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
)

func sampleStateDTO() accountStateDTO {
	return accountStateDTO{
		AccountID:     "acc-1",
		DisplayName:   "Alice",
		Email:         "alice@example.com",
		TotalXP:       2350,
		Level:         99, // stale on purpose: must be recomputed from TotalXP
		RiskScore:     38,
		CurrentStreak: 4,
		Badges: []badgeStateDTO{
			{ID: "first-mission", Name: "First Steps", Rarity: "common", EarnedAt: "2026-08-01T10:00:00Z"},
		},
		CompletedMissionIDs: []string{"m-phishing-101"},
		CompletedGameIDs:    []string{"g-password-drill"},
		Status:              "active",
		LastActivityAt:      "2026-08-27T09:30:00Z",
		JoinedAt:            "2026-07-01T08:00:00Z",
		SavedAt:             "2026-08-27T09:31:00Z",
	}
}

func TestReconstructAccount_DerivesLevelFromTotalXP(t *testing.T) {
	s := &StateStore{}

	acct, err := s.reconstructAccount(sampleStateDTO())
	require.NoError(t, err)

	// 2350 XP -> level 3, 350 XP within the level, regardless of the
	// level stored in the blob.
	assert.Equal(t, 3, int(acct.Level()))
	assert.Equal(t, 350, int(acct.ExperiencePoints()))
	assert.Equal(t, 38, int(acct.RiskScore))
	assert.Equal(t, 4, acct.CurrentStreak)
}

func TestReconstructAccount_RestoresTimestamps(t *testing.T) {
	s := &StateStore{}

	acct, err := s.reconstructAccount(sampleStateDTO())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC), acct.LastActivityAt)
	assert.Equal(t, time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC), acct.JoinedAt)
	require.Len(t, acct.Badges, 1)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), acct.Badges[0].EarnedAt)
}

func TestReconstructAccount_ClampsOutOfRangeRisk(t *testing.T) {
	s := &StateStore{}

	dto := sampleStateDTO()
	dto.RiskScore = 250
	acct, err := s.reconstructAccount(dto)
	require.NoError(t, err)
	assert.Equal(t, 100, int(acct.RiskScore))

	dto.RiskScore = -10
	acct, err = s.reconstructAccount(dto)
	require.NoError(t, err)
	assert.Equal(t, 0, int(acct.RiskScore))
}

func TestReconstructAccount_CorruptTimestamp(t *testing.T) {
	s := &StateStore{}

	dto := sampleStateDTO()
	dto.LastActivityAt = "not-a-timestamp"

	_, err := s.reconstructAccount(dto)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrStateCorrupt))
}

func TestReconstructAccount_NilSlicesBecomeEmpty(t *testing.T) {
	s := &StateStore{}

	dto := sampleStateDTO()
	dto.CompletedMissionIDs = nil
	dto.CompletedGameIDs = nil
	dto.MasteredRoleIDs = nil

	acct, err := s.reconstructAccount(dto)
	require.NoError(t, err)
	assert.NotNil(t, acct.CompletedMissionIDs)
	assert.NotNil(t, acct.CompletedGameIDs)
	assert.NotNil(t, acct.MasteredRoleIDs)
}

func TestParseStoredTime_EmptyIsZero(t *testing.T) {
	ts, err := parseStoredTime("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}
