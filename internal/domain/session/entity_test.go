package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountID = "3d1f9a77-5555-4b1c-9d2e-aaaa1111bbbb"

func mustSession(t *testing.T, params NewSessionParams) *Session {
	t.Helper()
	if params.ID == "" {
		params.ID = "s-1"
	}
	if params.AccountID == "" {
		params.AccountID = testAccountID
	}
	s, err := NewSession(params)
	require.NoError(t, err)
	return s
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(NewSessionParams{AccountID: testAccountID, Kind: KindGame})
	assert.ErrorIs(t, err, ErrEmptySessionID)

	_, err = NewSession(NewSessionParams{ID: "s-1", Kind: KindGame})
	assert.ErrorIs(t, err, ErrEmptyAccountID)

	_, err = NewSession(NewSessionParams{ID: "s-1", AccountID: testAccountID, Kind: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = NewSession(NewSessionParams{ID: "s-1", AccountID: testAccountID, Kind: KindGame, Accuracy: 120})
	assert.ErrorIs(t, err, ErrInvalidAccuracy)
}

func TestIsNightActivity(t *testing.T) {
	night := mustSession(t, NewSessionParams{
		Kind:      KindGame,
		StartedAt: time.Date(2026, 8, 28, 3, 15, 0, 0, time.UTC),
	})
	assert.True(t, night.IsNightActivity())

	morning := mustSession(t, NewSessionParams{
		ID:        "s-2",
		Kind:      KindGame,
		StartedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	})
	assert.False(t, morning.IsNightActivity())

	edge := mustSession(t, NewSessionParams{
		ID:        "s-3",
		Kind:      KindGame,
		StartedAt: time.Date(2026, 8, 28, 5, 59, 0, 0, time.UTC),
	})
	assert.True(t, edge.IsNightActivity())
}

func TestAggregateSessions(t *testing.T) {
	day := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	night := time.Date(2026, 8, 28, 2, 0, 0, 0, time.UTC)

	sessions := []*Session{
		mustSession(t, NewSessionParams{ID: "s-1", Kind: KindGame, Category: "phishing", Accuracy: 92, Score: 800, StartedAt: day, Duration: 3 * time.Minute}),
		mustSession(t, NewSessionParams{ID: "s-2", Kind: KindGame, Category: "phishing", Accuracy: 97, Score: 1250, StartedAt: night, Duration: 4 * time.Minute}),
		mustSession(t, NewSessionParams{ID: "s-3", Kind: KindGame, Category: "malware", Accuracy: 88, Score: 600, StartedAt: day, Duration: 5 * time.Minute}),
		mustSession(t, NewSessionParams{ID: "s-4", Kind: KindMission, ContentID: "mission-1", StartedAt: day, Duration: 4 * time.Minute}),
		mustSession(t, NewSessionParams{ID: "s-5", Kind: KindMission, ContentID: "mission-2", StartedAt: night, Duration: 12 * time.Minute}),
		mustSession(t, NewSessionParams{ID: "s-6", Kind: KindHelp, StartedAt: day}),
	}

	agg := AggregateSessions(sessions)

	assert.Equal(t, 6, agg.TotalSessions)
	assert.Equal(t, 97, agg.BestAccuracy)
	assert.Equal(t, 97, agg.BestAccuracyByCategory["phishing"])
	assert.Equal(t, 88, agg.BestAccuracyByCategory["malware"])
	assert.Equal(t, 1250, agg.BestScore)
	assert.Equal(t, 4*time.Minute, agg.FastestMissionTime)
	assert.Equal(t, 2, agg.NightActivityCount)
	assert.Equal(t, 1, agg.HelpSessions)
}

func TestAggregateSessions_Empty(t *testing.T) {
	agg := AggregateSessions(nil)
	assert.Equal(t, 0, agg.TotalSessions)
	assert.Equal(t, time.Duration(0), agg.FastestMissionTime)
	assert.NotNil(t, agg.BestAccuracyByCategory)
}
