package notification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountID = "7f0c2a44-9f1e-4c7a-8b25-6a3dd0b1c222"

func mustNotification(t *testing.T, id string, typ Type) *Notification {
	t.Helper()
	n, err := NewNotification(NewNotificationParams{
		ID:        id,
		AccountID: testAccountID,
		Type:      typ,
		Title:     "Test",
		Message:   "test message",
	})
	require.NoError(t, err)
	return n
}

func TestNewNotification_Defaults(t *testing.T) {
	n := mustNotification(t, "n-1", TypeThreat)

	assert.False(t, n.IsRead)
	assert.False(t, n.Timestamp.IsZero())
	// Приоритет по умолчанию выводится из типа.
	assert.Equal(t, PriorityCritical, n.Priority)

	info := mustNotification(t, "n-2", TypeInfo)
	assert.Equal(t, PriorityLow, info.Priority)
}

func TestNewNotification_Validation(t *testing.T) {
	_, err := NewNotification(NewNotificationParams{AccountID: testAccountID, Type: TypeInfo, Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyNotificationID)

	_, err = NewNotification(NewNotificationParams{ID: "n-1", Type: TypeInfo, Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyAccountID)

	_, err = NewNotification(NewNotificationParams{ID: "n-1", AccountID: testAccountID, Type: "bogus", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = NewNotification(NewNotificationParams{ID: "n-1", AccountID: testAccountID, Type: TypeInfo})
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestFeed_PushPrependsNewestFirst(t *testing.T) {
	feed := NewFeed(testAccountID)

	require.NoError(t, feed.Push(mustNotification(t, "n-1", TypeInfo)))
	require.NoError(t, feed.Push(mustNotification(t, "n-2", TypeSuccess)))
	require.NoError(t, feed.Push(mustNotification(t, "n-3", TypeWarning)))

	items := feed.List(0)
	require.Len(t, items, 3)
	assert.Equal(t, "n-3", items[0].ID)
	assert.Equal(t, "n-2", items[1].ID)
	assert.Equal(t, "n-1", items[2].ID)
}

func TestFeed_MarkRead_MonotonicAndIdempotent(t *testing.T) {
	feed := NewFeed(testAccountID)
	require.NoError(t, feed.Push(mustNotification(t, "n-1", TypeInfo)))

	require.NoError(t, feed.MarkRead("n-1"))
	n, err := feed.Get("n-1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	// Повторная пометка безопасна, обратного перехода нет.
	require.NoError(t, feed.MarkRead("n-1"))
	assert.True(t, n.IsRead)
}

func TestFeed_MarkRead_UnknownID(t *testing.T) {
	feed := NewFeed(testAccountID)
	err := feed.MarkRead("ghost")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestFeed_MarkAllRead(t *testing.T) {
	feed := NewFeed(testAccountID)
	for i := 0; i < 5; i++ {
		require.NoError(t, feed.Push(mustNotification(t, fmt.Sprintf("n-%d", i), TypeInfo)))
	}
	require.NoError(t, feed.MarkRead("n-0"))

	assert.Equal(t, 4, feed.UnreadCount())
	assert.Equal(t, 4, feed.MarkAllRead())
	assert.Equal(t, 0, feed.UnreadCount())

	// Идемпотентность: второй вызов ничего не меняет.
	assert.Equal(t, 0, feed.MarkAllRead())
}

func TestFeed_CapEvictsOldest(t *testing.T) {
	feed := NewFeedWithCap(testAccountID, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, feed.Push(mustNotification(t, fmt.Sprintf("n-%d", i), TypeInfo)))
	}

	assert.Equal(t, 3, feed.Len())
	items := feed.List(0)
	assert.Equal(t, "n-5", items[0].ID)
	assert.Equal(t, "n-3", items[2].ID)

	_, err := feed.Get("n-1")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestFeed_RejectsForeignAccount(t *testing.T) {
	feed := NewFeed(testAccountID)
	foreign, err := NewNotification(NewNotificationParams{
		ID:        "n-x",
		AccountID: "someone-else",
		Type:      TypeInfo,
		Title:     "x",
	})
	require.NoError(t, err)
	assert.Error(t, feed.Push(foreign))
}

func TestFeed_List_LimitAndCopy(t *testing.T) {
	feed := NewFeed(testAccountID)
	for i := 1; i <= 4; i++ {
		require.NoError(t, feed.Push(mustNotification(t, fmt.Sprintf("n-%d", i), TypeInfo)))
	}

	items := feed.List(2)
	assert.Len(t, items, 2)
	assert.Equal(t, "n-4", items[0].ID)

	// Ограничение больше размера ленты возвращает всё.
	assert.Len(t, feed.List(100), 4)
}

func TestTriggers_ProduceValidParams(t *testing.T) {
	cases := []NewNotificationParams{
		Welcome(testAccountID, "Alex"),
		MissionCompleted(testAccountID, "The Midnight Breach", 300),
		GameCompleted(testAccountID, "Phishing Detector", 150, 1200),
		LevelUp(testAccountID, 3),
		BadgeEarned(testAccountID, "First Steps"),
		AchievementUnlocked(testAccountID, "Night Owl", 400),
		StreakMilestone(testAccountID, 7),
		StreakLost(testAccountID, 12),
		RiskImproved(testAccountID, 75),
		ThreatAlert(testAccountID, 28),
		ProgressReset(testAccountID),
	}

	for i, params := range cases {
		params.ID = fmt.Sprintf("n-%d", i)
		n, err := NewNotification(params)
		require.NoError(t, err, "case %d", i)
		assert.True(t, n.Type.IsValid())
		assert.True(t, n.Priority.IsValid())
	}

	// Угроза получает критический приоритет по умолчанию.
	alert := ThreatAlert(testAccountID, 20)
	alert.ID = "n-threat"
	n, err := NewNotification(alert)
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, n.Priority)
}
