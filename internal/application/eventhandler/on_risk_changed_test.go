package eventhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

type capturingNotifier struct {
	pushed []notification.NewNotificationParams
}

func (s *capturingNotifier) Push(_ context.Context, params notification.NewNotificationParams) (*notification.Notification, error) {
	s.pushed = append(s.pushed, params)
	return &notification.Notification{}, nil
}

func (s *capturingNotifier) MarkRead(context.Context, string, string) error { return nil }

func (s *capturingNotifier) MarkAllRead(context.Context, string) (int, error) { return 0, nil }

func (s *capturingNotifier) Feed(context.Context, string, int) (*notification.Feed, error) {
	return nil, nil
}

const riskTestAccountID = "acc-risk-1"

func TestOnRiskChanged_ThreatAlertOnDownwardCrossing(t *testing.T) {
	notifier := &capturingNotifier{}
	handler := NewOnRiskChangedHandler(notifier, logger.NewNop())

	// 45 -> 25: падение ниже нижней отметки - тревога.
	ev := shared.NewRiskScoreChangedEvent(riskTestAccountID, 45, 25, "audit")
	require.NoError(t, handler.Handle(context.Background(), ev))

	require.Len(t, notifier.pushed, 1)
	assert.Equal(t, notification.TypeThreat, notifier.pushed[0].Type)
}

func TestOnRiskChanged_PraiseOnUpwardCrossing(t *testing.T) {
	notifier := &capturingNotifier{}
	handler := NewOnRiskChangedHandler(notifier, logger.NewNop())

	// 65 -> 75: рост выше верхней отметки - похвала, не тревога.
	ev := shared.NewRiskScoreChangedEvent(riskTestAccountID, 65, 75, "mission_completed")
	require.NoError(t, handler.Handle(context.Background(), ev))

	require.Len(t, notifier.pushed, 1)
	assert.Equal(t, notification.TypeSuccess, notifier.pushed[0].Type)
	assert.Equal(t, "Security Posture Strong", notifier.pushed[0].Title)
}

func TestOnRiskChanged_SilentInsideBand(t *testing.T) {
	notifier := &capturingNotifier{}
	handler := NewOnRiskChangedHandler(notifier, logger.NewNop())

	// Движение между отметками уведомлений не порождает.
	ev := shared.NewRiskScoreChangedEvent(riskTestAccountID, 40, 60, "game_completed")
	require.NoError(t, handler.Handle(context.Background(), ev))
	assert.Empty(t, notifier.pushed)
}

func TestOnRiskChanged_IgnoresForeignEvents(t *testing.T) {
	notifier := &capturingNotifier{}
	handler := NewOnRiskChangedHandler(notifier, logger.NewNop())

	ev := shared.NewStreakUpdatedEvent(riskTestAccountID, 3)
	require.NoError(t, handler.Handle(context.Background(), ev))
	assert.Empty(t, notifier.pushed)
}
