package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
)

// fastDispatcher wires a dispatcher to a synchronous bus with
// millisecond backoffs, so retry tests finish instantly.
func fastDispatcher(t *testing.T) (*Dispatcher, *InMemoryEventBus) {
	t.Helper()

	bus := syncBus()
	cfg := DefaultDispatcherConfig(bus)
	cfg.Logger = quietSlog()
	cfg.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	d := NewDispatcher(cfg)
	require.NoError(t, d.Start())
	t.Cleanup(func() { _ = d.Stop() })
	return d, bus
}

func TestDispatcher_RoutesEventToNamedHandler(t *testing.T) {
	d, bus := fastDispatcher(t)

	var got []string
	err := d.RegisterHandler(shared.EventLevelUp, HandlerRegistration{
		Name:    "on_level_up",
		Async:   false,
		Handler: func(_ context.Context, e shared.Event) error { got = append(got, e.AggregateID()); return nil },
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventLevelUp, aggregateID: "acc-7"}))
	assert.Equal(t, []string{"acc-7"}, got)
}

func TestDispatcher_RetriesUntilHandlerSucceeds(t *testing.T) {
	d, bus := fastDispatcher(t)

	attempts := 0
	err := d.RegisterHandler(shared.EventRiskScoreChanged, HandlerRegistration{
		Name:  "flaky",
		Async: false,
		Handler: func(context.Context, shared.Event) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventRiskScoreChanged}))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 0, d.DeadLetters().Size())
}

func TestDispatcher_DeadLettersExhaustedEvent(t *testing.T) {
	d, bus := fastDispatcher(t)

	attempts := 0
	err := d.RegisterHandler(shared.EventRiskScoreChanged, HandlerRegistration{
		Name:  "broken",
		Async: false,
		Handler: func(context.Context, shared.Event) error {
			attempts++
			return errors.New("permanent")
		},
	})
	require.NoError(t, err)

	pubErr := bus.Publish(context.Background(), stubEvent{eventType: shared.EventRiskScoreChanged, aggregateID: "acc-9"})
	// The sync bus swallows handler errors; the failure is visible in
	// the dead-letter queue.
	require.NoError(t, pubErr)

	assert.Equal(t, 3, attempts, "initial attempt plus MaxRetries")
	require.Equal(t, 1, d.DeadLetters().Size())

	entry := d.DeadLetters().Entries()[0]
	assert.Equal(t, "broken", entry.HandlerName)
	assert.Equal(t, "acc-9", entry.Event.AggregateID())
	assert.Equal(t, 3, entry.Attempts)
}

func TestDispatcher_EventWithoutHandlersIsIgnored(t *testing.T) {
	d, bus := fastDispatcher(t)
	_ = d

	assert.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventStreakReset}))
}

func TestRecoveryMiddleware_TurnsPanicIntoError(t *testing.T) {
	d, bus := fastDispatcher(t)
	d.Use(RecoveryMiddleware(quietSlog()))

	err := d.RegisterHandler(shared.EventLevelUp, HandlerRegistration{
		Name:       "panicky",
		Async:      false,
		MaxRetries: 1,
		Handler:    func(context.Context, shared.Event) error { panic("boom") },
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventLevelUp}))

	// The panic was contained and the event ended up dead-lettered.
	require.Equal(t, 1, d.DeadLetters().Size())
	assert.Contains(t, d.DeadLetters().Entries()[0].Error.Error(), "handler panic")
}

func TestDeadLetterQueue_EvictsOldestWhenFull(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetterEntry{HandlerName: "h1"})
	q.Add(DeadLetterEntry{HandlerName: "h2"})
	q.Add(DeadLetterEntry{HandlerName: "h3"})

	require.Equal(t, 2, q.Size())
	entries := q.Entries()
	assert.Equal(t, "h2", entries[0].HandlerName)
	assert.Equal(t, "h3", entries[1].HandlerName)
}
