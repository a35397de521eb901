package messaging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
)

type stubEvent struct {
	eventType   shared.EventType
	aggregateID string
}

func (e stubEvent) EventType() shared.EventType     { return e.eventType }
func (e stubEvent) AggregateID() string             { return e.aggregateID }
func (e stubEvent) OccurredAt() time.Time           { return time.Now() }
func (e stubEvent) Payload() map[string]interface{} { return map[string]interface{}{} }

func quietSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBus builds an in-memory bus that runs handlers inline, so tests
// need no sleeps or polling.
func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    quietSlog(),
	})
}

func TestInMemoryEventBus_DeliversToTypedAndGlobalHandlers(t *testing.T) {
	bus := syncBus()

	var typed, global, other []string
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(_ context.Context, e shared.Event) error {
		typed = append(typed, e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(_ context.Context, e shared.Event) error {
		other = append(other, e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(_ context.Context, e shared.Event) error {
		global = append(global, e.AggregateID())
		return nil
	}))

	err := bus.Publish(context.Background(), stubEvent{eventType: shared.EventXPGained, aggregateID: "acc-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"acc-1"}, typed)
	assert.Equal(t, []string{"acc-1"}, global)
	assert.Empty(t, other, "handler for a different event type must not fire")
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()

	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(context.Context, shared.Event) error {
		return assert.AnError
	}))

	err := bus.Publish(context.Background(), stubEvent{eventType: shared.EventXPGained, aggregateID: "acc-1"})
	assert.NoError(t, err)
}

func TestInMemoryEventBus_ClosedBusRejectsEverything(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), stubEvent{eventType: shared.EventXPGained})
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPGained, func(context.Context, shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Closing twice is a no-op.
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_AsyncDeliveryCompletesBeforeClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		Logger:         quietSlog(),
	})

	var (
		mu   sync.Mutex
		seen int
	)
	require.NoError(t, bus.SubscribeAll(func(context.Context, shared.Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventXPGained}))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, seen)
}

func TestBufferedEventBus_FlushesWhenFull(t *testing.T) {
	inner := syncBus()
	var delivered []string
	require.NoError(t, inner.SubscribeAll(func(_ context.Context, e shared.Event) error {
		delivered = append(delivered, e.AggregateID())
		return nil
	}))

	buffered := NewBufferedEventBus(BufferedEventBusConfig{
		Inner:         inner,
		BufferSize:    2,
		FlushInterval: time.Hour, // only capacity may trigger the flush
		Logger:        quietSlog(),
	})
	defer buffered.Close()

	require.NoError(t, buffered.Publish(context.Background(), stubEvent{aggregateID: "a"}))
	assert.Empty(t, delivered, "single event stays in the buffer")

	require.NoError(t, buffered.Publish(context.Background(), stubEvent{aggregateID: "b"}))
	assert.Equal(t, []string{"a", "b"}, delivered)
}

func TestBufferedEventBus_CloseFlushesPending(t *testing.T) {
	inner := syncBus()
	var delivered int
	require.NoError(t, inner.SubscribeAll(func(context.Context, shared.Event) error {
		delivered++
		return nil
	}))

	buffered := NewBufferedEventBus(BufferedEventBusConfig{
		Inner:         inner,
		BufferSize:    100,
		FlushInterval: time.Hour,
		Logger:        quietSlog(),
	})
	require.NoError(t, buffered.Publish(context.Background(), stubEvent{aggregateID: "a"}))
	require.NoError(t, buffered.Close())

	assert.Equal(t, 1, delivered)

	err := buffered.Publish(context.Background(), stubEvent{aggregateID: "b"})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
