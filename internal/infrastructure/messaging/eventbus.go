// Package messaging carries domain events between the write side and
// the event handlers. A single process uses the in-memory bus; the
// server and worker additionally bridge events to each other over
// Redis Pub/Sub so a streak broken by the worker's audit still reaches
// the server's notification handlers.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
)

// ErrEventBusClosed - publish or subscribe after Close.
var ErrEventBusClosed = errors.New("event bus is closed")

// InMemoryEventBusConfig configures the in-process bus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on a worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize caps concurrent async handlers.
	WorkerPoolSize int

	// Logger for handler errors.
	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig - async with 10 workers.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// InMemoryEventBus dispatches events to handlers in the same process.
// Handler errors are logged, never propagated to the publisher: the
// progression write path must not fail because a side effect did.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	byType      map[shared.EventType][]shared.EventHandler
	global      []shared.EventHandler
	asyncMode   bool
	workerSlots chan struct{}
	logger      *slog.Logger
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// NewInMemoryEventBus creates a bus from config.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	return &InMemoryEventBus{
		byType:      make(map[shared.EventType][]shared.EventHandler),
		asyncMode:   config.AsyncMode,
		workerSlots: make(chan struct{}, config.WorkerPoolSize),
		logger:      config.Logger,
		closeCh:     make(chan struct{}),
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll registers a handler that sees every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.global = append(b.global, handler)
	return nil
}

// Publish delivers the event to every matching handler.
func (b *InMemoryEventBus) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	targets := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.global))
	targets = append(targets, b.byType[event.EventType()]...)
	targets = append(targets, b.global...)
	b.mu.RUnlock()

	for _, handler := range targets {
		if b.asyncMode {
			b.dispatchAsync(event, handler)
			continue
		}
		if err := handler(ctx, event); err != nil {
			b.logger.Error("handler error", "event_type", event.EventType(), "error", err)
		}
	}
	return nil
}

// dispatchAsync runs the handler on the worker pool. The handler gets
// a fresh context: the publisher's request context may be cancelled
// long before the handler runs.
func (b *InMemoryEventBus) dispatchAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.workerSlots <- struct{}{}:
			defer func() { <-b.workerSlots }()
		case <-b.closeCh:
			return
		}

		if err := handler(context.Background(), event); err != nil {
			b.logger.Error("async handler error",
				"event_type", event.EventType(),
				"error", err,
			)
		}
	}()
}

// Close stops accepting events and waits for in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis-bridged bus. Events publish locally and onto a Pub/Sub channel;
// remote instances replay them through their own local handlers.
// Delivery is at-most-once and best-effort, which matches how the
// progression pipeline treats all side effects.
// ─────────────────────────────────────────────────────────────────────────────

// RedisClient is the slice of Redis the bus needs. The concrete
// adapter lives in redis_adapter.go.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one Pub/Sub payload.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// RedisEventBusConfig configures the bridged bus.
type RedisEventBusConfig struct {
	// Client connects to Redis Pub/Sub.
	Client RedisClient

	// ChannelName is the shared event channel. Defaults to
	// "cyberguard:events".
	ChannelName string

	// InstanceID filters out this process's own messages. Defaults to
	// a unique generated id.
	InstanceID string

	// LocalBusConfig configures the embedded in-memory bus.
	LocalBusConfig InMemoryEventBusConfig

	// Logger for bridge errors.
	Logger *slog.Logger
}

// RedisEventBus is an EventBus whose events also cross process
// boundaries via Redis Pub/Sub.
type RedisEventBus struct {
	client  RedisClient
	local   *InMemoryEventBus
	channel string
	selfID  string
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewRedisEventBus creates the bus and starts its subscription loop.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = "cyberguard:events"
	}
	if config.InstanceID == "" {
		config.InstanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:  config.Client,
		local:   NewInMemoryEventBus(config.LocalBusConfig),
		channel: config.ChannelName,
		selfID:  config.InstanceID,
		logger:  config.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	messages, err := bus.client.Subscribe(ctx, bus.channel)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start subscriber: %w", err)
	}
	bus.wg.Add(1)
	go bus.receive(messages)

	return bus, nil
}

// Subscribe registers a handler for one event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler that sees every event.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish delivers the event locally and broadcasts it to the other
// instances. A Redis failure degrades to local-only delivery.
func (b *RedisEventBus) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	b.mu.RUnlock()

	data, err := json.Marshal(eventEnvelope{
		InstanceID:  b.selfID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, string(data)); err != nil {
		b.logger.Error("failed to publish to redis", "error", err)
	}
	return b.local.Publish(ctx, event)
}

func (b *RedisEventBus) receive(messages <-chan RedisMessage) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.logger.Error("redis subscription error", "error", msg.Err)
				continue
			}
			b.replay(msg.Payload)
		}
	}
}

// replay feeds a remote event through the local handlers. Own messages
// are skipped: they were already delivered at publish time.
func (b *RedisEventBus) replay(payload string) {
	var env eventEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Error("failed to unmarshal event", "error", err)
		return
	}
	if env.InstanceID == b.selfID {
		return
	}

	event := &remoteEvent{env: env}
	if err := b.local.Publish(b.ctx, event); err != nil {
		b.logger.Error("failed to process remote event", "error", err)
	}
}

// Close stops the bridge and the embedded local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	if err := b.local.Close(); err != nil {
		b.logger.Error("failed to close local bus", "error", err)
	}
	b.logger.Info("redis event bus closed")
	return nil
}

// eventEnvelope is the wire form of an event on the Pub/Sub channel.
type eventEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// remoteEvent re-materializes an envelope as a shared.Event.
type remoteEvent struct {
	env eventEnvelope
}

func (e *remoteEvent) EventType() shared.EventType     { return e.env.EventType }
func (e *remoteEvent) AggregateID() string             { return e.env.AggregateID }
func (e *remoteEvent) OccurredAt() time.Time           { return e.env.OccurredAt }
func (e *remoteEvent) Payload() map[string]interface{} { return e.env.Payload }

// ─────────────────────────────────────────────────────────────────────────────
// Buffered bus. The worker's audit jobs emit events in bursts; the
// buffer coalesces a burst into periodic flushes instead of hitting
// Pub/Sub once per account.
// ─────────────────────────────────────────────────────────────────────────────

// BufferedEventBusConfig configures the buffering wrapper.
type BufferedEventBusConfig struct {
	// Inner receives the flushed events.
	Inner shared.EventBus

	// BufferSize triggers an early flush when reached.
	BufferSize int

	// FlushInterval bounds how long an event can sit in the buffer.
	FlushInterval time.Duration

	// Logger for flush errors.
	Logger *slog.Logger
}

// BufferedEventBus wraps another bus and publishes in batches.
type BufferedEventBus struct {
	inner   shared.EventBus
	pending []shared.Event
	limit   int
	ticker  *time.Ticker
	mu      sync.Mutex
	logger  *slog.Logger
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewBufferedEventBus creates the wrapper and starts its flush loop.
func NewBufferedEventBus(config BufferedEventBusConfig) *BufferedEventBus {
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	bus := &BufferedEventBus{
		inner:   config.Inner,
		pending: make([]shared.Event, 0, config.BufferSize),
		limit:   config.BufferSize,
		ticker:  time.NewTicker(config.FlushInterval),
		logger:  config.Logger,
		closeCh: make(chan struct{}),
	}
	bus.wg.Add(1)
	go bus.flushLoop()
	return bus
}

// Subscribe delegates to the inner bus.
func (b *BufferedEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.inner.Subscribe(eventType, handler)
}

// SubscribeAll delegates to the inner bus.
func (b *BufferedEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.inner.SubscribeAll(handler)
}

// Publish queues the event; a full buffer flushes immediately.
func (b *BufferedEventBus) Publish(ctx context.Context, event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.pending = append(b.pending, event)
	if len(b.pending) >= b.limit {
		b.flushLocked()
	}
	return nil
}

// Flush drains the buffer now.
func (b *BufferedEventBus) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *BufferedEventBus) flushLocked() error {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = make([]shared.Event, 0, b.limit)

	var lastErr error
	for _, event := range batch {
		if err := b.inner.Publish(context.Background(), event); err != nil {
			b.logger.Error("failed to publish buffered event", "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (b *BufferedEventBus) flushLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.closeCh:
			return
		case <-b.ticker.C:
			b.mu.Lock()
			b.flushLocked()
			b.mu.Unlock()
		}
	}
}

// Close flushes whatever is pending and stops the loop.
func (b *BufferedEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.ticker.Stop()
	close(b.closeCh)
	b.flushLocked()
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
