package messaging

import (
	"context"

	redisstore "github.com/cyberguard-hub/cyberguard-academy-hub/internal/infrastructure/persistence/redis"
)

// CacheRedisClient adapts the Redis cache wrapper to the RedisClient
// interface used by RedisEventBus.
type CacheRedisClient struct {
	cache *redisstore.Cache
}

// NewCacheRedisClient creates a new adapter over the shared cache.
func NewCacheRedisClient(cache *redisstore.Cache) *CacheRedisClient {
	return &CacheRedisClient{cache: cache}
}

// Publish sends a message to a Redis channel.
func (c *CacheRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.cache.Publish(ctx, channel, message)
}

// Subscribe listens on the given channels and forwards payloads.
// The returned channel closes when ctx is cancelled.
func (c *CacheRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	pubsub := c.cache.Subscribe(ctx, channels...)

	// Force the subscription to be established before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the underlying cache connection is owned elsewhere.
func (c *CacheRedisClient) Close() error {
	return nil
}
