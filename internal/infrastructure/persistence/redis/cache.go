// Package redis implements Redis-backed infrastructure for CyberGuard
// Academy Hub: the progression state store, the account cache, the
// leaderboard ranking and pub/sub for the event bus.
//
// Everything in this package is derived data. Postgres remains the
// system of record; losing Redis loses snapshots and rankings that can
// be rebuilt, never facts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// DefaultConfig targets a local Redis with a small pool.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// Addr renders the config as "host:port".
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var (
	// ErrCacheMiss - the key does not exist. Callers treat this as
	// "absent", never as a failure.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection - Redis was unreachable at startup.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization - a value could not be (de)serialized.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheKeyEmpty - an empty key was passed.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// Key namespaces. Every key this service writes starts with one of
// these prefixes.
const (
	// PrefixAccount - cached account aggregates.
	PrefixAccount = "account:"

	// PrefixProgressionState - progression snapshot blobs.
	PrefixProgressionState = "progression:state:"

	// PrefixProgressionFeed - notification feed blobs, stored
	// independently from the progression snapshot.
	PrefixProgressionFeed = "progression:feed:"

	// PrefixLeaderboard - sorted-set ranking keys.
	PrefixLeaderboard = "leaderboard:"
)

const (
	// TTLAccountCache bounds staleness of cached account aggregates.
	TTLAccountCache = 10 * time.Minute

	// TTLStateSnapshot is zero: snapshots never expire, they are
	// replaced on write.
	TTLStateSnapshot = 0 * time.Second
)

// Cache wraps the go-redis client with JSON serialization and the
// error conventions the rest of the codebase relies on.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client, config: cfg}, nil
}

// Client exposes the raw go-redis client for operations the wrapper
// does not cover, such as sorted sets in the leaderboard ranking.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close shuts down the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping verifies Redis is reachable. Used by the health probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key. A zero ttl means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get loads the JSON value at key into dest. Returns ErrCacheMiss for
// an absent key.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Delete removes keys. Deleting absent keys is not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteByPattern removes all keys matching pattern, iterating with
// SCAN rather than KEYS so a large keyspace cannot stall the server.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

// HSet stores a JSON-serialized field in a hash.
func (c *Cache) HSet(ctx context.Context, key, field string, value interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.HSet(ctx, key, field, data).Err()
}

// HGetAll returns every field of a hash as raw strings.
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if key == "" {
		return nil, ErrCacheKeyEmpty
	}
	return c.client.HGetAll(ctx, key).Result()
}

// HDel removes fields from a hash.
func (c *Cache) HDel(ctx context.Context, key string, fields ...string) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if len(fields) == 0 {
		return nil
	}
	return c.client.HDel(ctx, key, fields...).Err()
}

// Publish sends a message to a pub/sub channel. Strings and byte
// slices go out as-is; anything else is JSON-serialized. The event bus
// hands over pre-encoded envelopes, so re-encoding them would corrupt
// the wire format.
func (c *Cache) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return ErrCacheKeyEmpty
	}
	switch v := message.(type) {
	case string:
		return c.client.Publish(ctx, channel, v).Err()
	case []byte:
		return c.client.Publish(ctx, channel, v).Err()
	default:
		data, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		return c.client.Publish(ctx, channel, data).Err()
	}
}

// Subscribe opens a pub/sub subscription. The caller owns the
// returned PubSub and must Close it.
func (c *Cache) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.client.Subscribe(ctx, channels...)
}

// AccountKey is the cache key of an account aggregate.
func AccountKey(accountID string) string {
	return PrefixAccount + accountID
}

// StateKey is the key of the progression snapshot blob.
func StateKey(accountID string) string {
	return PrefixProgressionState + accountID
}

// FeedKey is the key of the notification feed blob.
func FeedKey(accountID string) string {
	return PrefixProgressionFeed + accountID
}
