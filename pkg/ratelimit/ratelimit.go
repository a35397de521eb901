// Package ratelimit implements token-bucket request throttling.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN BUCKET
// ══════════════════════════════════════════════════════════════════════════════

// Limiter implements the token bucket algorithm. The bucket refills at
// a fixed rate and allows short bursts up to its capacity.
type Limiter struct {
	mu sync.Mutex

	maxTokens  float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
}

// Config contains configuration for a Limiter.
type Config struct {
	// RequestsPerSecond is the sustained refill rate.
	RequestsPerSecond float64

	// BurstSize is the bucket capacity.
	BurstSize int
}

// DefaultConfig returns defaults suitable for a public API endpoint.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10.0,
		BurstSize:         20,
	}
}

// StrictConfig returns tight limits for sensitive endpoints (login,
// registration).
func StrictConfig() Config {
	return Config{
		RequestsPerSecond: 1.0,
		BurstSize:         5,
	}
}

// NewLimiter creates a Limiter with a full bucket.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		maxTokens:  float64(config.BurstSize),
		refillRate: config.RequestsPerSecond,
		tokens:     float64(config.BurstSize),
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens < 1.0 {
		return false
	}
	l.tokens--
	return true
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.nextToken()):
		}
	}
}

// Tokens returns the current token count.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// nextToken returns how long until at least one token is available.
func (l *Limiter) nextToken() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1.0 {
		return 0
	}
	needed := 1.0 - l.tokens
	return time.Duration(needed / l.refillRate * float64(time.Second))
}

// refill adds tokens for the elapsed time. Caller holds the lock.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYED LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// KeyedLimiter maintains an independent bucket per key (client IP,
// account ID). Idle buckets are evicted to bound memory.
type KeyedLimiter struct {
	mu sync.Mutex

	config   Config
	buckets  map[string]*keyedBucket
	maxIdle  time.Duration
	lastSeen map[string]time.Time
}

type keyedBucket struct {
	limiter *Limiter
}

// NewKeyedLimiter creates a KeyedLimiter. Buckets idle longer than
// maxIdle are dropped during sweeps.
func NewKeyedLimiter(config Config, maxIdle time.Duration) *KeyedLimiter {
	if maxIdle <= 0 {
		maxIdle = 10 * time.Minute
	}
	return &KeyedLimiter{
		config:   config,
		buckets:  make(map[string]*keyedBucket),
		lastSeen: make(map[string]time.Time),
		maxIdle:  maxIdle,
	}
}

// Allow consumes a token from the key's bucket.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: NewLimiter(k.config)}
		k.buckets[key] = b
	}
	k.lastSeen[key] = time.Now()
	k.mu.Unlock()

	return b.limiter.Allow()
}

// Sweep removes buckets that have been idle past the threshold.
// Returns the number of buckets evicted.
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := time.Now().Add(-k.maxIdle)
	evicted := 0
	for key, seen := range k.lastSeen {
		if seen.Before(cutoff) {
			delete(k.buckets, key)
			delete(k.lastSeen, key)
			evicted++
		}
	}
	return evicted
}

// Size returns the number of live buckets.
func (k *KeyedLimiter) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
