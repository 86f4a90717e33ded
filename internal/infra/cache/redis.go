package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a JSON-encoding cache on top of a Redis client. Redis failures are
// logged and reported as misses so callers fall through to the source.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// callTimeout bounds every Redis round trip.
const callTimeout = 500 * time.Millisecond

// NewRedisClient builds a client for addr. It does not dial until first use.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewRedis wraps client. Keys are namespaced with prefix.
func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *Redis[T]) key(k string) string { return c.prefix + k }

func (c *Redis[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, callTimeout)
}

// Get returns the decoded value stored under key.
func (c *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("redis value undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

// Set encodes value and stores it with the cache TTL.
func (c *Redis[T]) Set(ctx context.Context, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis value unencodable", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes key.
func (c *Redis[T]) Delete(ctx context.Context, key string) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping checks connectivity; used by the readiness probe.
func (c *Redis[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
