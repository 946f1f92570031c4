package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"insuralytics/internal/log"
)

// RedisConfig holds connection settings for RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

// RedisCache stores JSON-encoded values in Redis under a key prefix.
// It is best-effort: every Redis error is logged and reads as a miss.
type RedisCache[T any] struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	errors  atomic.Int64
	logger  *log.Logger
}

// NewRedisCache creates a Redis-backed cache. It does not dial eagerly;
// use Ping to check connectivity.
func NewRedisCache[T any](cfg RedisConfig, logger *log.Logger) *RedisCache[T] {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "insuralytics:kpi:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		MaxRetries:   1,
	})
	return &RedisCache[T]{
		client:  client,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

// Ping checks the connection.
func (c *RedisCache[T]) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Errors returns how many Redis operations failed.
func (c *RedisCache[T]) Errors() int64 {
	return c.errors.Load()
}

func (c *RedisCache[T]) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *RedisCache[T]) fail(op string, err error) {
	c.errors.Add(1)
	c.logger.Warn("Redis cache operation failed", log.FieldOperation, op, log.FieldError, err)
}

// Get retrieves and decodes a value.
func (c *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := c.ctx()
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.fail("get", err)
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.fail("decode", err)
		return zero, false
	}
	return v, true
}

// Contains reports whether the key exists.
func (c *RedisCache[T]) Contains(key string) bool {
	ctx, cancel := c.ctx()
	defer cancel()

	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		c.fail("exists", err)
		return false
	}
	return n > 0
}

// Set encodes and stores a value without expiry.
func (c *RedisCache[T]) Set(key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.fail("encode", err)
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, raw, 0).Err(); err != nil {
		c.fail("set", err)
	}
}

// Delete removes a key.
func (c *RedisCache[T]) Delete(key string) {
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.fail("del", err)
	}
}

// Clear removes every key under the prefix.
func (c *RedisCache[T]) Clear() {
	keys, err := c.scan()
	if err != nil {
		c.fail("scan", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.fail("del", err)
	}
}

// Size counts the keys under the prefix.
func (c *RedisCache[T]) Size() int {
	keys, err := c.scan()
	if err != nil {
		c.fail("scan", err)
		return 0
	}
	return len(keys)
}

func (c *RedisCache[T]) scan() ([]string, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection
func (c *RedisCache[T]) Close() error {
	return c.client.Close()
}
