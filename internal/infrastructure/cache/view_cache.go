package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache stores computed read models by key, in redis when a client is
// given and in process memory otherwise. Cache failures are logged and
// treated as misses.
type ViewCache[T any] struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	memory map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

// NewViewCache builds a cache; client may be nil.
func NewViewCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
		memory: make(map[string]memoryEntry),
		now:    time.Now,
	}
}

// Get returns the cached value. Values are decoded afresh from redis; in
// memory mode the stored value is copied through JSON as well, so callers
// never share slices or maps.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, c.prefix+key).Bytes()
		if err != nil {
			if err != redis.Nil {
				c.logger.Warn("view cache get failed", zap.String("key", key), zap.Error(err))
			}
			return nil, false
		}
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			c.logger.Warn("view cache decode failed", zap.String("key", key), zap.Error(err))
			return nil, false
		}
		return &out, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.memory[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.memory, key)
		return nil, false
	}
	var out T
	if err := json.Unmarshal(entry.raw, &out); err != nil {
		delete(c.memory, key)
		return nil, false
	}
	return &out, true
}

// Set stores value under key for the configured ttl.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	if c.ttl <= 0 || value == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if c.redis != nil {
		if err := c.redis.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("view cache set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[key] = memoryEntry{raw: raw, expires: c.now().Add(c.ttl)}
}

// Delete evicts key.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if c.redis != nil {
		if err := c.redis.Del(ctx, c.prefix+key).Err(); err != nil {
			c.logger.Warn("view cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.memory, key)
}

// DeletePrefix evicts every key starting with prefix.
func (c *ViewCache[T]) DeletePrefix(ctx context.Context, prefix string) {
	if c.redis != nil {
		iter := c.redis.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("view cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		if len(keys) == 0 {
			return
		}
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("view cache delete failed", zap.String("prefix", prefix), zap.Error(err))
		}
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.memory {
		if strings.HasPrefix(key, prefix) {
			delete(c.memory, key)
		}
	}
}
