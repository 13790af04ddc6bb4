package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Quota is the number of requests a key may issue per window. Burst extends
// the allowance of a fresh or idle key.
type Quota struct {
	Limit  int
	Burst  int
	Window time.Duration
}

func (q Quota) normalized() Quota {
	if q.Window <= 0 {
		q.Window = time.Minute
	}
	if q.Burst < 0 {
		q.Burst = 0
	}
	return q
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter throttles keyed callers.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter refills a token bucket per key at Limit tokens per Window.
type MemoryLimiter struct {
	quota Quota
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewMemoryLimiter builds a process-local limiter.
func NewMemoryLimiter(q Quota) *MemoryLimiter {
	return &MemoryLimiter{quota: q.normalized(), now: time.Now, buckets: make(map[string]*bucket)}
}

// refilled is the token count of b at now, capped at capacity.
func (m *MemoryLimiter) refilled(b *bucket, now time.Time, capacity float64) float64 {
	refill := now.Sub(b.seen).Seconds() / m.quota.Window.Seconds() * float64(m.quota.Limit)
	return minFloat(capacity, b.tokens+refill)
}

// sweep drops buckets idle for a window that have refilled completely. A full
// bucket is indistinguishable from a fresh one, so forgetting it is lossless.
// It runs at most once per window.
func (m *MemoryLimiter) sweep(now time.Time, capacity float64) {
	if now.Sub(m.lastSweep) < m.quota.Window {
		return
	}
	m.lastSweep = now
	for key, b := range m.buckets {
		if now.Sub(b.seen) >= m.quota.Window && m.refilled(b, now, capacity) >= capacity {
			delete(m.buckets, key)
		}
	}
}

// Allow consumes one token for key.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	capacity := float64(m.quota.Limit + m.quota.Burst)
	m.sweep(now, capacity)
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, seen: now}
		m.buckets[key] = b
	} else {
		b.tokens = m.refilled(b, now, capacity)
		b.seen = now
	}

	d := Decision{Limit: m.quota.Limit, Reset: now.Add(m.quota.Window)}
	if b.tokens < 1 {
		if m.quota.Limit > 0 {
			wait := (1 - b.tokens) / float64(m.quota.Limit) * m.quota.Window.Seconds()
			d.Reset = now.Add(time.Duration(wait * float64(time.Second)))
		}
		return d, nil
	}
	b.tokens--
	d.Allowed = true
	d.Remaining = int(b.tokens)
	return d, nil
}

// RedisLimiter counts requests in fixed windows shared by every instance.
type RedisLimiter struct {
	client redis.Cmdable
	quota  Quota
	prefix string
}

// NewRedisLimiter builds a distributed limiter whose keys live under prefix.
func NewRedisLimiter(client redis.Cmdable, q Quota, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, quota: q.normalized(), prefix: prefix}
}

// Allow increments the window counter for key.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := r.prefix + ":" + key
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}
	window := ttl.Val()
	if window <= 0 {
		window = r.quota.Window
		if err := r.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire %s: %w", redisKey, err)
		}
	}

	allowance := int64(r.quota.Limit + r.quota.Burst)
	count := incr.Val()
	d := Decision{Limit: r.quota.Limit, Reset: time.Now().Add(window)}
	if count > allowance {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = int(allowance - count)
	return d, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
