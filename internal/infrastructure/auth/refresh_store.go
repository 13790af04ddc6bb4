package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "asso:refresh:"

// refreshStore remembers outstanding refresh tokens by jti.
type refreshStore interface {
	put(ctx context.Context, id, token string, ttl time.Duration) error
	// take deletes id and reports whether it held token.
	take(ctx context.Context, id, token string) (bool, error)
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) put(ctx context.Context, id, token string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKeyPrefix+id, token, ttl).Err()
}

func (s *redisStore) take(ctx context.Context, id, token string) (bool, error) {
	val, err := s.client.GetDel(ctx, refreshKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == token, nil
}

type memoryEntry struct {
	token   string
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) put(_ context.Context, id, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{token: token, expires: now.Add(ttl)}
	return nil
}

func (s *memoryStore) take(_ context.Context, id, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	delete(s.entries, id)
	return e.token == token && !s.now().After(e.expires), nil
}
