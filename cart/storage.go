package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage persists carts keyed by the shopper's session. A nil item slice
// from Load means "no cart yet".
type Storage interface {
	Load(ctx context.Context, key string) ([]LineItem, error)
	Save(ctx context.Context, key string, items []LineItem) error
	Clear(ctx context.Context, key string) error
}

// MemoryStorage keeps carts in-process. Used in tests and as a fallback when
// Redis is not configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]LineItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]LineItem)}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.carts[key]
	if !ok {
		return nil, nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]LineItem, len(items))
	copy(stored, items)
	s.carts[key] = stored
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}

// RedisStorage persists carts as TTL'd JSON blobs.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) getKey(key string) string {
	return fmt.Sprintf("cart:session:%s", key)
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]LineItem, error) {
	data, err := s.client.Get(ctx, s.getKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.getKey(key), data, s.ttl).Err()
}

func (s *RedisStorage) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.getKey(key)).Err()
}
