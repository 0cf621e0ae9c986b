package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"PerpIndexer/internal/entity"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh the cache; reads check
// Redis first then fall back to the primary. Cache failures are never
// fatal, the primary store always has the answer.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) Load(ctx context.Context, kind entity.Kind, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, cacheKey(kind, key)).Bytes()
	if err == nil {
		return data, nil
	}

	// Cache miss: read from primary.
	data, err = s.primary.Load(ctx, kind, key)
	if err != nil {
		return nil, err
	}

	s.rdb.Set(ctx, cacheKey(kind, key), data, s.ttl)
	return data, nil
}

func (s *CachedStore) Save(ctx context.Context, kind entity.Kind, key string, data []byte) error {
	if err := s.primary.Save(ctx, kind, key, data); err != nil {
		return err
	}
	s.rdb.Set(ctx, cacheKey(kind, key), data, s.ttl)
	return nil
}

func (s *CachedStore) Remove(ctx context.Context, kind entity.Kind, key string) error {
	if err := s.primary.Remove(ctx, kind, key); err != nil {
		return err
	}
	s.rdb.Del(ctx, cacheKey(kind, key))
	return nil
}

// ConnectRedis dials Redis and verifies the connection.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func cacheKey(kind entity.Kind, key string) string {
	return fmt.Sprintf("entity:%s:%s", kind, key)
}
