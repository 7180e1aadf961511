package localstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore persists values in Redis, for shell sessions that share cart
// state across hosts. Keys are namespaced per session so two guests never
// collide.
type RedisStore struct {
	rdb       redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedisStore returns a store over the given client. namespace is
// prefixed to every key; ttl of zero means values never expire.
func NewRedisStore(rdb redis.UniversalClient, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, namespace: namespace, ttl: ttl}
}

// Get returns the stored value for key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return raw, nil
}

// Set writes the value for key, refreshing the TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", key)
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}
