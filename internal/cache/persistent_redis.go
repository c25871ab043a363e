package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the alternate persistent-tier backend, selected when
// PERSISTENT_CACHE_BACKEND=redis. Values are stored without an expiry: the persistent
// tier is meant to live until overwritten, same as the embedded-KV
// default; TTL enforcement for negative entries happens at the two-tier
// layer via an embedded expiry timestamp in the serialized record.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a store over an existing client, namespacing keys
// with prefix so the store can share a Redis instance with other users.
// bootstrap builds one store with prefix "acquisition:" that both engines
// share; comment keys carry their own "comments:" prefix inside it.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	val, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(key string, value []byte) error {
	return s.client.Set(context.Background(), s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(key string) error {
	return s.client.Del(context.Background(), s.prefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
