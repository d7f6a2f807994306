package dropdown

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore shares the lists between API replicas and the cache-warm worker.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Ping reports whether the redis server answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(k Key) string {
	return s.prefix + "dropdown:" + string(k)
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]string, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, values []string, ttl time.Duration) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = s.key(k)
	}
	return s.client.Del(ctx, names...).Err()
}
