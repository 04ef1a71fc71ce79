package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrKeyNotFound = errors.New("key not found")

// Redis database indices, one per namespace. Keys in different namespaces
// never collide even when they share the same email.
const (
	DBPendingRegistrations = 0
	DBActiveUsers          = 1
	DBPendingResets        = 2
)

// Store is a key-value store with per-key field maps and per-key expiration.
// Expired keys behave as absent for every read.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	SetFields(ctx context.Context, key string, fields map[string]string) error
	GetField(ctx context.Context, key, field string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	GetValue(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given logical database of a Redis server.
// Each namespace gets its own explicitly constructed store.
func NewRedisStore(addr, pass string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetFields replaces the full field map for the key. A previously stored
// field that is absent from fields does not survive the write.
func (s *RedisStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		args := make([]interface{}, 0, len(fields)*2)
		for f, v := range fields {
			args = append(args, f, v)
		}
		pipe.HSet(ctx, key, args...)
		return nil
	})
	return err
}

func (s *RedisStore) GetField(ctx context.Context, key, field string) (string, error) {
	val, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetValue stores a whole value without an expiry; callers that want the key
// time-bounded must follow up with Expire.
func (s *RedisStore) SetValue(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) GetValue(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
