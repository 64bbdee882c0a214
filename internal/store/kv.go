package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("document miss")

// KV is the document store surface used by the telemetry layer. SetMulti
// must commit all pairs atomically: a reader never observes one key of the
// batch without the others.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetMulti(ctx context.Context, pairs map[string]string) error
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

var _ KV = (*RedisKV)(nil)

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// SetMulti writes all pairs in a single MULTI/EXEC transaction.
func (r *RedisKV) SetMulti(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	pipe := r.c.TxPipeline()
	for k, v := range pairs {
		pipe.Set(ctx, k, v, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Del removes keys; absent keys are a no-op, not an error.
func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
