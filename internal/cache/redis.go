package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the persisted Store. Values carry their own expiry inside
// a JSON envelope so the absence rule is identical to the in-memory
// store even if the redis-side TTL drifts.
type Redis[T any] struct {
	client    *redis.Client
	namespace string
}

func NewRedis[T any](client *redis.Client, namespace string) *Redis[T] {
	return &Redis[T]{client: client, namespace: namespace}
}

type envelope[T any] struct {
	Value  T     `json:"v"`
	Expiry int64 `json:"exp"`
}

func (r *Redis[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	full := r.namespace + ":" + key

	raw, err := r.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		// Unreadable entries are dropped, not surfaced.
		_ = r.client.Del(ctx, full).Err()
		return zero, false, nil
	}
	if time.Now().UnixMilli() > env.Expiry {
		_ = r.client.Del(ctx, full).Err()
		return zero, false, nil
	}
	return env.Value, true, nil
}

func (r *Redis[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(envelope[T]{
		Value:  value,
		Expiry: time.Now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.namespace+":"+key, raw, ttl).Err()
}

func (r *Redis[T]) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) > 0 {
		full := make([]string, 0, len(keys))
		for _, key := range keys {
			full = append(full, r.namespace+":"+key)
		}
		return r.client.Del(ctx, full...).Err()
	}

	iter := r.client.Scan(ctx, 0, r.namespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
