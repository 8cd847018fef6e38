package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded entries in redis under prefix+key. Redis
// expiry is set to the TTL so stale keys do not accumulate; freshness is
// still decided from the stored fetch time.
type RedisStore[T any] struct {
	policy
	rdb    *redis.Client
	prefix string
}

func NewRedisStore[T any](rdb *redis.Client, prefix string, ttl time.Duration, opts ...Option) *RedisStore[T] {
	return &RedisStore[T]{policy: newPolicy(ttl, opts), rdb: rdb, prefix: prefix}
}

func (r *RedisStore[T]) key(k string) string { return r.prefix + k }

func (r *RedisStore[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	var e Entry[T]
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		// a corrupt slot behaves like a miss and is overwritten on the next Set
		return Entry[T]{}, false, nil
	}
	return e, true, nil
}

func (r *RedisStore[T]) Set(ctx context.Context, key string, value T) (Entry[T], error) {
	e := Entry[T]{Value: value, FetchedAtMillis: r.nowMillis()}
	b, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), b, r.ttl).Err(); err != nil {
		return e, fmt.Errorf("redis set %s: %w", key, err)
	}
	return e, nil
}

func (r *RedisStore[T]) IsExpired(e Entry[T]) bool { return r.expired(e.FetchedAtMillis) }
