// Package cache holds the time-bounded stores shared by the token data and
// preview image caches. Stores never coordinate refetches: two callers that
// miss the same key both fetch, and the last Set wins.
package cache

import (
	"context"
	"time"
)

// DefaultTTL applies when a store is built with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Entry is a cached value and the wall-clock millisecond it was fetched.
type Entry[T any] struct {
	Value           T     `json:"value"`
	FetchedAtMillis int64 `json:"fetchedAtEpochMillis"`
}

// FetchedAt returns the fetch time as a time.Time.
func (e Entry[T]) FetchedAt() time.Time { return time.UnixMilli(e.FetchedAtMillis) }

// Cache is the store contract. Get returns whatever is stored, expired or
// not; callers decide freshness with IsExpired.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (Entry[T], bool, error)
	Set(ctx context.Context, key string, value T) (Entry[T], error)
	IsExpired(e Entry[T]) bool
}

// Fresh returns the stored value only when it is present and younger than the TTL.
func Fresh[T any](ctx context.Context, c Cache[T], key string) (T, bool, error) {
	var zero T
	e, ok, err := c.Get(ctx, key)
	if err != nil || !ok || c.IsExpired(e) {
		return zero, false, err
	}
	return e.Value, true, nil
}

// Option configures the expiry policy shared by every store.
type Option func(*policy)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *policy) { p.now = now }
}

type policy struct {
	ttl time.Duration
	now func() time.Time
}

func newPolicy(ttl time.Duration, opts []Option) policy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := policy{ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func (p policy) nowMillis() int64 { return p.now().UnixMilli() }

func (p policy) expired(fetchedAtMillis int64) bool {
	return p.nowMillis()-fetchedAtMillis >= p.ttl.Milliseconds()
}
