package redis

import (
	"context"

	"vote-preview/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient returns nil when no redis address is configured; callers fall
// back to in-process stores.
func NewClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
}

func LuaEval(ctx context.Context, rdb *redis.Client, script string, keys []string, args ...interface{}) *redis.Cmd {
	return rdb.Eval(ctx, script, keys, args...)
}

// Ping reports readiness; a nil client is always ready.
func Ping(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Ping(ctx).Err()
}
