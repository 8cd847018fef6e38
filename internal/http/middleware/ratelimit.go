package middleware

import (
	"context"
	"log/slog"
	"math"
	"time"

	"vote-preview/internal/config"
	red "vote-preview/internal/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

const rlLua = `
local tkey = KEYS[1]..":t"
local lastkey = KEYS[1]..":ts"
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
local tokens = tonumber(redis.call('GET', tkey) or burst)
local last = tonumber(redis.call('GET', lastkey) or now)
local delta = math.max(0, now - last) * rate / 1000
tokens = math.min(burst, tokens + delta)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('SET', tkey, tokens, 'PX', ttl)
redis.call('SET', lastkey, now, 'PX', ttl)
return allowed`

// RateLimit limits requests per client IP. With redis the token bucket is
// shared by every instance pointing at it; without, each process keeps its
// own sliding window.
func RateLimit(cfg config.Config, rdb *redis.Client) fiber.Handler {
	if rdb == nil {
		return limiter.New(limiter.Config{
			Next:              skipProbes,
			Max:               cfg.RateLimitBurst,
			Expiration:        window(cfg),
			LimiterMiddleware: limiter.SlidingWindow{},
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "rate limited")
			},
		})
	}

	ttl := 2 * window(cfg).Milliseconds()
	return func(c *fiber.Ctx) error {
		if skipProbes(c) {
			return c.Next()
		}
		key := "rl:" + c.IP()
		now := time.Now().UnixMilli()
		ctx, cancel := context.WithTimeout(c.UserContext(), 250*time.Millisecond)
		defer cancel()
		ok, err := red.LuaEval(ctx, rdb, rlLua, []string{key}, now, cfg.RateLimitRPS, cfg.RateLimitBurst, ttl).Int()
		if err != nil {
			// fail open
			slog.Warn("Rate limiter unavailable", slog.Any("error", err))
			return c.Next()
		}
		if ok == 0 {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limited")
		}
		return c.Next()
	}
}

// window is the time needed to refill a full bucket.
func window(cfg config.Config) time.Duration {
	secs := math.Ceil(float64(cfg.RateLimitBurst) / float64(cfg.RateLimitRPS))
	return time.Duration(math.Max(secs, 1)) * time.Second
}

func skipProbes(c *fiber.Ctx) bool {
	p := c.Path()
	return p == "/healthz" || p == "/readyz"
}
