package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const defaultPrefix = "advisor:ratelimit"

// FixedWindowLimiter limits requests per key in a fixed time window backed
// by Redis, so every instance shares the same counters.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	client *redis.Client
	prefix string
	log    logger.ILogger
}

func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration, log logger.ILogger) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		client: client,
		prefix: prefix,
		log:    log,
	}, nil
}

// Allow reports whether key is still within quota. Redis failures let the
// request through and are logged.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		l.log.Warn("RATE_LIMIT", "Redis unavailable, allowing request", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return true
	}
	return count <= int64(l.limit)
}

// Middleware limits requests per principal (falling back to client IP).
// scope separates counters of different routes. A nil limiter is a no-op.
func Middleware(l *FixedWindowLimiter, scope string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if l == nil {
			return ctx.Next()
		}
		key := "ip:" + ctx.IP()
		if userID, ok := serverutils.CurrentUserID(ctx); ok {
			key = "user:" + userID.String()
		}
		if !l.Allow(ctx.UserContext(), scope+":"+key) {
			return serverutils.NewTooManyRequests("Too many requests")
		}
		return ctx.Next()
	}
}
