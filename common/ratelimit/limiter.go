package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Fixed-window counter: INCR the key, set the expiry on first hit, and
// report how long until the window resets when over the limit.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("EXPIRE", KEYS[1], ARGV[2])
end
local limit = tonumber(ARGV[1])
if current > limit then
    local ttl = redis.call("TTL", KEYS[1])
    if ttl < 0 then
        ttl = tonumber(ARGV[2])
    end
    return {0, current, limit, ttl}
end
return {1, current, limit, 0}
`

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// Limiter throttles treasury mutations using Redis + Lua. Proposal and
// signature submissions count against a per-fund window; the global window
// protects the service as a whole.
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// New creates a limiter with the counter script preloaded
func New(redisClient *redis.Client, logger Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// CheckGlobalLimit checks the service-wide mutation limit
func (l *Limiter) CheckGlobalLimit(ctx context.Context, limit int64) (*Result, error) {
	return l.checkLimit(ctx, "treasury:rate_limit:global", limit, 60)
}

// CheckFundLimit checks the mutation limit for one fund
func (l *Limiter) CheckFundLimit(ctx context.Context, fundID string, limit int64) (*Result, error) {
	key := fmt.Sprintf("treasury:rate_limit:fund:%s", fundID)
	return l.checkLimit(ctx, key, limit, 60)
}

// checkLimit executes the counter script atomically
func (l *Limiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	raw, err := l.script.Run(ctx, l.redis, []string{key}, limit, windowSec).Result()
	if err != nil {
		l.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// Result array: {allowed, current_count, limit, retry_after}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	result := &Result{
		Allowed:           values[0].(int64) == 1,
		CurrentCount:      values[1].(int64),
		Limit:             values[2].(int64),
		RetryAfterSeconds: values[3].(int64),
	}

	if !result.Allowed {
		l.logger.Warn("rate limit exceeded",
			"key", key,
			"current", result.CurrentCount,
			"limit", result.Limit,
			"retry_after", result.RetryAfterSeconds)
	}

	return result, nil
}
