package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rryowa/newsapp/internal/util"
)

const keyPrefix = "ratelimit:"

// fixedWindowScript counts hits in a window and sets a block key once the
// limit is crossed.
//
// KEYS[1] = counter key, KEYS[2] = block key
// ARGV[1] = limit, ARGV[2] = window ms, ARGV[3] = block ms
//
// Returns {allowed, retry_after_ms}.
var fixedWindowScript = redis.NewScript(`
local blocked = redis.call('PTTL', KEYS[2])
if blocked > 0 then
  return {0, blocked}
end

local current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end

if current > tonumber(ARGV[1]) then
  redis.call('SET', KEYS[2], 1, 'PX', ARGV[3])
  redis.call('DEL', KEYS[1])
  return {0, tonumber(ARGV[3])}
end
return {1, 0}
`)

// RateLimiter shares hit counters between instances through Redis.
type RateLimiter struct {
	client *redis.Client
	cfg    *util.RateLimiterConfig
}

func NewRateLimiter(client *redis.Client, cfg *util.RateLimiterConfig) *RateLimiter {
	return &RateLimiter{client: client, cfg: cfg}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if key == "" {
		return false, 0, errors.New("rate limit key is required")
	}

	keys := []string{keyPrefix + key, keyPrefix + key + ":blocked"}
	res, err := fixedWindowScript.Run(
		ctx,
		r.client,
		keys,
		r.cfg.Limit,
		r.cfg.Interval.Milliseconds(),
		r.cfg.BlockTime.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
