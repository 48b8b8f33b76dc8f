package ratelimiter

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// RedisWindowLimiter keeps a sorted set of request timestamps per (ip, route)
// and trims it to the window inside a Lua script, so check-and-record is one
// atomic round trip.
type RedisWindowLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	script *redis.Script
}

// NewRedisWindowLimiter constructs a limiter over the given Redis client.
func NewRedisWindowLimiter(rdb *redis.Client, limit int64, window time.Duration) *RedisWindowLimiter {
	return &RedisWindowLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindowScript),
	}
}

const luaSlidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)

if count >= limit then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  local retry = 0
  if oldest[2] ~= nil then
    retry = (tonumber(oldest[2]) + window) - now
  end
  return { 0, retry }
end

redis.call("ZADD", key, now, tostring(now) .. ":" .. tostring(count))
redis.call("PEXPIRE", key, window)
return { 1, 0 }
`

// Allow reports whether the ip may call the route now. Redis failures let the
// request through with err set.
func (l *RedisWindowLimiter) Allow(ctx domain.Context, ip, route string) (bool, time.Duration, error) {
	key := "demo_rate:" + route + ":" + ip
	nowMs := time.Now().UnixMilli()
	res, err := l.script.Run(ctx, l.rdb, []string{key}, nowMs, l.window.Milliseconds(), l.limit).Result()
	if err != nil {
		return true, 0, fmt.Errorf("op=ratelimit.redis: %w", err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return true, 0, fmt.Errorf("op=ratelimit.redis: unexpected script result %v", res)
	}
	allowed := asInt64(vals[0]) == 1
	retryAfter := time.Duration(asInt64(vals[1])) * time.Millisecond
	if !allowed && retryAfter <= 0 {
		retryAfter = l.window
	}
	return allowed, retryAfter, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
