package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucket refills one token every interval_ms up to capacity and takes one per call.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals)
    last_refill = last_refill + (intervals * interval_ms)
  end
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = interval_ms - (now_ms - last_refill)
  if retry_ms < 0 then retry_ms = 0 end
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_ms }
`)

// Decision is the outcome of a single limiter call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter is a Redis-backed token bucket shared by every API instance.
type Limiter struct {
	client   redis.Scripter
	prefix   string
	capacity int
	window   time.Duration
	now      func() time.Time
}

// NewLimiter allows capacity calls per window for each key.
func NewLimiter(client redis.Scripter, prefix string, capacity int, window time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, prefix: prefix, capacity: capacity, window: window, now: time.Now}
}

// Capacity returns the bucket size.
func (l *Limiter) Capacity() int { return l.capacity }

// Allow takes a token for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	interval := l.window / time.Duration(l.capacity)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ttl := int64(l.window/time.Second) + 1
	vals, err := tokenBucket.Run(ctx, l.client, []string{l.prefix + ":" + key},
		l.now().UnixMilli(), l.capacity, interval.Milliseconds(), ttl).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("platform/cache: limiter: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("platform/cache: limiter: unexpected reply %v", vals)
	}
	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
