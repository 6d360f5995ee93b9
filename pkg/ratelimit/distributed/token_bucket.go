package distributed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/logging"
	"github.com/vnykmshr/taskpool/pkg/metrics"
)

// TokenBucket is a token bucket whose state lives in Redis, so every process
// using the same Key draws from one shared budget. It satisfies
// workerpool.Limiter and is safe for concurrent use.
type TokenBucket struct {
	config   Config
	keys     bucketKeys
	logger   logging.Logger
	registry *metrics.Registry

	consume *redis.Script
}

// NewTokenBucket creates a distributed token bucket. When the initial Redis
// round trip fails it returns the error, unless local fallback is enabled, in
// which case the bucket is created and Redis state is initialized lazily.
func NewTokenBucket(config Config) (*TokenBucket, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	tb := &TokenBucket{
		config:  config,
		keys:    newBucketKeys(config.Key),
		logger:  config.Logger,
		consume: redis.NewScript(luaTryConsume),
	}
	if config.Metrics.Enabled {
		tb.registry = metrics.For(config.Metrics)
	}

	if err := tb.initialize(context.Background()); err != nil {
		if !tb.canFallback() {
			return nil, fmt.Errorf("failed to initialize token bucket: %w", err)
		}
		tb.logger.Warn("redis unavailable, starting with local fallback",
			logging.F("key", config.Key),
			logging.F("error", err))
	}
	return tb, nil
}

// initialize sets up the initial state in Redis without overwriting state
// left by other instances.
func (tb *TokenBucket) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, tb.config.RedisTimeout)
	defer cancel()

	ttl := tb.config.KeyTTL
	pipe := tb.config.Redis.TxPipeline()
	pipe.SetNX(ctx, tb.keys.tokens, float64(tb.config.Burst), ttl)
	pipe.SetNX(ctx, tb.keys.last, timeToFloat(time.Now()), ttl)
	pipe.HSet(ctx, tb.keys.config, map[string]interface{}{
		"rate":  tb.config.Rate,
		"burst": tb.config.Burst,
	})
	pipe.Expire(ctx, tb.keys.config, ttl)
	pipe.SAdd(ctx, tb.keys.instances, tb.config.InstanceID)
	pipe.Expire(ctx, tb.keys.instances, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return &RedisError{"initialize", err}
	}
	return nil
}

func (tb *TokenBucket) canFallback() bool {
	return tb.config.FallbackToLocal && tb.config.LocalLimiter != nil
}

// Allow reports whether one token may be taken now.
func (tb *TokenBucket) Allow(ctx context.Context) bool {
	return tb.AllowN(ctx, 1)
}

// AllowN reports whether n tokens may be taken now, taking them if so.
func (tb *TokenBucket) AllowN(ctx context.Context, n int) bool {
	if n <= 0 {
		return true
	}

	r, err := tb.Reserve(ctx, n)
	if err != nil {
		if tb.canFallback() {
			tb.logFallback("AllowN", err)
			return tb.record(tb.config.LocalLimiter.AllowN(time.Now(), n))
		}
		tb.record(false)
		return false
	}
	return tb.record(r.OK)
}

// Wait blocks until one token is taken or ctx ends.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are taken or ctx ends. A request larger than
// Burst can never succeed and fails with errors.ErrRateLimited.
func (tb *TokenBucket) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > tb.config.Burst {
		return fmt.Errorf("%w: %d tokens requested, burst is %d", tperrors.ErrRateLimited, n, tb.config.Burst)
	}

	start := time.Now()
	defer tb.observeWait(start)

	for {
		r, err := tb.Reserve(ctx, n)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if tb.canFallback() {
				tb.logFallback("WaitN", err)
				return tb.config.LocalLimiter.WaitN(ctx, n)
			}
			return err
		}
		if r.OK {
			tb.record(true)
			return nil
		}
		tb.record(false)

		timer := time.NewTimer(r.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reserve makes one attempt to take n tokens. When the bucket is short it
// takes nothing and reports how long until enough tokens accumulate.
func (tb *TokenBucket) Reserve(ctx context.Context, n int) (*Reservation, error) {
	if n <= 0 {
		return &Reservation{OK: true, InstanceID: tb.config.InstanceID}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, tb.config.RedisTimeout)
	defer cancel()

	now := time.Now()
	result, err := tb.consume.Run(ctx, tb.config.Redis,
		[]string{tb.keys.tokens, tb.keys.last, tb.keys.stats},
		n,
		timeToFloat(now),
		tb.config.Rate,
		tb.config.Burst,
		tb.config.KeyTTL.Milliseconds(),
	).Result()
	if err != nil {
		return nil, &RedisError{"reserve", err}
	}

	allowed, delay, err := parseConsumeResult(result)
	if err != nil {
		return nil, &RedisError{"reserve", err}
	}

	return &Reservation{
		OK:         allowed,
		Delay:      delay,
		Tokens:     n,
		AllowedAt:  now.Add(delay),
		InstanceID: tb.config.InstanceID,
	}, nil
}

// parseConsumeResult decodes the script reply [allowed, tokens_after, delay_seconds].
func parseConsumeResult(result interface{}) (allowed bool, delay time.Duration, err error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, errors.New("invalid script result")
	}
	flag, ok := values[0].(int64)
	if !ok {
		return false, 0, errors.New("invalid script result")
	}
	delayStr, _ := values[2].(string)
	seconds, err := strconv.ParseFloat(delayStr, 64)
	if err != nil {
		return false, 0, fmt.Errorf("invalid delay in script result: %w", err)
	}
	return flag == 1, secondsToDuration(seconds), nil
}

// Stats returns the shared bucket state and counters.
func (tb *TokenBucket) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, tb.config.RedisTimeout)
	defer cancel()

	pipe := tb.config.Redis.Pipeline()
	tokensCmd := pipe.Get(ctx, tb.keys.tokens)
	lastCmd := pipe.Get(ctx, tb.keys.last)
	configCmd := pipe.HGetAll(ctx, tb.keys.config)
	instancesCmd := pipe.SMembers(ctx, tb.keys.instances)
	statsCmd := pipe.HGetAll(ctx, tb.keys.stats)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, &RedisError{"stats", err}
	}

	tokens, _ := strconv.ParseFloat(tokensCmd.Val(), 64)
	last, _ := strconv.ParseFloat(lastCmd.Val(), 64)

	cfg := configCmd.Val()
	rateVal, _ := strconv.ParseFloat(cfg["rate"], 64)
	burst, _ := strconv.Atoi(cfg["burst"])

	counters := statsCmd.Val()
	total, _ := strconv.ParseInt(counters["total_requests"], 10, 64)
	allowed, _ := strconv.ParseInt(counters["allowed_requests"], 10, 64)
	denied, _ := strconv.ParseInt(counters["denied_requests"], 10, 64)

	return &Stats{
		Rate:            rateVal,
		Burst:           burst,
		Tokens:          tokens,
		LastRefill:      floatToTime(last),
		TotalRequests:   total,
		AllowedRequests: allowed,
		DeniedRequests:  denied,
		ActiveInstances: instancesCmd.Val(),
	}, nil
}

// Reset deletes the shared state and refills the bucket.
func (tb *TokenBucket) Reset(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, tb.config.RedisTimeout)
	defer cancel()

	if err := tb.config.Redis.Del(rctx, tb.keys.all()...).Err(); err != nil {
		return &RedisError{"reset", err}
	}
	return tb.initialize(ctx)
}

// Close deregisters this instance. The Redis client is owned by the caller
// and stays open.
func (tb *TokenBucket) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tb.config.RedisTimeout)
	defer cancel()

	if err := tb.config.Redis.SRem(ctx, tb.keys.instances, tb.config.InstanceID).Err(); err != nil {
		return &RedisError{"close", err}
	}
	return nil
}

func (tb *TokenBucket) logFallback(op string, err error) {
	tb.logger.Warn("redis unavailable, using local limiter",
		logging.F("key", tb.config.Key),
		logging.F("operation", op),
		logging.F("error", err))
}

func (tb *TokenBucket) record(allowed bool) bool {
	if tb.registry == nil {
		return allowed
	}
	if allowed {
		tb.registry.RateLimitAllowed.WithLabelValues(limiterType, tb.config.Key).Inc()
	} else {
		tb.registry.RateLimitDenied.WithLabelValues(limiterType, tb.config.Key).Inc()
	}
	return allowed
}

func (tb *TokenBucket) observeWait(start time.Time) {
	if tb.registry != nil {
		tb.registry.RateLimitWaitTime.WithLabelValues(limiterType, tb.config.Key).Observe(time.Since(start).Seconds())
	}
}

// luaTryConsume refills the bucket for the elapsed time and takes the
// requested tokens if enough are available. It never goes into debt.
const luaTryConsume = `
-- KEYS[1]: tokens key
-- KEYS[2]: last_refill key
-- KEYS[3]: stats key
-- ARGV[1]: tokens requested
-- ARGV[2]: current time (seconds)
-- ARGV[3]: refill rate (tokens per second)
-- ARGV[4]: capacity
-- ARGV[5]: key ttl (milliseconds)

local requested = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local capacity = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local tokens = tonumber(redis.call('GET', KEYS[1]) or capacity)
local last_refill = tonumber(redis.call('GET', KEYS[2]) or now)

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
local delay = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
    redis.call('HINCRBY', KEYS[3], 'allowed_requests', 1)
else
    delay = (requested - tokens) / rate
    redis.call('HINCRBY', KEYS[3], 'denied_requests', 1)
end
redis.call('HINCRBY', KEYS[3], 'total_requests', 1)

redis.call('SET', KEYS[1], tostring(tokens), 'PX', ttl)
redis.call('SET', KEYS[2], tostring(math.max(now, last_refill)), 'PX', ttl)
redis.call('PEXPIRE', KEYS[3], ttl)

return {allowed, tostring(tokens), tostring(delay)}
`
