package distributed

import (
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/logging"
	"github.com/vnykmshr/taskpool/pkg/metrics"
)

const moduleName = "distributed"

// limiterType labels this package's rate-limit metrics.
const limiterType = "redis_token_bucket"

// Reservation holds the outcome of one attempt to take tokens.
type Reservation struct {
	// OK reports whether the tokens were taken.
	OK bool

	// Delay is how long until enough tokens will have accumulated when OK is false.
	Delay time.Duration

	Tokens     int
	AllowedAt  time.Time
	InstanceID string
}

// Stats holds distributed limiter statistics.
type Stats struct {
	Rate            float64
	Burst           int
	Tokens          float64
	LastRefill      time.Time
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	ActiveInstances []string
}

// Config holds configuration for the distributed token bucket.
type Config struct {
	// Redis client for coordination
	Redis redis.UniversalClient

	// Key is the Redis key prefix for this limiter
	Key string

	// Rate is the number of tokens added per second
	Rate float64

	// Burst is the maximum number of tokens that can be stored
	Burst int

	// InstanceID uniquely identifies this process. Generated when empty.
	InstanceID string

	// FallbackToLocal enables local rate limiting if Redis is unavailable
	FallbackToLocal bool

	// LocalLimiter is used when Redis is unavailable and FallbackToLocal is set.
	// Defaults to a process-local bucket with the same Rate and Burst.
	LocalLimiter *rate.Limiter

	// RedisTimeout is the timeout for each Redis round trip (defaults to 500ms)
	RedisTimeout time.Duration

	// KeyTTL is how long idle Redis keys live (defaults to 1 hour)
	KeyTTL time.Duration

	// Logger receives fallback and failure logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// DefaultConfig returns a default distributed limiter configuration. Redis,
// Key, Rate and Burst must still be set.
func DefaultConfig() Config {
	return Config{
		InstanceID:      generateInstanceID(),
		FallbackToLocal: true,
		RedisTimeout:    500 * time.Millisecond,
		KeyTTL:          time.Hour,
	}
}

func (c Config) validate() error {
	if c.Redis == nil {
		return tperrors.NewValidationError(moduleName, "Redis", nil, "redis client is required")
	}
	if err := validation.ValidateNotEmpty(moduleName, "Key", c.Key); err != nil {
		return err
	}
	if err := validation.ValidatePositiveFloat(moduleName, "Rate", c.Rate); err != nil {
		return err
	}
	if err := validation.ValidatePositive(moduleName, "Burst", c.Burst); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration(moduleName, "RedisTimeout", c.RedisTimeout); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration(moduleName, "KeyTTL", c.KeyTTL)
}

func (c Config) withDefaults() Config {
	if c.InstanceID == "" {
		c.InstanceID = generateInstanceID()
	}
	if c.RedisTimeout == 0 {
		c.RedisTimeout = 500 * time.Millisecond
	}
	if c.KeyTTL == 0 {
		c.KeyTTL = time.Hour
	}
	if c.FallbackToLocal && c.LocalLimiter == nil {
		c.LocalLimiter = rate.NewLimiter(rate.Limit(c.Rate), c.Burst)
	}
	if c.Logger == nil {
		c.Logger = logging.NewNopLogger()
	}
	return c
}

// RedisError represents a failed Redis operation.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis error in " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
