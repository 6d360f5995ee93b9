package workerpool

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles task starts. Wait blocks until one more task may start or
// ctx ends. *rate.Limiter and the distributed token bucket both satisfy it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a process-local token bucket admitting perSecond
// task starts per second with bursts of up to burst.
func NewRateLimiter(perSecond float64, burst int) Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
