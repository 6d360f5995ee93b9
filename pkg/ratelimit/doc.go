/*
Package ratelimit groups the rate limiters that can throttle task starts in a
worker pool.

  - distributed: Token bucket kept in Redis and shared across processes

For a process-local limit, workerpool.NewRateLimiter wraps
golang.org/x/time/rate. Both satisfy workerpool.Limiter:

	limiter, err := distributed.NewTokenBucket(distributed.Config{
		Redis: rdb,
		Key:   "ingest",
		Rate:  100,
		Burst: 20,
	})
	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		RateLimiter: limiter,
	})
*/
package ratelimit
