// Package distributed provides a Redis-backed token bucket shared by several
// processes.
//
// Every process that builds a TokenBucket with the same Key draws from one
// budget. The refill and the take happen in a single Lua script, so concurrent
// callers on different hosts never overdraw the bucket.
//
// # Quick Start
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//
//	limiter, err := distributed.NewTokenBucket(distributed.Config{
//		Redis: rdb,
//		Key:   "ingest",
//		Rate:  100, // tokens per second, across all instances
//		Burst: 20,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer limiter.Close()
//
//	if limiter.Allow(ctx) {
//		// proceed
//	}
//
// # Throttling a worker pool
//
// TokenBucket satisfies workerpool.Limiter, so a fleet of pools can share one
// task-start budget:
//
//	pool, err := workerpool.NewWithConfig(workerpool.Config{
//		WorkerCount: 8,
//		RateLimiter: limiter,
//	})
//
// # Fallback
//
// With FallbackToLocal set, Redis failures are logged and the limiter falls
// back to a process-local golang.org/x/time/rate bucket with the same Rate and
// Burst, or to Config.LocalLimiter when given. Without it, Redis failures are
// returned as *RedisError and Allow reports false.
//
// # Keys
//
// All keys share the hash tag "{Key}" so they land in one Redis Cluster slot:
//
//	{Key}:tokens       current token count
//	{Key}:last_refill  time of the last refill, in seconds
//	{Key}:config       rate and burst, for inspection
//	{Key}:stats        total, allowed and denied request counters
//	{Key}:instances    IDs of the instances using the bucket
//
// Keys expire after KeyTTL without traffic.
package distributed
