/*
Package workerpool provides a fixed-size worker pool that executes submitted
callables and hands back a typed Future for each result.

A pool starts a fixed number of worker goroutines that take tasks from one
shared, unbounded FIFO queue. Submitting never blocks on worker availability:
the task is queued and a Future is returned at once.

Basic usage:

	pool, err := workerpool.New(4)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	future, err := workerpool.Submit(pool, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		log.Fatal(err)
	}

	value, err := future.Get() // 42, nil

Futures:

Each Future is fulfilled exactly once, either with the callable's value or
with its failure. Errors returned by the callable are delivered verbatim. A
panic inside the callable is recovered and delivered as *errors.TaskError, and
the worker that ran it keeps serving the queue. The outcome may be retrieved
once; every later retrieval returns errors.ErrAlreadyRetrieved.

	v, err := future.Get()                        // block
	v, err = future.GetWithTimeout(time.Second)   // bounded wait
	v, err = future.GetContext(ctx)               // cancellable wait
	v, ready, err := future.TryGet()              // poll

Shutdown:

Shutdown(Graceful) stops accepting work, runs everything already queued and
waits for the workers to exit. Shutdown(Immediate) also stops accepting work,
but resolves every queued task with errors.ErrCancelled; tasks already running
are never interrupted. Shutdown is idempotent and safe to call concurrently.
Submitting after shutdown has begun fails with an error matching both
errors.ErrPoolShuttingDown and errors.ErrQueueClosed.

A Pool that is dropped without being shut down is shut down gracefully once
the garbage collector reclaims it, so queued tasks still run.

Configuration:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Name:        "ingest",
		TaskTimeout: 30 * time.Second,
		RateLimiter: workerpool.NewRateLimiter(100, 10),
		Logger:      logging.NewSlogLogger(slog.Default()),
		Metrics:     metrics.Config{Enabled: true},
		PanicHandler: func(r interface{}, stack []byte) {
			log.Printf("task panic: %v", r)
		},
	})

Thread Safety:

All Pool and Future methods are safe for concurrent use.
*/
package workerpool
