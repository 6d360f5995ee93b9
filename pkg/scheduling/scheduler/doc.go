/*
Package scheduler submits tasks to a worker pool on recurring schedules.

Every firing becomes one task on the configured pool; the scheduler waits for
that task's Future and reports the outcome through Config.OnComplete. The pool
is owned by the caller and is never shut down by the scheduler.

Basic Usage:

	pool, _ := workerpool.New(4)
	defer pool.Close()

	s, err := scheduler.New(scheduler.Config{
		Pool: pool,
		OnComplete: func(id string, err error) {
			if err != nil {
				log.Printf("job %s failed: %v", id, err)
			}
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		return refreshCache(ctx)
	})

	s.ScheduleCron("nightly-report", "0 2 * * *", task)      // 02:00 every day
	s.ScheduleCron("heartbeat", "0/15 * * * * *", task)      // every 15 seconds
	s.ScheduleRepeating("poll", 500*time.Millisecond, task)  // fixed delay

	s.Start()
	defer func() { <-s.Stop() }()

Cron expressions accept five fields, or six with a leading seconds field, and
the descriptors @yearly, @monthly, @weekly, @daily, @hourly and @every.

Overlap:

With SkipIfStillRunning set, a firing is dropped while the previous firing of
the same job is still queued or running on the pool. Skips are logged and
counted in the scheduler_skipped_total metric.

Shutdown order:

Stop the scheduler before shutting the pool down. A firing that reaches a pool
that is already shutting down reports the submission error to OnComplete.
*/
package scheduler
