/*
Package scheduling provides task execution and scheduling primitives.

  - workerpool: Fixed worker pool returning a Future for every submission
  - scheduler: Time-based recurring submission into a worker pool

Worker Pool:

	pool, err := workerpool.New(4)
	if err != nil {
		return err
	}
	defer pool.Shutdown(workerpool.Graceful)

	f, err := workerpool.Submit(pool, func() (string, error) {
		return fetch(url)
	})
	body, err := f.Get()

Scheduler:

	s, err := scheduler.New(scheduler.Config{Pool: pool})
	if err != nil {
		return err
	}
	s.ScheduleCron("nightly", "0 0 2 * * *", task)
	s.ScheduleRepeating("heartbeat", 30*time.Second, task)
	s.Start()
	defer s.Stop()

All components are safe for concurrent use and accept a context where an
operation can block.
*/
package scheduling
