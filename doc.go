/*
Package taskpool provides a fixed-size thread pool whose submissions return
futures, plus the pieces commonly wired around it.

Task Execution (pkg/scheduling):
  - workerpool: Fixed workers, FIFO queue, typed futures, graceful and immediate shutdown
  - scheduler: Cron and interval-based submission into a pool

Rate Limiting (pkg/ratelimit):
  - distributed: Redis token bucket shared by pools on several hosts

Support:
  - config: YAML or JSON pool definitions
  - metrics: Prometheus instrumentation
  - logging: Structured logger interface

Example usage:

	import "github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"

	pool, _ := workerpool.New(4)
	defer pool.Shutdown(workerpool.Graceful)

	f, _ := workerpool.Submit(pool, func() (int, error) {
		return 6 * 7, nil
	})
	v, err := f.Get() // 42, nil
*/
package taskpool
