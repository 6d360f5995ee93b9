package workerpool

import (
	"time"

	"github.com/vnykmshr/taskpool/pkg/metrics"
)

// limiterType labels rate-limit metrics recorded by the pool itself.
const limiterType = "workerpool"

var _ metrics.Instrumentable = (*Pool)(nil)

// EnableMetrics starts recording Prometheus metrics for the pool, labelled by
// the pool name. It is safe to call while tasks are running.
func (p *Pool) EnableMetrics(config metrics.Config) error {
	p.c.enableMetrics(config)
	return nil
}

// DisableMetrics stops recording metrics. Collectors already registered stay
// registered with their last values.
func (p *Pool) DisableMetrics() {
	p.c.registry.Store(nil)
}

// MetricsEnabled reports whether the pool is recording metrics.
func (p *Pool) MetricsEnabled() bool {
	return p.c.metricsRegistry() != nil
}

func (c *core) enableMetrics(config metrics.Config) {
	c.registry.Store(metrics.For(config))
	c.updateGauges()
}

func (c *core) metricsRegistry() *metrics.Registry {
	return c.registry.Load()
}

// updateGauges publishes the current size, activity and backlog. Every
// change to those values is followed by a call, and snapshots are taken and
// published under gaugeMu, so the gauges settle on the latest values.
func (c *core) updateGauges() {
	r := c.metricsRegistry()
	if r == nil {
		return
	}

	c.gaugeMu.Lock()
	defer c.gaugeMu.Unlock()

	size := len(c.workers)
	if State(c.state.Load()) == StateStopped {
		size = 0
	}
	r.WorkerPoolSize.WithLabelValues(c.name).Set(float64(size))
	r.WorkerPoolActive.WithLabelValues(c.name).Set(float64(c.activeWorkers.Load()))
	r.WorkerPoolQueued.WithLabelValues(c.name).Set(float64(c.queue.len()))
}

func (c *core) recordCancelled() {
	c.totalCancelled.Add(1)
	if r := c.metricsRegistry(); r != nil {
		r.TasksCancelled.WithLabelValues(c.name).Inc()
	}
}

func (c *core) recordFailed() {
	if r := c.metricsRegistry(); r != nil {
		r.TasksFailed.WithLabelValues(c.name).Inc()
	}
}

func (c *core) recordExecution(duration, queueWait time.Duration, err error) {
	r := c.metricsRegistry()
	if r == nil {
		return
	}

	r.TasksCompleted.WithLabelValues(c.name).Inc()
	if err != nil {
		r.TasksFailed.WithLabelValues(c.name).Inc()
	}
	r.TaskExecutionDuration.WithLabelValues(c.name).Observe(duration.Seconds())
	r.TaskQueueWait.WithLabelValues(c.name).Observe(queueWait.Seconds())
}

func (c *core) recordLimiterWait(wait time.Duration) {
	if r := c.metricsRegistry(); r != nil {
		r.RateLimitWaitTime.WithLabelValues(limiterType, c.name).Observe(wait.Seconds())
	}
}
