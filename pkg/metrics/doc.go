// Package metrics provides Prometheus instrumentation for taskpool components.
//
// # Overview
//
// The package instruments:
//   - Worker pools (submitted, completed, failed and cancelled tasks, execution
//     and queue-wait latency, pool size, active workers, queued tasks)
//   - Recurring schedulers (runs, failures, skipped firings)
//   - Rate limiters gating task starts (allowed, denied, wait time)
//
// # Quick Start
//
// Enable metrics through a component's configuration:
//
//	pool, err := workerpool.NewWithConfig(workerpool.Config{
//		WorkerCount: 8,
//		Name:        "thumbnails",
//		Metrics:     metrics.DefaultConfig(),
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	cfg := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//		Labels:   prometheus.Labels{"service": "ingest"},
//	}
//
// Components sharing the same registerer, namespace and labels share one
// Registry obtained with For; each writes under its own name label.
//
// # Available Metrics
//
//   - taskpool_workerpool_tasks_submitted_total
//   - taskpool_workerpool_tasks_completed_total
//   - taskpool_workerpool_tasks_failed_total
//   - taskpool_workerpool_tasks_cancelled_total
//   - taskpool_workerpool_task_duration_seconds
//   - taskpool_workerpool_task_queue_wait_seconds
//   - taskpool_workerpool_size
//   - taskpool_workerpool_active_workers
//   - taskpool_workerpool_queued_tasks
//   - taskpool_scheduler_runs_total
//   - taskpool_scheduler_failures_total
//   - taskpool_scheduler_skipped_total
//   - taskpool_ratelimit_allowed_total
//   - taskpool_ratelimit_denied_total
//   - taskpool_ratelimit_wait_duration_seconds
//
// # Runtime Control
//
// Components implementing Instrumentable support runtime control:
//
//	pool.DisableMetrics()
//	pool.EnableMetrics(cfg)
//	enabled := pool.MetricsEnabled()
package metrics
