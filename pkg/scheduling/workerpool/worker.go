package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tpcontext "github.com/vnykmshr/taskpool/pkg/common/context"
	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/logging"
)

// errCorruptQueue is returned by a worker that received an impossible item from
// the work queue. It is never produced under correct use.
var errCorruptQueue = errors.New("work queue returned a nil task")

// WorkerState is the lifecycle position of a single worker.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerExecuting
	WorkerExited
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerExecuting:
		return "executing"
	case WorkerExited:
		return "exited"
	default:
		return "unknown"
	}
}

// worker represents a single worker in the pool.
type worker struct {
	id    int
	pool  *core
	state atomic.Int32
}

func (w *worker) currentState() WorkerState {
	return WorkerState(w.state.Load())
}

// run is the main loop for a worker. It only returns between tasks, once the
// queue is closed and drained, or with an error if the queue misbehaves.
func (w *worker) run() error {
	p := w.pool
	defer w.state.Store(int32(WorkerExited))

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	if p.config.OnWorkerStop != nil {
		defer p.config.OnWorkerStop(w.id)
	}
	p.logger.Debug("worker started", logging.F("pool", p.name), logging.F("worker_id", w.id))

	for {
		t, ok := p.queue.dequeue()
		if !ok {
			p.logger.Debug("worker exiting", logging.F("pool", p.name), logging.F("worker_id", w.id))
			return nil
		}
		if t == nil {
			err := fmt.Errorf("worker %d: %w", w.id, errCorruptQueue)
			p.logger.Error("worker aborted", logging.F("pool", p.name), logging.F("worker_id", w.id), logging.F("error", err))
			return err
		}
		w.execute(t)
	}
}

// execute runs one dequeued task. Failures of the task are recorded in its
// cell and never escape to the worker.
func (w *worker) execute(t runnable) {
	p := w.pool
	queueWait := time.Since(t.submittedAt())

	taskCtx := t.submitContext()
	if err := taskCtx.Err(); err != nil {
		w.cancelTask(t, fmt.Errorf("%w: %w", tperrors.ErrCancelled, err))
		return
	}

	if p.config.RateLimiter != nil {
		if err := w.waitForLimiter(taskCtx); err != nil {
			if tpcontext.IsCanceled(p.ctx) || tpcontext.IsCanceled(taskCtx) {
				w.cancelTask(t, fmt.Errorf("%w: %w", tperrors.ErrCancelled, err))
				return
			}
			// The limiter itself failed; the task is resolved as failed without running.
			limErr := tperrors.NewOperationError(moduleName, "RateLimiter.Wait", err)
			if t.cancel(limErr) {
				p.totalFailed.Add(1)
				p.recordFailed()
			}
			return
		}
	}

	ctx, cancel := tpcontext.WithTimeoutOrCancel(taskCtx, p.config.TaskTimeout)
	defer cancel()

	w.state.Store(int32(WorkerExecuting))
	p.activeWorkers.Add(1)
	p.updateGauges()
	defer func() {
		p.activeWorkers.Add(-1)
		w.state.Store(int32(WorkerIdle))
		p.updateGauges()
	}()

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id)
	}

	start := time.Now()
	ran, err := t.run(ctx)
	duration := time.Since(start)
	if !ran {
		return
	}

	if err != nil {
		p.totalFailed.Add(1)
		if tpcontext.IsTimedOut(ctx) {
			p.logger.Debug("task failed after its timeout",
				logging.F("pool", p.name),
				logging.F("worker_id", w.id),
				logging.F("timeout", p.config.TaskTimeout))
		}
	}
	p.totalCompleted.Add(1)
	p.recordExecution(duration, queueWait, err)

	var terr *tperrors.TaskError
	if errors.As(err, &terr) {
		p.logger.Warn("task panicked",
			logging.F("pool", p.name),
			logging.F("worker_id", w.id),
			logging.F("panic", terr.Panic))
		if p.config.PanicHandler != nil {
			p.config.PanicHandler(terr.Panic, terr.Stack)
		}
	}

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(w.id, Result{
			Error:     err,
			Duration:  duration,
			QueueWait: queueWait,
			WorkerID:  w.id,
		})
	}
}

// waitForLimiter blocks on the configured limiter until it admits the task,
// the task's context ends, or the pool is shut down immediately.
func (w *worker) waitForLimiter(taskCtx context.Context) error {
	p := w.pool
	ctx, cancel := context.WithCancel(taskCtx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	start := time.Now()
	err := p.config.RateLimiter.Wait(ctx)
	p.recordLimiterWait(time.Since(start))
	return err
}

func (w *worker) cancelTask(t runnable, err error) {
	if t.cancel(err) {
		w.pool.recordCancelled()
	}
}
