package workerpool

import (
	"context"
	"time"

	tpcontext "github.com/vnykmshr/taskpool/pkg/common/context"
	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

// Future is the caller's handle on the outcome of one submitted task.
//
// The outcome can be retrieved once. Get, a successful GetContext or
// GetWithTimeout, and a ready TryGet all consume it; every later retrieval
// returns errors.ErrAlreadyRetrieved. Done and IsReady never consume.
type Future[T any] struct {
	c *cell[T]
}

// Done returns a channel that is closed once the task has an outcome.
func (f *Future[T]) Done() <-chan struct{} {
	return f.c.done
}

// IsReady reports whether the outcome is available without blocking.
func (f *Future[T]) IsReady() bool {
	select {
	case <-f.c.done:
		return true
	default:
		return false
	}
}

// State returns the task's current lifecycle state. TaskCompleted and
// TaskFailed are reported only once Done is closed, so a terminal State means
// TryGet is ready.
func (f *Future[T]) State() TaskState {
	return f.c.observedState()
}

// Get blocks until the task finishes and returns its value, or the error the
// task returned. A panic inside the task is returned as *errors.TaskError and
// a task discarded by an immediate shutdown yields errors.ErrCancelled.
func (f *Future[T]) Get() (T, error) {
	<-f.c.done
	return f.consume()
}

// GetContext is Get bounded by ctx. If ctx ends first it returns ctx.Err()
// and the outcome stays available for a later retrieval.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.c.done:
		return f.consume()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// GetWithTimeout is Get bounded by timeout. It returns errors.ErrTimeout if the
// outcome is not ready in time; a non-positive timeout waits forever.
func (f *Future[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	ctx, cancel := tpcontext.WithTimeoutOrCancel(context.Background(), timeout)
	defer cancel()

	select {
	case <-f.c.done:
		return f.consume()
	case <-ctx.Done():
		var zero T
		return zero, tperrors.ErrTimeout
	}
}

// TryGet returns the outcome if it is ready. ready is false, and nothing is
// consumed, while the task is still pending or running.
func (f *Future[T]) TryGet() (value T, ready bool, err error) {
	if !f.IsReady() {
		return value, false, nil
	}
	value, err = f.consume()
	return value, true, err
}

func (f *Future[T]) consume() (T, error) {
	if !f.c.retrieved.CompareAndSwap(false, true) {
		var zero T
		return zero, tperrors.ErrAlreadyRetrieved
	}
	return f.c.value, f.c.err
}
