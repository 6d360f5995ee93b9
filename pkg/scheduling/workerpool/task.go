package workerpool

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

// Task represents a unit of work that produces no value.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// TaskState is the lifecycle position of a submitted task.
type TaskState int32

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// runnable is the type-erased view workers and the queue have of a cell.
type runnable interface {
	// run executes the callable and publishes its outcome. It reports false
	// when the task was no longer pending and therefore did not run.
	run(ctx context.Context) (ran bool, err error)

	// cancel resolves a pending task with err without running it.
	cancel(err error) bool

	// submitContext is the context the task was submitted with.
	submitContext() context.Context

	submittedAt() time.Time
}

// cell holds one submitted callable and, once resolved, its outcome.
// state moves Pending -> Running -> Completed|Failed, or Pending -> Failed on
// cancellation; it arbitrates between run and cancel. The outcome fields,
// final included, are written once, before done is closed, and are only read
// after done is closed.
type cell[T any] struct {
	fn        func(ctx context.Context) (T, error)
	ctx       context.Context
	submitted time.Time

	state     atomic.Int32
	done      chan struct{}
	value     T
	err       error
	final     TaskState
	retrieved atomic.Bool
}

func newCell[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *cell[T] {
	return &cell[T]{
		fn:        fn,
		ctx:       ctx,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
}

func (c *cell[T]) run(ctx context.Context) (ran bool, err error) {
	if !c.state.CompareAndSwap(int32(TaskPending), int32(TaskRunning)) {
		return false, nil
	}

	value, err := c.invoke(ctx)
	c.publish(value, err)
	return true, err
}

// invoke calls fn, converting a panic into a *errors.TaskError.
func (c *cell[T]) invoke(ctx context.Context) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &tperrors.TaskError{Panic: r, Stack: debug.Stack()}
		}
	}()
	return c.fn(ctx)
}

func (c *cell[T]) publish(value T, err error) {
	c.value = value
	c.err = err
	c.final = TaskCompleted
	if err != nil {
		c.final = TaskFailed
	}
	c.fn = nil
	close(c.done)
	c.state.Store(int32(c.final))
}

// observedState is the state as seen by callers: Completed or Failed only
// once done is closed, so it never runs ahead of the outcome.
func (c *cell[T]) observedState() TaskState {
	select {
	case <-c.done:
		return c.final
	default:
	}
	if TaskState(c.state.Load()) == TaskPending {
		return TaskPending
	}
	return TaskRunning
}

func (c *cell[T]) cancel(err error) bool {
	if !c.state.CompareAndSwap(int32(TaskPending), int32(TaskFailed)) {
		return false
	}
	c.err = err
	c.final = TaskFailed
	c.fn = nil
	close(c.done)
	return true
}

func (c *cell[T]) submitContext() context.Context {
	return c.ctx
}

func (c *cell[T]) submittedAt() time.Time {
	return c.submitted
}
