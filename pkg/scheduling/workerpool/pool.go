package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/logging"
	"github.com/vnykmshr/taskpool/pkg/metrics"
)

const moduleName = "workerpool"

// DefaultName labels pools created without Config.Name.
const DefaultName = "default"

// errSubmitAfterShutdown is returned by every submission once shutdown began.
var errSubmitAfterShutdown = fmt.Errorf("%w: %w", tperrors.ErrPoolShuttingDown, tperrors.ErrQueueClosed)

// ShutdownMode selects what happens to tasks that have not started yet.
type ShutdownMode int

const (
	// Graceful runs every queued task before the workers exit.
	Graceful ShutdownMode = iota

	// Immediate resolves queued tasks with errors.ErrCancelled. Tasks already
	// executing still run to completion.
	Immediate
)

func (m ShutdownMode) String() string {
	switch m {
	case Graceful:
		return "graceful"
	case Immediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// State is the pool lifecycle state.
type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Result describes one finished execution and is passed to Config.OnTaskComplete.
type Result struct {
	// Error is any error returned by the task, or a *errors.TaskError for a panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// QueueWait is how long the task waited between submission and start
	QueueWait time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// Name labels log lines and metrics. Defaults to DefaultName.
	Name string

	// TaskTimeout bounds the context handed to each task. Zero means no timeout.
	// Tasks are never preempted; the timeout is only visible through ctx.
	TaskTimeout time.Duration

	// RateLimiter, if set, is waited on before each task starts.
	RateLimiter Limiter

	// Logger receives lifecycle and failure logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Metrics configures Prometheus instrumentation. Disabled unless Enabled is set.
	Metrics metrics.Config

	// PanicHandler is called when a task panics. The panic is always
	// also delivered to the task's Future as a *errors.TaskError.
	PanicHandler func(recovered interface{}, stack []byte)

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

func (c Config) validate() error {
	if err := validation.ValidatePositive(moduleName, "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration(moduleName, "TaskTimeout", c.TaskTimeout)
}

// Pool is a fixed set of workers executing submitted tasks from one shared
// FIFO queue. All methods are safe for concurrent use.
//
// A Pool that becomes unreachable without being shut down is shut down
// gracefully once the garbage collector reclaims it.
type Pool struct {
	c *core
}

// core is the state shared with the workers. It never references the Pool
// handle, so dropping the handle lets the cleanup in NewWithConfig run.
type core struct {
	config Config
	name   string
	logger logging.Logger

	queue   *workQueue
	workers []*worker
	group   errgroup.Group

	// ctx is cancelled by an immediate shutdown and once the pool stops.
	ctx    context.Context
	cancel context.CancelFunc

	state        atomic.Int32
	shutdownOnce sync.Once
	done         chan struct{}
	shutdownErr  error

	activeWorkers  atomic.Int64
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	totalFailed    atomic.Int64
	totalCancelled atomic.Int64

	registry atomic.Pointer[metrics.Registry]
	// gaugeMu orders gauge snapshots so the last one published is the newest.
	gaugeMu sync.Mutex
}

// New creates a new worker pool with the specified number of workers.
func New(workerCount int) (*Pool, error) {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a new worker pool and starts all of its workers.
// It returns a *errors.ValidationError wrapping errors.ErrInvalidConfiguration
// when the configuration is invalid, in which case no worker is started.
func NewWithConfig(config Config) (*Pool, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.Name == "" {
		config.Name = DefaultName
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &core{
		config: config,
		name:   config.Name,
		logger: logger,
		queue:  newWorkQueue(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.state.Store(int32(StateRunning))

	if config.Metrics.Enabled {
		c.enableMetrics(config.Metrics)
	}

	c.workers = make([]*worker, config.WorkerCount)
	for i := range c.workers {
		w := &worker{id: i, pool: c}
		c.workers[i] = w
		c.group.Go(w.run)
	}

	c.logger.Info("worker pool started",
		logging.F("pool", c.name),
		logging.F("workers", config.WorkerCount))
	c.updateGauges()

	p := &Pool{c: c}
	runtime.AddCleanup(p, func(c *core) {
		if c.beginShutdown(Graceful) {
			c.logger.Warn("worker pool released without shutdown, draining", logging.F("pool", c.name))
		}
	}, c)
	return p, nil
}

// Submit runs fn on the pool and returns a Future for its value. The error
// returned by fn, if any, is delivered verbatim by Future.Get.
//
// Submit fails with an error matching both errors.ErrPoolShuttingDown and
// errors.ErrQueueClosed once shutdown has begun.
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, tperrors.ErrNilTask
	}
	return submit(context.Background(), p.c, func(context.Context) (T, error) {
		return fn()
	})
}

// SubmitValue runs a callable that cannot fail. A panic inside fn is still
// delivered to the Future as a *errors.TaskError.
func SubmitValue[T any](p *Pool, fn func() T) (*Future[T], error) {
	if fn == nil {
		return nil, tperrors.ErrNilTask
	}
	return submit(context.Background(), p.c, func(context.Context) (T, error) {
		return fn(), nil
	})
}

// SubmitWithContext runs fn with a context derived from ctx and bounded by
// Config.TaskTimeout. If ctx is already done when a worker picks the task up,
// the task does not run and resolves to errors.ErrCancelled.
func SubmitWithContext[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if fn == nil {
		return nil, tperrors.ErrNilTask
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cannot submit task: context canceled: %w", err)
	}
	return submit(ctx, p.c, fn)
}

// SubmitTask runs a Task and returns a Future that resolves to the task's error.
func (p *Pool) SubmitTask(task Task) (*Future[struct{}], error) {
	if task == nil {
		return nil, tperrors.ErrNilTask
	}
	return submit(context.Background(), p.c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, task.Execute(ctx)
	})
}

func submit[T any](ctx context.Context, c *core, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	if State(c.state.Load()) != StateRunning {
		return nil, errSubmitAfterShutdown
	}

	// The Future exists before the cell is visible to any worker.
	cl := newCell(ctx, fn)
	f := &Future[T]{c: cl}

	if err := c.queue.enqueue(cl); err != nil {
		return nil, errSubmitAfterShutdown
	}

	c.totalSubmitted.Add(1)
	if r := c.metricsRegistry(); r != nil {
		r.TasksSubmitted.WithLabelValues(c.name).Inc()
	}
	c.updateGauges()
	return f, nil
}

// Shutdown stops accepting tasks and blocks until every worker has exited.
// Graceful runs all queued tasks first; Immediate resolves queued tasks with
// errors.ErrCancelled. Tasks already executing always finish.
//
// Only the first call decides the mode; later calls just wait. The returned
// error is non-nil only if a worker hit an internal queue failure.
func (p *Pool) Shutdown(mode ShutdownMode) error {
	p.c.beginShutdown(mode)
	<-p.c.done
	return p.c.shutdownErr
}

// ShutdownWithTimeout is Shutdown bounded by timeout. It returns
// errors.ErrTimeout if the workers have not exited in time; they keep
// draining in the background. A non-positive timeout waits forever.
func (p *Pool) ShutdownWithTimeout(mode ShutdownMode, timeout time.Duration) error {
	p.c.beginShutdown(mode)
	if err := waitUntil(p.c.done, timeout); err != nil {
		return err
	}
	return p.c.shutdownErr
}

// Close performs a graceful shutdown. It implements io.Closer.
func (p *Pool) Close() error {
	return p.Shutdown(Graceful)
}

// Stopped returns a channel that is closed once every worker has exited.
func (p *Pool) Stopped() <-chan struct{} {
	return p.c.done
}

// beginShutdown closes the queue and starts joining the workers. It reports
// whether this call initiated the shutdown.
func (c *core) beginShutdown(mode ShutdownMode) bool {
	initiated := false
	c.shutdownOnce.Do(func() {
		initiated = true
		c.state.Store(int32(StateShuttingDown))
		c.queue.close()

		c.logger.Info("worker pool shutting down",
			logging.F("pool", c.name),
			logging.F("mode", mode.String()),
			logging.F("queued", c.queue.len()))

		if mode == Immediate {
			c.cancel()
			for _, t := range c.queue.drain() {
				if t.cancel(tperrors.ErrCancelled) {
					c.recordCancelled()
				}
			}
		}
		c.updateGauges()

		go func() {
			err := c.group.Wait()
			c.shutdownErr = err
			c.cancel()

			// Workers that aborted leave accepted tasks behind; no one will
			// run them now.
			if n := c.cancelLeftovers(err); n > 0 {
				c.logger.Warn("cancelled tasks left in queue",
					logging.F("pool", c.name), logging.F("count", n))
			}
			c.state.Store(int32(StateStopped))
			c.updateGauges()

			if err != nil {
				c.logger.Error("worker pool stopped with worker failure",
					logging.F("pool", c.name), logging.F("error", err))
			} else {
				c.logger.Info("worker pool stopped", logging.F("pool", c.name))
			}
			close(c.done)
		}()
	})
	return initiated
}

// cancelLeftovers resolves every task still queued after the workers have
// exited with errors.ErrCancelled, wrapping cause when there is one.
func (c *core) cancelLeftovers(cause error) int {
	reason := tperrors.ErrCancelled
	if cause != nil {
		reason = fmt.Errorf("%w: %w", tperrors.ErrCancelled, cause)
	}

	n := 0
	for _, t := range c.queue.drain() {
		if t != nil && t.cancel(reason) {
			c.recordCancelled()
			n++
		}
	}
	return n
}

// waitUntil blocks until either the done channel is closed or the timeout is reached.
func waitUntil(done <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return tperrors.ErrTimeout
	}
}

// Name returns the pool name used in logs and metrics.
func (p *Pool) Name() string {
	return p.c.name
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.c.workers)
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *Pool) QueueSize() int {
	return p.c.queue.len()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *Pool) ActiveWorkers() int {
	return int(p.c.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *Pool) TotalSubmitted() int64 {
	return p.c.totalSubmitted.Load()
}

// TotalCompleted returns the number of tasks that finished executing,
// successfully or not.
func (p *Pool) TotalCompleted() int64 {
	return p.c.totalCompleted.Load()
}

// TotalFailed returns the number of executed tasks that returned an error or panicked.
func (p *Pool) TotalFailed() int64 {
	return p.c.totalFailed.Load()
}

// TotalCancelled returns the number of tasks resolved with errors.ErrCancelled.
func (p *Pool) TotalCancelled() int64 {
	return p.c.totalCancelled.Load()
}

// State returns the pool lifecycle state.
func (p *Pool) State() State {
	return State(p.c.state.Load())
}

// WorkerStates returns a snapshot of every worker's state, indexed by worker ID.
func (p *Pool) WorkerStates() []WorkerState {
	states := make([]WorkerState, len(p.c.workers))
	for i, w := range p.c.workers {
		states[i] = w.currentState()
	}
	return states
}
