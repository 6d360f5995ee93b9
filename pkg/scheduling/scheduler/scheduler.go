package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/logging"
	"github.com/vnykmshr/taskpool/pkg/metrics"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

const moduleName = "scheduler"

// maxIDLength bounds job identifiers.
const maxIDLength = 255

// Job describes one scheduled job as returned by List.
type Job struct {
	ID string

	// Spec is the cron expression, or "@every <interval>" for repeating jobs.
	Spec string

	// Next is the next firing time; zero until the scheduler is started.
	Next time.Time

	// Prev is the last firing time; zero if the job has not fired yet.
	Prev time.Time

	// Runs counts firings that were submitted to the pool.
	Runs int64
}

// Config holds scheduler configuration.
type Config struct {
	// Pool receives one task per firing. Required. The scheduler never shuts it down.
	Pool *workerpool.Pool

	// Name labels log lines and metrics. Defaults to "default".
	Name string

	// Location is the time zone cron expressions are evaluated in. Defaults to time.Local.
	Location *time.Location

	// SkipIfStillRunning drops a firing while the previous firing of the same
	// job is still queued or running.
	SkipIfStillRunning bool

	// OnComplete is called after every firing with the task's outcome, or with
	// the submission error if the pool refused the task.
	OnComplete func(id string, err error)

	// Logger receives scheduling logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

type job struct {
	id      string
	spec    string
	task    workerpool.Task
	entryID cron.EntryID
	running atomic.Bool
	runs    atomic.Int64
}

// Scheduler submits tasks to a worker pool on cron or fixed-interval schedules.
// All methods are safe for concurrent use.
type Scheduler struct {
	config Config
	name   string
	logger logging.Logger
	parser cron.Parser
	cron   *cron.Cron

	mu      sync.Mutex
	jobs    map[string]*job
	running bool

	registry *metrics.Registry
}

// New creates a stopped scheduler that submits to cfg.Pool.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Pool == nil {
		return nil, tperrors.NewValidationError(moduleName, "Pool", nil, "cannot be nil").
			WithHint("create one with workerpool.New")
	}
	if cfg.Name == "" {
		cfg.Name = workerpool.DefaultName
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	cl := cronLogger{logger: logger, name: cfg.Name}
	s := &Scheduler{
		config: cfg,
		name:   cfg.Name,
		logger: logger,
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs: make(map[string]*job),
	}
	if cfg.Metrics.Enabled {
		s.registry = metrics.For(cfg.Metrics)
	}
	return s, nil
}

// ScheduleCron adds a job firing on a cron expression. Both the standard
// five-field form and a leading seconds field are accepted, as are
// descriptors such as "@hourly" and "@every 1m".
func (s *Scheduler) ScheduleCron(id, expr string, task workerpool.Task) error {
	if err := validation.ValidateNotEmpty(moduleName, "expression", expr); err != nil {
		return err
	}
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return tperrors.NewValidationError(moduleName, "expression", expr, err.Error())
	}
	return s.add(id, expr, schedule, task)
}

// ScheduleRepeating adds a job firing every interval, starting one interval
// after the scheduler starts or after the job is added, whichever is later.
func (s *Scheduler) ScheduleRepeating(id string, interval time.Duration, task workerpool.Task) error {
	if err := validation.ValidatePositiveDuration(moduleName, "interval", interval); err != nil {
		return err
	}
	return s.add(id, "@every "+interval.String(), every(interval), task)
}

func (s *Scheduler) add(id, spec string, schedule cron.Schedule, task workerpool.Task) error {
	if err := validation.ValidateNotEmpty(moduleName, "id", id); err != nil {
		return err
	}
	if err := validation.ValidateMaxLength(moduleName, "id", id, maxIDLength); err != nil {
		return err
	}
	if task == nil {
		return tperrors.ErrNilTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return tperrors.NewValidationError(moduleName, "id", id, "already scheduled").
			WithHint("cancel the existing job first")
	}

	j := &job{id: id, spec: spec, task: task}
	j.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(j) }))
	s.jobs[id] = j

	s.logger.Debug("job scheduled",
		logging.F("scheduler", s.name),
		logging.F("job_id", id),
		logging.F("spec", spec))
	return nil
}

// fire submits one firing of j and waits for its outcome.
func (s *Scheduler) fire(j *job) {
	if s.config.SkipIfStillRunning {
		if !j.running.CompareAndSwap(false, true) {
			s.logger.Info("firing skipped, previous run still active",
				logging.F("scheduler", s.name), logging.F("job_id", j.id))
			if s.registry != nil {
				s.registry.SchedulerSkipped.WithLabelValues(s.name, j.id).Inc()
			}
			return
		}
		defer j.running.Store(false)
	}

	future, err := s.config.Pool.SubmitTask(j.task)
	if err == nil {
		j.runs.Add(1)
		if s.registry != nil {
			s.registry.SchedulerRuns.WithLabelValues(s.name, j.id).Inc()
		}
		_, err = future.Get()
	}

	if err != nil {
		s.logger.Warn("scheduled job failed",
			logging.F("scheduler", s.name),
			logging.F("job_id", j.id),
			logging.F("error", err))
		if s.registry != nil {
			s.registry.SchedulerFailures.WithLabelValues(s.name, j.id).Inc()
		}
	}
	if s.config.OnComplete != nil {
		s.config.OnComplete(j.id, err)
	}
}

// Cancel removes a job. Firings already submitted still complete. It reports
// whether the job existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	s.cron.Remove(j.entryID)
	delete(s.jobs, id)
	return true
}

// CancelAll removes every job.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, j := range s.jobs {
		s.cron.Remove(j.entryID)
		delete(s.jobs, id)
	}
}

// List returns all jobs ordered by next firing time, then by ID.
func (s *Scheduler) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		jobs = append(jobs, Job{
			ID:   j.id,
			Spec: j.spec,
			Next: entry.Next,
			Prev: entry.Prev,
			Runs: j.runs.Load(),
		})
	}

	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].Next.Equal(jobs[b].Next) {
			return jobs[a].Next.Before(jobs[b].Next)
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs
}

// Start begins firing jobs in the background. It returns an error if the
// scheduler is already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return tperrors.NewOperationError(moduleName, "Start", fmt.Errorf("already running"))
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("scheduler started", logging.F("scheduler", s.name), logging.F("jobs", len(s.jobs)))
	return nil
}

// Stop halts further firings. The returned channel is closed once every
// firing in flight has completed. Stop may be called more than once.
func (s *Scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	if wasRunning {
		s.logger.Info("scheduler stopped", logging.F("scheduler", s.name))
	}
	return ctx.Done()
}

// StopContext stops the scheduler and waits for firings in flight until ctx ends.
func (s *Scheduler) StopContext(ctx context.Context) error {
	select {
	case <-s.Stop():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
