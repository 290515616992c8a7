// Package scheduler drives the poll loop that checks schedules and
// dispatches due jobs to the worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aatumaykin/taskmill/internal/job"
	"github.com/aatumaykin/taskmill/internal/logger"
	"github.com/aatumaykin/taskmill/internal/runlog"
	"github.com/aatumaykin/taskmill/internal/schedule"
	"github.com/aatumaykin/taskmill/internal/workers"
)

// DefaultPollInterval is how often schedules are checked when the
// configuration does not say otherwise.
const DefaultPollInterval = 30 * time.Second

// Runner executes one job invocation. An error means the outcome could not
// be persisted and the scheduler must stop.
type Runner interface {
	Run(ctx context.Context, j job.Job) (runlog.Record, error)
}

// Dispatcher hands run tasks to the worker pool.
type Dispatcher interface {
	Submit(task workers.Task) error
}

// Scheduler checks schedules on a fixed interval and dispatches due jobs.
// Last-fired state lives in memory only; after a restart every schedule is
// re-armed from the process start time.
type Scheduler struct {
	trigger  *schedule.Trigger
	registry *job.Registry
	runner   Runner
	pool     Dispatcher
	logger   *logger.Logger

	pollInterval time.Duration
	state        schedule.State
	errCh        chan error

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	mu      sync.Mutex
}

// New creates a scheduler. A non-positive poll interval falls back to the
// default.
func New(trigger *schedule.Trigger, registry *job.Registry, r Runner, pool Dispatcher, log *logger.Logger, pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Scheduler{
		trigger:      trigger,
		registry:     registry,
		runner:       r,
		pool:         pool,
		logger:       log,
		pollInterval: pollInterval,
		state:        make(schedule.State),
		errCh:        make(chan error, 1),
	}
}

// Start launches the poll loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true

	s.logger.Info("scheduler started",
		logger.Field{Key: "poll_interval", Value: s.pollInterval.String()},
		logger.Field{Key: "schedules", Value: len(s.trigger.Schedules())},
		logger.Field{Key: "jobs", Value: s.registry.Len()})

	go s.loop()
	return nil
}

// Stop stops the poll loop and waits for it to exit. In-flight runs are the
// worker pool's to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.cancel()
	<-s.done
	s.started = false

	s.logger.Info("scheduler stopped")
}

// Errors reports a fatal scheduler error (a run outcome that could not be
// persisted). At most one error is delivered.
func (s *Scheduler) Errors() <-chan error {
	return s.errCh
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// First check runs immediately so interval schedules fire on startup.
	s.check(time.Now())

	for {
		select {
		case now := <-ticker.C:
			s.check(now)
		case <-s.ctx.Done():
			return
		}
	}
}

// check evaluates every schedule against now and dispatches due jobs.
// All satisfied schedules are marked fired, including the extra schedules of
// a job that was already due through another one.
func (s *Scheduler) check(now time.Time) {
	due := s.trigger.Due(now, s.state)
	indexes := s.trigger.DueIndexes(now, s.state)

	for _, i := range indexes {
		s.state[i] = now
	}

	for _, name := range due {
		j, ok := s.registry.Get(name)
		if !ok {
			s.logger.Warn("due schedule references unknown job",
				logger.Field{Key: "job", Value: name})
			continue
		}
		s.dispatch(j)
	}
}

func (s *Scheduler) dispatch(j job.Job) {
	err := s.pool.Submit(workers.Task{
		JobName: j.Name,
		Run: func(ctx context.Context) {
			if _, runErr := s.runner.Run(ctx, j); runErr != nil {
				s.fatal(runErr)
			}
		},
	})
	if err != nil {
		s.logger.Warn("dispatch rejected, pool shutting down",
			logger.Field{Key: "job", Value: j.Name})
	}
}

func (s *Scheduler) fatal(err error) {
	select {
	case s.errCh <- err:
	default:
	}
	s.cancel()
}
