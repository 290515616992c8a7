// Package runner executes jobs with a per-attempt timeout, bounded retries
// and overlap protection, and persists exactly one outcome record per
// invocation.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aatumaykin/taskmill/internal/job"
	"github.com/aatumaykin/taskmill/internal/logger"
	"github.com/aatumaykin/taskmill/internal/metrics"
	"github.com/aatumaykin/taskmill/internal/notifier"
	"github.com/aatumaykin/taskmill/internal/redact"
	"github.com/aatumaykin/taskmill/internal/runlog"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// Config represents retry configuration for job runs.
type Config struct {
	MaxAttempts    int           // Maximum number of attempts per run (default: 3)
	InitialBackoff time.Duration // Backoff before the second attempt (default: 1s)
	MaxBackoff     time.Duration // Backoff cap (default: 30s)
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	return c
}

// Runner executes jobs and owns the run lifecycle: overlap check, attempts,
// record persistence, notification.
type Runner struct {
	store    *runlog.Store
	notify   *notifier.Service
	redactor *redact.Redactor
	metrics  *metrics.Metrics
	logger   *logger.Logger
	cfg      Config

	mu       sync.Mutex
	inFlight map[string]bool

	notifyWG sync.WaitGroup
}

// New creates a runner. Store and logger are required; notify, redactor and
// metrics may be nil.
func New(store *runlog.Store, notify *notifier.Service, redactor *redact.Redactor, m *metrics.Metrics, log *logger.Logger, cfg Config) *Runner {
	return &Runner{
		store:    store,
		notify:   notify,
		redactor: redactor,
		metrics:  m,
		logger:   log,
		cfg:      cfg.withDefaults(),
		inFlight: make(map[string]bool),
	}
}

// Run executes one invocation of the job and returns the persisted record.
// Every call produces exactly one appended record, including overlap skips.
// The returned error reports persistence failure only; the job outcome is in
// the record's Status.
func (r *Runner) Run(ctx context.Context, j job.Job) (runlog.Record, error) {
	rec := runlog.NewRecord(j.Name, time.Now())

	if !r.acquire(j.Name) {
		r.logger.InfoCtx(ctx, "run skipped, previous run still in flight",
			logger.Field{Key: "job", Value: j.Name})
		rec.Status = runlog.StatusSkippedOverlap
		rec.FinishedAt = time.Now()
		return rec, r.finalize(ctx, rec)
	}
	defer r.release(j.Name)

	r.metrics.RunStarted()
	defer r.metrics.RunFinished()

	r.logger.InfoCtx(ctx, "run started",
		logger.Field{Key: "job", Value: j.Name},
		logger.Field{Key: "run_id", Value: rec.ID},
		logger.Field{Key: "timeout", Value: j.Timeout.String()})

	rec = r.attempts(ctx, j, rec)
	rec.FinishedAt = time.Now()

	r.logger.InfoCtx(ctx, "run finished",
		logger.Field{Key: "job", Value: j.Name},
		logger.Field{Key: "run_id", Value: rec.ID},
		logger.Field{Key: "status", Value: string(rec.Status)},
		logger.Field{Key: "attempts", Value: rec.AttemptCount},
		logger.Field{Key: "duration_ms", Value: rec.Duration().Milliseconds()})

	return rec, r.finalize(ctx, rec)
}

// attempts drives the attempt loop. A timed-out attempt ends the run
// immediately; only action failures are retried.
func (r *Runner) attempts(ctx context.Context, j job.Job, rec runlog.Record) runlog.Record {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		rec.AttemptCount = attempt

		output, err, timedOut := r.runAttempt(ctx, j)
		if timedOut {
			rec.Status = runlog.StatusTimedOut
			rec.ErrorMessage = fmt.Sprintf("timed out after %s", j.Timeout)
			return rec
		}
		if err == nil {
			rec.Status = runlog.StatusSuccess
			rec.Output = output
			rec.ErrorMessage = ""
			return rec
		}

		lastErr = err
		r.logger.WarnCtx(ctx, "attempt failed",
			logger.Field{Key: "job", Value: j.Name},
			logger.Field{Key: "attempt", Value: attempt},
			logger.Field{Key: "max_attempts", Value: r.cfg.MaxAttempts},
			logger.Field{Key: "error", Value: r.redactMessage(err)})

		if attempt == r.cfg.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt-1, r.cfg.InitialBackoff, r.cfg.MaxBackoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			rec.Status = runlog.StatusFailed
			rec.ErrorMessage = r.redactMessage(ctx.Err())
			return rec
		}
	}

	rec.Status = runlog.StatusFailed
	rec.ErrorMessage = r.redactMessage(lastErr)
	return rec
}

// runAttempt executes the action once under the job timeout. When the
// deadline fires the attempt is abandoned: the action goroutine keeps its
// cancelled context and is left to unwind on its own.
func (r *Runner) runAttempt(ctx context.Context, j job.Job) (output string, err error, timedOut bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	type attemptResult struct {
		output string
		err    error
	}
	done := make(chan attemptResult, 1)

	go func() {
		out, execErr := j.Action.Execute(attemptCtx)
		done <- attemptResult{output: out, err: execErr}
	}()

	select {
	case res := <-done:
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", context.DeadlineExceeded, true
		}
		return res.output, res.err, false
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err(), false
		}
		return "", context.DeadlineExceeded, true
	}
}

// finalize appends the record and fans out notifications. An append failure
// is fatal to the caller: a run the log cannot record must not pass silently.
// Delivery runs on its own goroutine so a slow sink never blocks the run or
// holds the job's overlap slot.
func (r *Runner) finalize(ctx context.Context, rec runlog.Record) error {
	if err := r.store.Append(rec); err != nil {
		r.logger.Error("run record append failed", err,
			logger.Field{Key: "job", Value: rec.JobName},
			logger.Field{Key: "run_id", Value: rec.ID})
		return err
	}

	r.metrics.RecordRun(rec.JobName, string(rec.Status), rec.Duration())

	if r.notify != nil && r.notify.Enabled() {
		r.notifyWG.Add(1)
		go func() {
			defer r.notifyWG.Done()
			r.notify.Send(rec)
		}()
	}
	return nil
}

// Wait blocks until outstanding notification deliveries finish. Callers
// invoke it on shutdown so a quick exit does not drop outcome notifications.
func (r *Runner) Wait() {
	r.notifyWG.Wait()
}

func (r *Runner) redactMessage(err error) string {
	if err == nil {
		return ""
	}
	if r.redactor == nil {
		return err.Error()
	}
	return r.redactor.Apply(err.Error())
}

func (r *Runner) acquire(jobName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[jobName] {
		return false
	}
	r.inFlight[jobName] = true
	return true
}

func (r *Runner) release(jobName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, jobName)
}

// calculateBackoff calculates the backoff duration for a given attempt.
// Uses exponential backoff: 2^attempt * initial, capped at max.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * initial

	if backoff > max {
		return max
	}

	return backoff
}
