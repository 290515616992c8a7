package runlog

import (
	"time"

	"github.com/google/uuid"
)

// Status is the final outcome of one job invocation.
type Status string

const (
	// StatusSuccess means the action completed without error.
	StatusSuccess Status = "success"
	// StatusFailed means the action failed on every allowed attempt.
	StatusFailed Status = "failed"
	// StatusTimedOut means the action exceeded the job timeout.
	StatusTimedOut Status = "timed_out"
	// StatusSkippedOverlap means a run was due while a previous run of the
	// same job was still in flight. No execution happened.
	StatusSkippedOverlap Status = "skipped_overlap"
)

// Record is the immutable outcome of one job invocation.
// It is created when the run starts and finalized exactly once.
// AttemptCount is in [1, max attempts] for every executed run; a
// skipped_overlap record carries 0 because no attempt ever started.
type Record struct {
	ID           string    `json:"id"`
	JobName      string    `json:"job_name"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	AttemptCount int       `json:"attempt_count"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Output       string    `json:"output,omitempty"`
}

// NewRecord creates a record for a run starting now.
func NewRecord(jobName string, startedAt time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		JobName:   jobName,
		StartedAt: startedAt,
	}
}

// Duration returns the wall-clock duration of the run.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
