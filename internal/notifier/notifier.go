// Package notifier delivers run outcome summaries to external sinks (chat
// webhook, telegram). Delivery is best-effort: a notifier failure is logged
// and swallowed, never propagated into the job run that produced the record.
package notifier

import (
	"context"
	"time"

	"github.com/aatumaykin/taskmill/internal/logger"
	"github.com/aatumaykin/taskmill/internal/redact"
	"github.com/aatumaykin/taskmill/internal/runlog"
)

// DefaultTimeout bounds one delivery attempt per sink.
const DefaultTimeout = 10 * time.Second

// Notifier is one outbound sink for run records.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, rec runlog.Record) error
}

// Payload is the wire shape sent to sinks.
type Payload struct {
	JobName      string `json:"job_name"`
	Status       string `json:"status"`
	StartedAt    string `json:"started_at"`
	DurationMs   int64  `json:"duration_ms"`
	AttemptCount int    `json:"attempt_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewPayload builds the outbound payload for a record, masking secrets in
// the error message.
func NewPayload(rec runlog.Record, r *redact.Redactor) Payload {
	msg := rec.ErrorMessage
	if r != nil {
		msg = r.Apply(msg)
	}
	return Payload{
		JobName:      rec.JobName,
		Status:       string(rec.Status),
		StartedAt:    rec.StartedAt.UTC().Format(time.RFC3339),
		DurationMs:   rec.Duration().Milliseconds(),
		AttemptCount: rec.AttemptCount,
		ErrorMessage: msg,
	}
}

// Service fans one record out to all configured sinks.
type Service struct {
	notifiers []Notifier
	redactor  *redact.Redactor
	logger    *logger.Logger
	timeout   time.Duration
}

// NewService creates a notification service. A nil redactor disables
// masking; zero timeout applies the default.
func NewService(notifiers []Notifier, redactor *redact.Redactor, log *logger.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		notifiers: notifiers,
		redactor:  redactor,
		logger:    log,
		timeout:   timeout,
	}
}

// Payload builds the outbound payload for a record using the service's
// redactor.
func (s *Service) Payload(rec runlog.Record) Payload {
	return NewPayload(rec, s.redactor)
}

// Send delivers the record to every sink. Errors are logged and swallowed.
func (s *Service) Send(rec runlog.Record) {
	for _, n := range s.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := n.Notify(ctx, rec); err != nil {
			s.logger.Error("notification failed", err,
				logger.Field{Key: "notifier", Value: n.Name()},
				logger.Field{Key: "job", Value: rec.JobName},
				logger.Field{Key: "status", Value: rec.Status})
		}
		cancel()
	}
}

// Enabled reports whether any sink is configured.
func (s *Service) Enabled() bool {
	return len(s.notifiers) > 0
}
