// Package schedule decides when jobs become due. A Schedule binds a job name
// to a cadence (fixed interval, daily slot, weekly slot, or cron expression);
// the Trigger computes which jobs are due at a given instant from explicit
// last-fired state, so it carries no ambient mutable state of its own.
//
// Never-fired schedules anchor differently by cadence. Intervals are due on
// the first check. Daily and weekly slots catch up: the most recent calendar
// slot fires even when it predates process start, at most once, with no
// backlog. Cron expressions anchor at the trigger's start time and only fire
// for ticks after it, since a missed cron tick has no single obvious
// catch-up slot.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Cadence is the kind of time rule a schedule follows.
type Cadence string

const (
	// CadenceInterval fires every fixed duration.
	CadenceInterval Cadence = "interval"
	// CadenceDaily fires once per day at a given time of day.
	CadenceDaily Cadence = "daily_at"
	// CadenceWeekly fires once per week at a given weekday and time of day.
	CadenceWeekly Cadence = "weekly_at"
	// CadenceCron fires according to a cron expression.
	CadenceCron Cadence = "cron"
)

// cronParser accepts standard five-field expressions plus descriptors like
// @hourly, with an optional seconds field.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Schedule maps one time rule to one job. Many schedules may reference the
// same job. Schedules are immutable once built.
type Schedule struct {
	JobName string
	Cadence Cadence

	// Interval cadence
	Every time.Duration

	// Daily and weekly cadence
	At      TimeOfDay
	Weekday time.Weekday

	// Cron cadence
	Expr string
	spec cron.Schedule
}

// NewInterval builds an interval schedule.
func NewInterval(jobName string, every time.Duration) (Schedule, error) {
	if every <= 0 {
		return Schedule{}, fmt.Errorf("interval must be positive, got %s", every)
	}
	return Schedule{JobName: jobName, Cadence: CadenceInterval, Every: every}, nil
}

// NewDaily builds a daily schedule from an "HH:MM" time of day.
func NewDaily(jobName, at string) (Schedule, error) {
	tod, err := parseTimeOfDay(at)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{JobName: jobName, Cadence: CadenceDaily, At: tod}, nil
}

// NewWeekly builds a weekly schedule from a "<weekday> HH:MM" spec,
// e.g. "sun 04:30".
func NewWeekly(jobName, at string) (Schedule, error) {
	parts := strings.Fields(at)
	if len(parts) != 2 {
		return Schedule{}, fmt.Errorf("invalid weekly spec %q (expected: <weekday> HH:MM)", at)
	}
	day, err := parseWeekday(parts[0])
	if err != nil {
		return Schedule{}, err
	}
	tod, err := parseTimeOfDay(parts[1])
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{JobName: jobName, Cadence: CadenceWeekly, At: tod, Weekday: day}, nil
}

// NewCron builds a cron schedule. The expression is parsed eagerly so that a
// bad expression is a load-time error, not a runtime one.
func NewCron(jobName, expr string) (Schedule, error) {
	spec, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return Schedule{JobName: jobName, Cadence: CadenceCron, Expr: expr, spec: spec}, nil
}

// String renders the schedule for listings.
func (s Schedule) String() string {
	switch s.Cadence {
	case CadenceInterval:
		return fmt.Sprintf("every %s", s.Every)
	case CadenceDaily:
		return fmt.Sprintf("daily at %s", s.At)
	case CadenceWeekly:
		return fmt.Sprintf("weekly on %s at %s", strings.ToLower(s.Weekday.String()), s.At)
	case CadenceCron:
		return fmt.Sprintf("cron %q", s.Expr)
	default:
		return string(s.Cadence)
	}
}

// dueAt reports whether the schedule should fire at now, given when it last
// fired. A zero lastFired means the schedule has never fired; start is the
// instant the trigger began observing, used to anchor calendar cadences.
func (s Schedule) dueAt(now, lastFired, start time.Time) bool {
	switch s.Cadence {
	case CadenceInterval:
		// Never-fired intervals are due immediately; last-fired state lives
		// in memory only, so a restart re-arms every interval schedule.
		if lastFired.IsZero() {
			return true
		}
		return now.Sub(lastFired) >= s.Every

	case CadenceDaily:
		slot := s.lastDailySlot(now)
		if slot.After(now) {
			return false
		}
		return lastFired.Before(slot)

	case CadenceWeekly:
		slot := s.lastWeeklySlot(now)
		if slot.After(now) {
			return false
		}
		return lastFired.Before(slot)

	case CadenceCron:
		anchor := lastFired
		if anchor.IsZero() {
			anchor = start
		}
		next := s.spec.Next(anchor)
		return !next.IsZero() && !next.After(now)

	default:
		return false
	}
}

// lastDailySlot returns the most recent daily slot at or before now.
// Only the most recent missed slot counts: a process that was down for
// several days fires once on the first check, not once per missed day.
func (s Schedule) lastDailySlot(now time.Time) time.Time {
	slot := time.Date(now.Year(), now.Month(), now.Day(), s.At.Hour, s.At.Minute, 0, 0, now.Location())
	if slot.After(now) {
		slot = slot.AddDate(0, 0, -1)
	}
	return slot
}

// lastWeeklySlot returns the most recent weekly slot at or before now.
func (s Schedule) lastWeeklySlot(now time.Time) time.Time {
	daysBack := int(now.Weekday() - s.Weekday)
	if daysBack < 0 {
		daysBack += 7
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), s.At.Hour, s.At.Minute, 0, 0, now.Location())
	slot = slot.AddDate(0, 0, -daysBack)
	if slot.After(now) {
		slot = slot.AddDate(0, 0, -7)
	}
	return slot
}

func parseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q (expected: HH:MM)", s)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return day, nil
}
