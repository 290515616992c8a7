package schedule

import (
	"sort"
	"time"
)

// State holds the last-fired time per schedule, keyed by registration index.
// It is owned by the caller and passed into every check; the Trigger itself
// never mutates it.
type State map[int]time.Time

// Trigger computes which jobs are due at a given instant.
type Trigger struct {
	schedules []Schedule // registration order
	start     time.Time  // anchor for schedules that have never fired
}

// NewTrigger creates a trigger over the given schedules. start anchors cron
// cadences that have not fired yet; pass the process start time.
func NewTrigger(schedules []Schedule, start time.Time) *Trigger {
	return &Trigger{schedules: schedules, start: start}
}

// Schedules returns the registered schedules in registration order.
func (t *Trigger) Schedules() []Schedule {
	return t.schedules
}

// firing is one schedule that came due.
type firing struct {
	index   int
	jobName string
}

// Due returns the names of jobs due at now, given the last-fired state.
// Order is schedule registration order with ties broken by job name
// ascending; a job with several due schedules appears once.
func (t *Trigger) Due(now time.Time, state State) []string {
	var firings []firing
	for i, s := range t.schedules {
		if s.dueAt(now, state[i], t.start) {
			firings = append(firings, firing{index: i, jobName: s.JobName})
		}
	}

	sort.SliceStable(firings, func(a, b int) bool {
		if firings[a].index != firings[b].index {
			return firings[a].index < firings[b].index
		}
		return firings[a].jobName < firings[b].jobName
	})

	seen := make(map[string]bool, len(firings))
	var due []string
	for _, f := range firings {
		if seen[f.jobName] {
			continue
		}
		seen[f.jobName] = true
		due = append(due, f.jobName)
	}
	return due
}

// DueIndexes returns the registration indexes of schedules due at now. The
// caller marks those indexes fired in its state after dispatching.
func (t *Trigger) DueIndexes(now time.Time, state State) []int {
	var indexes []int
	for i, s := range t.schedules {
		if s.dueAt(now, state[i], t.start) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}
