// Package job defines taskmill jobs: named, immutable units of work with a
// single execution entry point. Each job carries one action from a closed set
// of kinds (shell, http, scrape, container); actions are built and validated
// at load time so a bad definition refuses to start the process instead of
// failing at run time.
package job

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownJob is returned when a name resolves to no registered job.
var ErrUnknownJob = errors.New("unknown job")

// DefaultTimeout bounds jobs whose manifest does not set one.
const DefaultTimeout = 30 * time.Second

// maxOutputBytes caps captured action output carried into run records.
const maxOutputBytes = 4096

// Action is the execution entry point of a job. Execute returns a short
// human-readable output on success. It must honor ctx cancellation where the
// underlying work allows it.
type Action interface {
	Kind() string
	Execute(ctx context.Context) (string, error)
}

// Job is a named, immutable unit of work.
type Job struct {
	Name    string
	Timeout time.Duration
	Action  Action
}

// New creates a job, applying the default timeout when none is given.
func New(name string, timeout time.Duration, action Action) (Job, error) {
	if name == "" {
		return Job{}, fmt.Errorf("job name is required")
	}
	if action == nil {
		return Job{}, fmt.Errorf("job %s has no action", name)
	}
	if timeout < 0 {
		return Job{}, fmt.Errorf("job %s has negative timeout", name)
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return Job{Name: name, Timeout: timeout, Action: action}, nil
}

// Registry holds registered jobs by unique name, preserving registration
// order. Jobs are registered at configuration time and never change.
type Registry struct {
	jobs  map[string]Job
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Job)}
}

// Add registers a job. Duplicate names are an error.
func (r *Registry) Add(j Job) error {
	if _, exists := r.jobs[j.Name]; exists {
		return fmt.Errorf("duplicate job name: %s", j.Name)
	}
	r.jobs[j.Name] = j
	r.order = append(r.order, j.Name)
	return nil
}

// Get returns a job by name.
func (r *Registry) Get(name string) (Job, bool) {
	j, ok := r.jobs[name]
	return j, ok
}

// Lookup returns the named job, or an error wrapping ErrUnknownJob.
func (r *Registry) Lookup(name string) (Job, error) {
	j, ok := r.jobs[name]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return j, nil
}

// Names returns job names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns job names in ascending order, for stable listings.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	return len(r.order)
}

// truncateOutput trims captured output to a bounded size.
func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "... (truncated)"
}
