package job

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/taskmill/internal/schedule"
)

// manifestAction is the raw, loosely-typed action definition from YAML.
// It is narrowed to one concrete Action kind during validation.
type manifestAction struct {
	Kind string `yaml:"kind"`

	// shell
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// http and scrape
	URL     string            `yaml:"url,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	Body    string            `yaml:"body,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Match   string            `yaml:"match,omitempty"`

	// scrape
	Selector   string `yaml:"selector,omitempty"`
	MinMatches int    `yaml:"min_matches,omitempty"`

	// container
	Image string   `yaml:"image,omitempty"`
	Cmd   []string `yaml:"cmd,omitempty"`
}

// manifestSchedule holds exactly one cadence field.
type manifestSchedule struct {
	EverySeconds int    `yaml:"every_seconds,omitempty"`
	DailyAt      string `yaml:"daily_at,omitempty"`
	WeeklyAt     string `yaml:"weekly_at,omitempty"`
	Cron         string `yaml:"cron,omitempty"`
}

// Manifest is one job definition document from a jobs.d file.
type Manifest struct {
	Name           string             `yaml:"name"`
	TimeoutSeconds int                `yaml:"timeout_seconds,omitempty"`
	Action         manifestAction     `yaml:"action"`
	Schedules      []manifestSchedule `yaml:"schedules,omitempty"`
}

// LoadDir reads every *.yaml and *.yml file under dir, in file name order,
// and builds the job registry and schedule list. All validation problems are
// collected and returned together so a bad configuration is reported in one
// pass.
func LoadDir(dir string) (*Registry, []schedule.Schedule, []error) {
	registry := NewRegistry()
	var schedules []schedule.Schedule
	var errs []error

	paths, err := manifestPaths(dir)
	if err != nil {
		return registry, nil, []error{err}
	}

	for _, path := range paths {
		manifests, err := readManifests(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}

		for _, m := range manifests {
			jb, jobSchedules, jobErrs := m.build()
			if len(jobErrs) > 0 {
				for _, je := range jobErrs {
					errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), je))
				}
				continue
			}
			if err := registry.Add(jb); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
				continue
			}
			schedules = append(schedules, jobSchedules...)
		}
	}

	return registry, schedules, errs
}

func manifestPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// readManifests parses one file, which may contain multiple YAML documents.
func readManifests(path string) ([]Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var manifests []Manifest
	dec := yaml.NewDecoder(file)
	for {
		var m Manifest
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// build narrows a manifest to a Job and its Schedules, collecting all errors.
func (m Manifest) build() (Job, []schedule.Schedule, []error) {
	var errs []error

	if m.Name == "" {
		errs = append(errs, fmt.Errorf("job has no name"))
		return Job{}, nil, errs
	}

	action, err := m.Action.build()
	if err != nil {
		errs = append(errs, fmt.Errorf("job %s: %w", m.Name, err))
	}

	if m.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("job %s: timeout_seconds must be >= 0", m.Name))
	}

	var schedules []schedule.Schedule
	for i, ms := range m.Schedules {
		s, err := ms.build(m.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("job %s: schedule %d: %w", m.Name, i+1, err))
			continue
		}
		schedules = append(schedules, s)
	}

	if len(errs) > 0 {
		return Job{}, nil, errs
	}

	jb, err := New(m.Name, time.Duration(m.TimeoutSeconds)*time.Second, action)
	if err != nil {
		return Job{}, nil, []error{err}
	}
	return jb, schedules, nil
}

func (a manifestAction) build() (Action, error) {
	switch a.Kind {
	case "shell":
		return NewShellAction(a.Command, a.Args, a.Dir, a.Env)
	case "http":
		return NewHTTPAction(a.Method, a.URL, a.Body, a.Headers, a.Match)
	case "scrape":
		return NewScrapeAction(a.URL, a.Selector, a.MinMatches)
	case "container":
		return NewContainerAction(a.Image, a.Cmd, envList(a.Env))
	case "":
		return nil, fmt.Errorf("action kind is required")
	default:
		return nil, fmt.Errorf("unknown action kind %q (expected: shell, http, scrape, container)", a.Kind)
	}
}

func (ms manifestSchedule) build(jobName string) (schedule.Schedule, error) {
	var set int
	if ms.EverySeconds != 0 {
		set++
	}
	if ms.DailyAt != "" {
		set++
	}
	if ms.WeeklyAt != "" {
		set++
	}
	if ms.Cron != "" {
		set++
	}
	if set != 1 {
		return schedule.Schedule{}, fmt.Errorf("exactly one of every_seconds, daily_at, weekly_at, cron is required")
	}

	switch {
	case ms.EverySeconds != 0:
		return schedule.NewInterval(jobName, time.Duration(ms.EverySeconds)*time.Second)
	case ms.DailyAt != "":
		return schedule.NewDaily(jobName, ms.DailyAt)
	case ms.WeeklyAt != "":
		return schedule.NewWeekly(jobName, ms.WeeklyAt)
	default:
		return schedule.NewCron(jobName, ms.Cron)
	}
}

// envList converts an env map to the K=V form the docker API expects,
// sorted for determinism.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
