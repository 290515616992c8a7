// Package runlog provides the append-only run history for taskmill jobs.
// Records are stored in JSONL format, one record per line. Appends are
// serialized so that ordering stays deterministic even when jobs finish
// concurrently.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aatumaykin/taskmill/internal/logger"
)

const (
	// RunlogSubdirectory is the subdirectory name for run history within workspace
	RunlogSubdirectory = "runlog"

	// RunsFilename is the filename for storing run records in JSONL format
	RunsFilename = "runs.jsonl"
)

// Store provides durable, ordered storage for run records.
type Store struct {
	filePath string
	logger   *logger.Logger
	mu       sync.Mutex // single-writer discipline for appends
}

// NewStore creates a run record store under workspacePath.
func NewStore(workspacePath string, log *logger.Logger) *Store {
	filePath := filepath.Join(workspacePath, RunlogSubdirectory, RunsFilename)
	return &Store{
		filePath: filePath,
		logger:   log,
	}
}

// Append writes a finalized record to the end of the log file.
// The record must have FinishedAt set. An append failure is returned to the
// caller; it must never be swallowed, since a lost record would mask a job
// outcome.
func (s *Store) Append(rec Record) error {
	if rec.JobName == "" {
		return fmt.Errorf("record has no job name")
	}
	if rec.FinishedAt.IsZero() {
		return fmt.Errorf("record for job %s is not finalized", rec.JobName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create runlog directory: %w", err)
	}

	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open runlog for append: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync runlog: %w", err)
	}

	s.logger.Debug("run record appended",
		logger.Field{Key: "job", Value: rec.JobName},
		logger.Field{Key: "status", Value: rec.Status},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

// Query holds optional filters for reading run history.
type Query struct {
	JobName string    // only records for this job when non-empty
	Since   time.Time // only records started at or after this time when non-zero
}

// Records reads matching records ordered by StartedAt ascending.
// Returns an empty slice if the log file doesn't exist yet.
func (s *Store) Records(q Query) ([]Record, error) {
	file, err := os.Open(s.filePath)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open runlog: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.logger.Error("failed to unmarshal record line", err,
				logger.Field{Key: "file", Value: s.filePath},
				logger.Field{Key: "line", Value: lineNum})
			continue
		}

		if q.JobName != "" && rec.JobName != q.JobName {
			continue
		}
		if !q.Since.IsZero() && rec.StartedAt.Before(q.Since) {
			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning runlog: %w", err)
	}

	// Appends happen at completion time, so concurrent jobs can land out of
	// start order on disk.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

// Walk streams matching records in file order, stopping early when fn
// returns false. Unlike Records it does not sort, so it is cheap for large
// histories.
func (s *Store) Walk(q Query, fn func(Record) bool) error {
	file, err := os.Open(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open runlog: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if q.JobName != "" && rec.JobName != q.JobName {
			continue
		}
		if !q.Since.IsZero() && rec.StartedAt.Before(q.Since) {
			continue
		}
		if !fn(rec) {
			return nil
		}
	}

	return scanner.Err()
}
