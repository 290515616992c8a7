package runlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/taskmill/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return NewStore(t.TempDir(), log)
}

func finalized(job string, started time.Time, status Status) Record {
	rec := NewRecord(job, started)
	rec.FinishedAt = started.Add(time.Second)
	rec.AttemptCount = 1
	rec.Status = status
	return rec
}

func TestAppendAndRecords(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(finalized("backup", base, StatusSuccess)))
	require.NoError(t, store.Append(finalized("scrape", base.Add(time.Minute), StatusFailed)))
	require.NoError(t, store.Append(finalized("backup", base.Add(2*time.Minute), StatusTimedOut)))

	records, err := store.Records(Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "backup", records[0].JobName)
	assert.Equal(t, StatusSuccess, records[0].Status)
	assert.Equal(t, StatusTimedOut, records[2].Status)
}

func TestRecordsOrderedByStartedAt(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Append out of start order, as happens when a slow job finishes after a
	// fast one that started later.
	require.NoError(t, store.Append(finalized("slow", base.Add(time.Hour), StatusSuccess)))
	require.NoError(t, store.Append(finalized("fast", base, StatusSuccess)))
	require.NoError(t, store.Append(finalized("mid", base.Add(30*time.Minute), StatusSuccess)))

	records, err := store.Records(Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].StartedAt.Before(records[i-1].StartedAt),
			"records not in non-decreasing started_at order")
	}
	assert.Equal(t, "fast", records[0].JobName)
	assert.Equal(t, "slow", records[2].JobName)
}

func TestRecordsFilters(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(finalized("backup", base, StatusSuccess)))
	require.NoError(t, store.Append(finalized("backup", base.Add(time.Hour), StatusFailed)))
	require.NoError(t, store.Append(finalized("scrape", base.Add(2*time.Hour), StatusSuccess)))

	byJob, err := store.Records(Query{JobName: "backup"})
	require.NoError(t, err)
	assert.Len(t, byJob, 2)

	since, err := store.Records(Query{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	both, err := store.Records(Query{JobName: "backup", Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, StatusFailed, both[0].Status)
}

func TestAppendRejectsUnfinalizedRecord(t *testing.T) {
	store := newTestStore(t)

	rec := NewRecord("backup", time.Now())
	err := store.Append(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finalized")

	err = store.Append(Record{FinishedAt: time.Now()})
	require.Error(t, err)
}

func TestRecordsEmptyWhenFileMissing(t *testing.T) {
	store := newTestStore(t)

	records, err := store.Records(Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWalkStopsEarly(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(finalized("backup", base.Add(time.Duration(i)*time.Minute), StatusSuccess)))
	}

	var seen int
	err := store.Walk(Query{}, func(rec Record) bool {
		seen++
		return seen < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestRecordDuration(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := finalized("backup", base, StatusSuccess)
	assert.Equal(t, time.Second, rec.Duration())
}
