package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Init("taskmill", reg)
	require.NotNil(t, m)

	m.RecordRun("backup", "success", 250*time.Millisecond)
	m.RecordRun("backup", "failed", time.Second)
	m.SetJobsRegistered(3)
	m.RunStarted()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("backup", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("backup", "failed")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.jobsRegistered))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsInFlight))

	m.RunFinished()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.runsInFlight))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRun("backup", "success", time.Second)
		m.RunStarted()
		m.RunFinished()
		m.SetJobsRegistered(1)
	})
}
