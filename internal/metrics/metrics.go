// Package metrics exposes prometheus instrumentation for job runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry       prometheus.Registerer
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	runsInFlight   prometheus.Gauge
	jobsRegistered prometheus.Gauge
}

// Init registers run metrics under the given namespace. A nil registerer
// falls back to the prometheus default.
func Init(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of job runs by final status",
			},
			[]string{"job", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_run_duration_seconds",
				Help:      "Duration of job runs",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		runsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_runs_in_flight",
				Help:      "Number of job runs currently executing",
			},
		),
		jobsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "jobs_registered",
				Help:      "Number of registered jobs",
			},
		),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.runsInFlight,
		m.jobsRegistered,
	)

	return m
}

// RecordRun counts one finished run and observes its duration.
func (m *Metrics) RecordRun(job, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(job, status).Inc()
	m.runDuration.WithLabelValues(job).Observe(d.Seconds())
}

// RunStarted marks a run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished removes a run from the in-flight gauge.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
}

// SetJobsRegistered records the registry size.
func (m *Metrics) SetJobsRegistered(n int) {
	if m == nil {
		return
	}
	m.jobsRegistered.Set(float64(n))
}
