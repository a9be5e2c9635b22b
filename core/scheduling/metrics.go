package scheduling

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal       *prometheus.CounterVec
	scenesScheduled prometheus.Counter
	conflictsTotal  *prometheus.CounterVec
	weatherRetries  prometheus.Counter
	runDuration     *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, *prometheus.CounterVec, prometheus.Counter, *prometheus.HistogramVec) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_runs_total",
			Help: "Number of scheduling operations by kind and mode",
		},
		[]string{"kind", "mode"},
	)
	scenes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scenes_scheduled_total",
			Help: "Number of scenes assigned a shooting day",
		},
	)
	conflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_total",
			Help: "Conflicts raised by scheduling operations",
		},
		[]string{"type"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_retries_total",
			Help: "Days skipped while searching for suitable outdoor weather",
		},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedule_run_duration_seconds",
			Help:    "Time spent computing a schedule",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	return runs, scenes, conflicts, retries, dur
}

func init() {
	runsTotal, scenesScheduled, conflictsTotal, weatherRetries, runDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runsTotal, scenesScheduled, conflictsTotal, weatherRetries, runDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runsTotal, scenesScheduled, conflictsTotal, weatherRetries, runDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
