package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/shootplan/core/metrics"
)

// PromSink exposes per-project scheduling results as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	days        *prometheus.GaugeVec
	conflicts   *prometheus.GaugeVec
	reschedules *prometheus.CounterVec
}

// NewPromSink registers project metrics on the default Prometheus registerer.
// The /metrics endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "project_schedule_runs_total",
		Help: "Scheduling runs per project and optimisation mode",
	}, []string{"project_id", "mode"})
	days := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "project_schedule_days",
		Help: "Shooting days spanned by the latest schedule of a project",
	}, []string{"project_id"})
	conflicts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "project_schedule_conflicts",
		Help: "Conflicts raised by the latest schedule of a project",
	}, []string{"project_id", "type"})
	reschedules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "project_reschedules_total",
		Help: "Reschedule requests per project and outcome",
	}, []string{"project_id", "success"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if days, err = register(reg, days); err != nil {
		return nil, err
	}
	if conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	if reschedules, err = register(reg, reschedules); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, days: days, conflicts: conflicts, reschedules: reschedules}, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordScheduleRun updates the project gauges with the run outcome.
func (s *PromSink) RecordScheduleRun(run coremetrics.ScheduleRun) error {
	project := strconv.Itoa(run.ProjectID)
	s.runs.WithLabelValues(project, run.Mode).Inc()
	s.days.WithLabelValues(project).Set(float64(run.TotalDays))
	s.conflicts.DeletePartialMatch(prometheus.Labels{"project_id": project})
	for typ, n := range run.Conflicts {
		s.conflicts.WithLabelValues(project, string(typ)).Set(float64(n))
	}
	return nil
}

// RecordReschedule counts the request by outcome.
func (s *PromSink) RecordReschedule(run coremetrics.RescheduleRun) error {
	s.reschedules.WithLabelValues(strconv.Itoa(run.ProjectID), strconv.FormatBool(run.Success)).Inc()
	return nil
}
