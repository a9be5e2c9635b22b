package metrics

import (
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// ScheduleRun summarises one scheduling run.
type ScheduleRun struct {
	RunID          string
	ProjectID      int
	Mode           string
	Scenes         int
	Scheduled      int
	Capacity       int
	TotalDays      int
	WeatherRetries int
	Conflicts      map[model.ConflictType]int
	Duration       time.Duration
	Time           time.Time
}

// RescheduleRun summarises one reschedule request.
type RescheduleRun struct {
	RunID     string
	ProjectID int
	SceneID   int
	Success   bool
	Cascaded  int
	Conflicts int
	Time      time.Time
}

// MetricsSink records scheduling runs for observability purposes.
type MetricsSink interface {
	RecordScheduleRun(run ScheduleRun) error
}

// RescheduleRecorder is implemented by sinks able to record reschedules.
type RescheduleRecorder interface {
	RecordReschedule(run RescheduleRun) error
}

// Closer is implemented by sinks holding resources such as client
// connections.
type Closer interface {
	Close()
}

// CloseSink releases s when it implements Closer.
func CloseSink(s MetricsSink) {
	if c, ok := s.(Closer); ok {
		c.Close()
	}
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordScheduleRun(ScheduleRun) error  { return nil }
func (NopSink) RecordReschedule(RescheduleRun) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordScheduleRun forwards the run to all sinks, returning the first error.
func (m *MultiSink) RecordScheduleRun(run ScheduleRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordScheduleRun(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordReschedule forwards to sinks implementing RescheduleRecorder.
func (m *MultiSink) RecordReschedule(run RescheduleRun) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(RescheduleRecorder); ok {
			if err := rr.RecordReschedule(run); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every member sink implementing Closer.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		CloseSink(s)
	}
}

// CountConflicts tallies conflicts by type.
func CountConflicts(conflicts []model.Conflict) map[model.ConflictType]int {
	out := make(map[model.ConflictType]int)
	for _, c := range conflicts {
		out[c.Type]++
	}
	return out
}
