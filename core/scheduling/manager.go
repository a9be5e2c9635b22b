package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/shootplan/core/events"
	"github.com/kilianp07/shootplan/core/logger"
	"github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/internal/eventbus"
)

// Manager runs the Engine and reports every run: it assigns run ids,
// updates the Prometheus collectors, records metrics sinks, appends to the
// run log and publishes events. Reporting failures are logged and never
// fail the run.
type Manager struct {
	engine *Engine
	sink   metrics.MetricsSink
	store  runlog.Store
	bus    eventbus.Publisher[events.Event]
	log    logger.Logger
	now    func() time.Time
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithMetricsSink sets the sink receiving run summaries.
func WithMetricsSink(s metrics.MetricsSink) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithRunLog sets the store receiving run records.
func WithRunLog(s runlog.Store) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.store = s
		}
	}
}

// WithEventBus sets the publisher receiving scheduling events.
func WithEventBus(b eventbus.Publisher[events.Event]) ManagerOption {
	return func(m *Manager) { m.bus = b }
}

// WithManagerLogger sets the manager logger.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = logger.OrNop(l) }
}

// WithClock overrides the time source used for timestamps and previews.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager wraps engine.
func NewManager(engine *Engine, opts ...ManagerOption) (*Manager, error) {
	if engine == nil {
		return nil, errors.New("scheduling: nil engine")
	}
	m := &Manager{
		engine: engine,
		sink:   metrics.NopSink{},
		store:  runlog.NopStore{},
		log:    logger.NopLogger{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Engine returns the wrapped engine.
func (m *Manager) Engine() *Engine { return m.engine }

// Runs queries the run log.
func (m *Manager) Runs(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return m.store.Query(ctx, q)
}

// Schedule computes a schedule and reports it.
func (m *Manager) Schedule(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := m.engine.Schedule(ctx, req)
	if err != nil {
		return res, err
	}
	elapsed := time.Since(start)
	res.RunID = uuid.NewString()
	ts := m.now()

	runsTotal.WithLabelValues(string(runlog.KindSchedule), string(res.Mode)).Inc()
	scenesScheduled.Add(float64(len(res.Schedule)))
	weatherRetries.Add(float64(res.WeatherRetries))
	runDuration.WithLabelValues(string(runlog.KindSchedule)).Observe(elapsed.Seconds())
	for _, c := range res.Conflicts {
		conflictsTotal.WithLabelValues(string(c.Type)).Inc()
	}

	if err := m.sink.RecordScheduleRun(metrics.ScheduleRun{
		RunID:          res.RunID,
		ProjectID:      req.ProjectID,
		Mode:           string(res.Mode),
		Scenes:         len(req.Scenes),
		Scheduled:      len(res.Schedule),
		Capacity:       res.Capacity,
		TotalDays:      res.TotalDays,
		WeatherRetries: res.WeatherRetries,
		Conflicts:      metrics.CountConflicts(res.Conflicts),
		Duration:       elapsed,
		Time:           ts,
	}); err != nil {
		m.log.Warnf("record schedule run %s: %v", res.RunID, err)
	}

	completion := res.CompletionDate
	m.appendRecord(ctx, runlog.Record{
		ID:             res.RunID,
		Timestamp:      ts,
		Kind:           runlog.KindSchedule,
		ProjectID:      req.ProjectID,
		Mode:           string(res.Mode),
		SceneCount:     len(req.Scenes),
		Scheduled:      len(res.Schedule),
		TotalDays:      res.TotalDays,
		CompletionDate: &completion,
		Conflicts:      res.Conflicts,
		Assignments:    res.Schedule,
	})

	m.publish(events.ScheduleEvent{
		RunID:          res.RunID,
		ProjectID:      req.ProjectID,
		Mode:           string(res.Mode),
		Schedule:       res.Schedule,
		TotalDays:      res.TotalDays,
		CompletionDate: res.CompletionDate,
		Conflicts:      len(res.Conflicts),
		Time:           ts,
	})
	for _, c := range res.Conflicts {
		m.publish(events.ConflictEvent{RunID: res.RunID, ProjectID: req.ProjectID, Conflict: c})
	}
	m.log.Infow("schedule run", map[string]any{
		"run_id":    res.RunID,
		"project":   req.ProjectID,
		"mode":      string(res.Mode),
		"scheduled": len(res.Schedule),
		"conflicts": len(res.Conflicts),
		"days":      res.TotalDays,
	})
	return res, nil
}

// Reschedule moves one scene and reports the move.
func (m *Manager) Reschedule(ctx context.Context, req RescheduleRequest) RescheduleResult {
	start := time.Now()
	res := m.engine.Reschedule(ctx, req)
	res.RunID = uuid.NewString()
	ts := m.now()

	runsTotal.WithLabelValues(string(runlog.KindReschedule), "").Inc()
	runDuration.WithLabelValues(string(runlog.KindReschedule)).Observe(time.Since(start).Seconds())
	for _, c := range res.NewConflicts {
		conflictsTotal.WithLabelValues(string(c.Type)).Inc()
	}

	if rr, ok := m.sink.(metrics.RescheduleRecorder); ok {
		if err := rr.RecordReschedule(metrics.RescheduleRun{
			RunID:     res.RunID,
			ProjectID: req.ProjectID,
			SceneID:   req.SceneID,
			Success:   res.Success,
			Cascaded:  len(res.Cascade),
			Conflicts: len(res.NewConflicts),
			Time:      ts,
		}); err != nil {
			m.log.Warnf("record reschedule %s: %v", res.RunID, err)
		}
	}

	m.appendRecord(ctx, runlog.Record{
		ID:             res.RunID,
		Timestamp:      ts,
		Kind:           runlog.KindReschedule,
		ProjectID:      req.ProjectID,
		SceneID:        req.SceneID,
		Success:        res.Success,
		Message:        res.Message,
		AffectedScenes: res.AffectedScenes,
		Conflicts:      res.NewConflicts,
	})

	m.publish(events.RescheduleEvent{
		RunID:     res.RunID,
		ProjectID: req.ProjectID,
		SceneID:   req.SceneID,
		OldDate:   res.OldDate,
		NewDate:   res.NewDate,
		Success:   res.Success,
		Moved:     movedAssignments(req.SceneID, res),
		Conflicts: len(res.NewConflicts),
		Reason:    req.Reason,
		Time:      ts,
	})
	if res.Success {
		m.log.Infof("reschedule %s: %s (%d cascaded)", res.RunID, res.Message, len(res.Cascade))
	} else {
		m.log.Warnf("reschedule %s: scene %d: %s", res.RunID, req.SceneID, res.Message)
	}
	return res
}

// Preview estimates a schedule from today and records the estimate.
func (m *Manager) Preview(ctx context.Context, req Request) (Preview, error) {
	p, err := m.engine.Preview(ctx, req, m.now())
	if err != nil {
		return p, err
	}
	runsTotal.WithLabelValues(string(runlog.KindPreview), string(p.Mode)).Inc()
	completion := p.CompletionDate
	m.appendRecord(ctx, runlog.Record{
		ID:             uuid.NewString(),
		Timestamp:      m.now(),
		Kind:           runlog.KindPreview,
		ProjectID:      req.ProjectID,
		Mode:           string(p.Mode),
		SceneCount:     p.TotalScenes,
		TotalDays:      p.EstimatedDays,
		CompletionDate: &completion,
		Conflicts:      p.ConflictsPreview,
	})
	return p, nil
}

// Close releases the run log.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) appendRecord(ctx context.Context, rec runlog.Record) {
	if err := m.store.Append(ctx, rec); err != nil {
		m.log.Warnf("append run log %s: %v", rec.ID, err)
	}
}

func (m *Manager) publish(e events.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// movedAssignments lists the assignments whose date changed, the moved
// scene first.
func movedAssignments(sceneID int, res RescheduleResult) []model.Assignment {
	if !res.Success {
		return []model.Assignment{}
	}
	changed := map[int]bool{sceneID: true}
	for _, c := range res.Cascade {
		changed[c.SceneID] = true
	}
	out := make([]model.Assignment, 0, len(changed))
	for _, a := range res.UpdatedSchedule {
		if !changed[a.SceneID] {
			continue
		}
		changed[a.SceneID] = false
		if a.SceneID == sceneID {
			out = append([]model.Assignment{a}, out...)
			continue
		}
		out = append(out, a)
	}
	return out
}
