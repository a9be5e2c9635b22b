package scheduling

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shootplan/core/events"
	"github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/internal/eventbus"
)

type recordingSink struct {
	runs        []metrics.ScheduleRun
	reschedules []metrics.RescheduleRun
}

func (r *recordingSink) RecordScheduleRun(run metrics.ScheduleRun) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingSink) RecordReschedule(run metrics.RescheduleRun) error {
	r.reschedules = append(r.reschedules, run)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *recordingSink, *eventbus.Bus[events.Event], runlog.Store) {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	bus := eventbus.New[events.Event](64)
	t.Cleanup(bus.Close)
	sink := &recordingSink{}
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m, err := NewManager(newTestEngine(t, Config{}),
		WithMetricsSink(sink),
		WithRunLog(store),
		WithEventBus(bus),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return m, sink, bus, store
}

func TestManager_ScheduleReports(t *testing.T) {
	m, sink, bus, _ := newTestManager(t)
	sub := bus.Subscribe()
	var scenes []model.Scene
	for i := 1; i <= 4; i++ {
		scenes = append(scenes, indoor(i, "Loft", "Jane"))
	}
	res, err := m.Schedule(context.Background(), Request{ProjectID: 7, Scenes: scenes, Start: day(t, "2024-01-01"), End: day(t, "2024-01-31")})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	require.Len(t, sink.runs, 1)
	run := sink.runs[0]
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, 7, run.ProjectID)
	assert.Equal(t, 4, run.Scheduled)
	assert.Equal(t, 1, run.Conflicts[model.ConflictActorOverload])

	assert.Equal(t, 4.0, testutil.ToFloat64(scenesScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(runsTotal.WithLabelValues("schedule", "balanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(conflictsTotal.WithLabelValues("actor_overload")))

	ev := <-sub
	se, ok := ev.(events.ScheduleEvent)
	require.True(t, ok)
	assert.Equal(t, res.RunID, se.RunID)
	assert.Len(t, se.Schedule, 4)
	ce, ok := (<-sub).(events.ConflictEvent)
	require.True(t, ok)
	assert.Equal(t, 7, ce.Project())

	recs, err := m.Runs(context.Background(), runlog.Query{ProjectID: 7})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, runlog.KindSchedule, recs[0].Kind)
	assert.Len(t, recs[0].Assignments, 4)
}

func TestManager_ScheduleErrorNotReported(t *testing.T) {
	m, sink, _, _ := newTestManager(t)
	_, err := m.Schedule(context.Background(), Request{Start: day(t, "2024-02-01"), End: day(t, "2024-01-01")})
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Empty(t, sink.runs)
	recs, err := m.Runs(context.Background(), runlog.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestManager_RescheduleReports(t *testing.T) {
	m, sink, bus, _ := newTestManager(t)
	sub := bus.Subscribe()
	res := m.Reschedule(context.Background(), RescheduleRequest{ProjectID: 3, SceneID: 1, NewDate: day(t, "2024-01-10"), Current: baseSchedule(t), Reason: "location unavailable"})
	require.True(t, res.Success)
	require.NotEmpty(t, res.RunID)

	require.Len(t, sink.reschedules, 1)
	assert.Equal(t, 1, sink.reschedules[0].Cascaded)

	re, ok := (<-sub).(events.RescheduleEvent)
	require.True(t, ok)
	require.Len(t, re.Moved, 2)
	assert.Equal(t, 1, re.Moved[0].SceneID)
	assert.Equal(t, 2, re.Moved[1].SceneID)
	assert.Equal(t, "location unavailable", re.Reason)

	recs, err := m.Runs(context.Background(), runlog.Query{SceneID: 2})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, runlog.KindReschedule, recs[0].Kind)
}

func TestManager_Preview(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	p, err := m.Preview(context.Background(), Request{ProjectID: 1, Scenes: []model.Scene{indoor(1, "A")}})
	require.NoError(t, err)
	assert.Equal(t, day(t, "2024-01-01"), p.CompletionDate)
	recs, err := m.Runs(context.Background(), runlog.Query{Kind: runlog.KindPreview})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNewManagerRequiresEngine(t *testing.T) {
	_, err := NewManager(nil)
	assert.Error(t, err)
}
