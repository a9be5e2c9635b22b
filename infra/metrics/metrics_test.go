package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shootplan/core/factory"
	coremetrics "github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/model"
)

func TestPromSink_RecordScheduleRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordScheduleRun(coremetrics.ScheduleRun{
		ProjectID: 4, Mode: "cost", TotalDays: 6,
		Conflicts: map[model.ConflictType]int{model.ConflictActorOverload: 2},
	}))
	require.NoError(t, sink.RecordScheduleRun(coremetrics.ScheduleRun{
		ProjectID: 4, Mode: "cost", TotalDays: 3,
		Conflicts: map[model.ConflictType]int{model.ConflictTimelineExceeded: 1},
	}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.runs.WithLabelValues("4", "cost")))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.days.WithLabelValues("4")))
	expected := `
# HELP project_schedule_conflicts Conflicts raised by the latest schedule of a project
# TYPE project_schedule_conflicts gauge
project_schedule_conflicts{project_id="4",type="timeline_exceeded"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(sink.conflicts, strings.NewReader(expected)))

	require.NoError(t, sink.RecordReschedule(coremetrics.RescheduleRun{ProjectID: 4, Success: false}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.reschedules.WithLabelValues("4", "false")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, a.RecordScheduleRun(coremetrics.ScheduleRun{ProjectID: 1, Mode: "speed"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.runs.WithLabelValues("1", "speed")))
}

func TestInfluxSink_RecordScheduleRun(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	run := coremetrics.ScheduleRun{
		RunID: "r1", ProjectID: 2, Mode: "balanced", Scenes: 6, Scheduled: 5, Capacity: 5,
		TotalDays: 1, WeatherRetries: 2, Duration: 1500 * time.Microsecond, Time: now,
		Conflicts: map[model.ConflictType]int{model.ConflictTimelineExceeded: 1},
	}
	require.NoError(t, sink.RecordScheduleRun(run))

	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("project_id", "2").
		AddTag("mode", "balanced").
		AddTag("run_id", "r1").
		AddField("scenes", 6).
		AddField("scheduled", 5).
		AddField("capacity", 5).
		AddField("total_days", 1).
		AddField("weather_retries", 2).
		AddField("duration_ms", int64(1)).
		SetTime(now)
	c := write.NewPointWithMeasurement("schedule_conflict").
		AddTag("project_id", "2").
		AddTag("run_id", "r1").
		AddTag("type", "timeline_exceeded").
		AddField("count", 1).
		SetTime(now)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), bodies[0])
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(c, time.Nanosecond)), bodies[1])
}

func TestInfluxSink_RecordReschedule(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = strings.TrimSpace(string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	require.NoError(t, sink.RecordReschedule(coremetrics.RescheduleRun{RunID: "r2", ProjectID: 1, SceneID: 9, Success: true, Cascaded: 2, Time: time.Unix(100, 0)}))
	assert.True(t, strings.HasPrefix(body, "reschedule,"), body)
	assert.Contains(t, body, "success=true")
	assert.Contains(t, body, "cascaded=2i")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called)
}

func TestRegisteredSinks(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &PromSink{}, s)
}
