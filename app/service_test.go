package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shootplan/config"
	"github.com/kilianp07/shootplan/core/factory"
	coremetrics "github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/core/scheduling"
)

var closedSinks atomic.Int32

type closingSink struct{ coremetrics.NopSink }

func (closingSink) Close() { closedSinks.Add(1) }

func init() {
	_ = coremetrics.RegisterMetricsSink("closing", func(map[string]any) (coremetrics.MetricsSink, error) {
		return closingSink{}, nil
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.RunLog = runlog.Config{Backend: runlog.BackendJSONL, Path: filepath.Join(t.TempDir(), "runs.jsonl")}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_ServesAPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Token = "tok"
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	h, err := svc.Handler()
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	body := []byte(`{"start_date":"2024-01-01","end_date":"2024-01-10","scenes":[{"id":1,"scene_number":"1","location_name":"Loft","location_type":"indoor"}]}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects/3/schedule", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Schedule []map[string]any `json:"schedule"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Schedule, 1)

	recs, err := svc.Manager.Runs(context.Background(), runlog.Query{ProjectID: 3})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNew_ForecastWeather(t *testing.T) {
	cfg := testConfig(t)
	cfg.Weather = factory.ModuleConfig{Type: "forecast", Conf: map[string]any{
		"forecasts": []any{map[string]any{"date": "2024-01-01", "precipitation_chance": 90}},
	}}
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	res, err := svc.Manager.Schedule(context.Background(), scheduling.Request{
		ProjectID: 1,
		Scenes:    []model.Scene{{ID: 1, SceneNumber: "1", LocationName: "Beach", LocationType: model.Outdoor}},
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-02", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Equal(t, 1, res.WeatherRetries)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Weather = factory.ModuleConfig{Type: "almanac"}
	_, err := New(cfg)
	assert.ErrorContains(t, err, "weather gate")

	cfg = testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "metrics sink")
}

func TestNew_MetricsSinks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}}
	svc, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}

func TestClose_ReleasesMetricsSinks(t *testing.T) {
	before := closedSinks.Load()
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closing"}, {Type: "nop"}, {Type: "closing"}}
	svc, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.Equal(t, before+2, closedSinks.Load())
}
