package metrics

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/infra/logger"
)

// InfluxSink writes scheduling runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordScheduleRun writes one schedule_run point, with one
// schedule_conflict point per conflict type.
func (s *InfluxSink) RecordScheduleRun(run coremetrics.ScheduleRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	project := strconv.Itoa(run.ProjectID)
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("project_id", project).
		AddTag("mode", run.Mode).
		AddTag("run_id", run.RunID).
		AddField("scenes", run.Scenes).
		AddField("scheduled", run.Scheduled).
		AddField("capacity", run.Capacity).
		AddField("total_days", run.TotalDays).
		AddField("weather_retries", run.WeatherRetries).
		AddField("duration_ms", run.Duration.Milliseconds()).
		SetTime(run.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	types := make([]model.ConflictType, 0, len(run.Conflicts))
	for typ := range run.Conflicts {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, typ := range types {
		c := write.NewPointWithMeasurement("schedule_conflict").
			AddTag("project_id", project).
			AddTag("run_id", run.RunID).
			AddTag("type", string(typ)).
			AddField("count", run.Conflicts[typ]).
			SetTime(run.Time)
		if err := s.writeAPI.WritePoint(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// RecordReschedule writes one reschedule point.
func (s *InfluxSink) RecordReschedule(run coremetrics.RescheduleRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reschedule").
		AddTag("project_id", strconv.Itoa(run.ProjectID)).
		AddTag("success", strconv.FormatBool(run.Success)).
		AddTag("run_id", run.RunID).
		AddField("scene_id", run.SceneID).
		AddField("cascaded", run.Cascaded).
		AddField("conflicts", run.Conflicts).
		SetTime(run.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }
