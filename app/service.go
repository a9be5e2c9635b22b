package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/shootplan/api/schedule"
	"github.com/kilianp07/shootplan/config"
	"github.com/kilianp07/shootplan/core/events"
	coremetrics "github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/infra/logger"
	"github.com/kilianp07/shootplan/infra/metrics"
	"github.com/kilianp07/shootplan/infra/mqtt"
	"github.com/kilianp07/shootplan/internal/eventbus"
)

const eventBuffer = 256

// Service wires the scheduling manager to its sinks, the run log, the MQTT
// bridge and the HTTP API.
type Service struct {
	Manager *scheduling.Manager

	cfg        *config.Config
	sink       coremetrics.MetricsSink
	bus        *eventbus.Bus[events.Event]
	pub        mqtt.Publisher
	disconnect func()
	bridgeDone <-chan struct{}
	log        logger.Logger
}

// New creates a Service from the configuration. Nothing is started until
// Run or StartBridge is called.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.LogLevel)
	logg := logger.New("service")

	gate, err := scheduling.NewWeatherGate(cfg.Weather)
	if err != nil {
		return nil, fmt.Errorf("weather gate: %w", err)
	}
	engine, err := scheduling.NewEngine(cfg.Scheduling,
		scheduling.WithWeatherGate(gate),
		scheduling.WithLogger(logger.New("scheduler")),
	)
	if err != nil {
		return nil, err
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.NewStore(cfg.RunLog)
	if err != nil {
		coremetrics.CloseSink(sink)
		return nil, fmt.Errorf("run log: %w", err)
	}

	svc := &Service{cfg: cfg, sink: sink, log: logg, bus: eventbus.New[events.Event](eventBuffer)}
	if cfg.MQTT.Enabled {
		pp, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			coremetrics.CloseSink(sink)
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pp
		svc.disconnect = pp.Disconnect
	}

	svc.Manager, err = scheduling.NewManager(engine,
		scheduling.WithMetricsSink(sink),
		scheduling.WithRunLog(store),
		scheduling.WithEventBus(svc.bus),
		scheduling.WithManagerLogger(logger.New("manager")),
	)
	if err != nil {
		coremetrics.CloseSink(sink)
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// StartBridge forwards scheduling events to MQTT when a publisher is
// configured. It is a no-op otherwise or when already started.
func (s *Service) StartBridge(ctx context.Context) {
	if s.pub == nil || s.bridgeDone != nil {
		return
	}
	s.bridgeDone = mqtt.StartBridge(ctx, s.bus, s.pub, s.cfg.MQTT.TopicPrefix, logger.New("mqtt_bridge"))
}

// Handler builds the HTTP API for the service.
func (s *Service) Handler() (http.Handler, error) {
	h, err := schedule.NewHandler(s.Manager,
		schedule.WithToken(s.cfg.HTTP.Token),
		schedule.WithMaxBodyBytes(int64(s.cfg.HTTP.MaxBodyMB)<<20),
		schedule.WithLogger(logger.New("api")),
	)
	if err != nil {
		return nil, err
	}
	return h.Routes(), nil
}

// Run serves the API, and the metrics endpoint when configured, until ctx
// is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.StartBridge(ctx)
	if addr := s.cfg.Metrics.PrometheusPort; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	h, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving scheduling API on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close forwards pending events to MQTT, then releases the metrics sinks
// and the run log.
func (s *Service) Close() error {
	s.bus.Close()
	if s.bridgeDone != nil {
		select {
		case <-s.bridgeDone:
		case <-time.After(5 * time.Second):
			s.log.Warnf("mqtt bridge did not drain in time")
		}
	}
	if s.disconnect != nil {
		s.disconnect()
	}
	coremetrics.CloseSink(s.sink)
	return s.Manager.Close()
}
