// Package app wires configuration into running components.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/voltplan/voltplan/api"
	"github.com/voltplan/voltplan/config"
	coremetrics "github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/planner"
	"github.com/voltplan/voltplan/core/planstore"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/core/sensor"
	"github.com/voltplan/voltplan/infra/gitsync"
	"github.com/voltplan/voltplan/infra/logger"
	"github.com/voltplan/voltplan/infra/metrics"
	"github.com/voltplan/voltplan/infra/mqtt"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// Service runs the hourly planning loop, the HTTP API and the MQTT state
// publisher.
type Service struct {
	cfg     *config.Config
	planner *planner.Planner
	facade  sensor.Facade
	api     *api.Server
	bus     *eventbus.Bus[planner.PlanEvent]
	pub     mqtt.Publisher
	tz      *time.Location
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	devices, err := cfg.BuildDevices()
	if err != nil {
		return nil, err
	}
	priceStore, planStore := newStores(cfg)
	sink := buildSink(cfg)
	bus := eventbus.New[planner.PlanEvent]()
	pl := planner.New(priceStore, planStore, devices, tz, cfg.Deadline(),
		logger.New("planner"), sink, bus)

	var pub mqtt.Publisher
	if cfg.MQTT.Enabled {
		pub, err = mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	srv := api.NewServer(devices, planStore, priceStore, tz, logger.New("api"))
	return &Service{
		cfg:     cfg,
		planner: pl,
		facade:  sensor.Facade{Prices: priceStore, Plans: planStore},
		api:     srv,
		bus:     bus,
		pub:     pub,
		tz:      tz,
		log:     logger.New("service"),
	}, nil
}

// NewPlanner builds only the planning pipeline, for one-shot runs.
func NewPlanner(cfg *config.Config) (*planner.Planner, error) {
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	devices, err := cfg.BuildDevices()
	if err != nil {
		return nil, err
	}
	priceStore, planStore := newStores(cfg)
	return planner.New(priceStore, planStore, devices, tz, cfg.Deadline(),
		logger.New("planner"), buildSink(cfg), nil), nil
}

// NewFacade builds only the read side, for sensor queries.
func NewFacade(cfg *config.Config) (sensor.Facade, error) {
	if _, err := cfg.Location(); err != nil {
		return sensor.Facade{}, err
	}
	priceStore, planStore := newStores(cfg)
	return sensor.Facade{Prices: priceStore, Plans: planStore}, nil
}

// NewAPIServer builds the HTTP server serving the read-only API.
func NewAPIServer(cfg *config.Config) (*http.Server, error) {
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	devices, err := cfg.BuildDevices()
	if err != nil {
		return nil, err
	}
	priceStore, planStore := newStores(cfg)
	srv := api.NewServer(devices, planStore, priceStore, tz, logger.New("api"))
	return &http.Server{Addr: cfg.API.Listen, Handler: srv.Handler()}, nil
}

func newStores(cfg *config.Config) (*prices.Store, *planstore.Store) {
	priceCfg := prices.Config{
		Source:              cfg.Prices.Source,
		FetchTimeoutSeconds: cfg.Prices.FetchTimeoutSeconds,
	}
	priceStore := prices.NewStore(cfg.StorageDir, priceCfg, gitsync.Git{},
		cfg.Transform(), logger.New("prices"))
	return priceStore, planstore.NewStore(cfg.StorageDir)
}

func buildSink(cfg *config.Config) coremetrics.Sink {
	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			logger.New("metrics").Errorf("prom sink: %v", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}
	case 1:
		return sinks[0]
	default:
		return metrics.NewMultiSink(sinks...)
	}
}

// Run plans immediately, then at the top of every hour, until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.cfg.API.Listen, Handler: s.api.Handler()}
	go func() {
		s.log.Infof("API listening on %s", s.cfg.API.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("api server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.pub != nil {
		sub := s.bus.Subscribe()
		go s.forwardPlanEvents(sub)
	}

	s.runOnce(ctx)
	for {
		wait := time.Until(nextHour(time.Now()))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if err := s.planner.Run(ctx, time.Time{}); err != nil {
		s.log.Errorf("planning run: %v", err)
	}
	s.publishSensors()
}

// publishSensors refreshes the retained MQTT topics with the current sensor
// values. Missing data is normal before the first planned day and is only
// logged at debug level.
func (s *Service) publishSensors() {
	if s.pub == nil {
		return
	}
	now := time.Now().In(s.tz)
	prefix := s.cfg.MQTT.TopicPrefix
	if price, err := s.facade.CurrentPrice(now); err == nil {
		s.publish(prefix+"/price", strconv.FormatFloat(price, 'g', -1, 64))
	} else {
		s.log.Debugf("current price: %v", err)
	}
	for _, d := range s.planner.Devices() {
		if state, err := s.facade.DeviceState(d.Name, now); err == nil {
			s.publish(prefix+"/"+d.Name+"/state", string(state))
		} else {
			s.log.Debugf("device %s state: %v", d.Name, err)
		}
		if info, err := s.facade.DeviceInfo(d.Name, now); err == nil {
			s.publish(prefix+"/"+d.Name+"/info", string(info))
		} else {
			s.log.Debugf("device %s info: %v", d.Name, err)
		}
	}
}

func (s *Service) forwardPlanEvents(sub <-chan planner.PlanEvent) {
	for ev := range sub {
		now := time.Now().In(s.tz)
		prefix := s.cfg.MQTT.TopicPrefix
		s.publish(prefix+"/"+ev.Device+"/info", string(ev.Plan.Info))
		s.publish(prefix+"/"+ev.Device+"/state", string(ev.Plan.StateAt(now)))
	}
}

func (s *Service) publish(topic, payload string) {
	if err := s.pub.Publish(topic, payload); err != nil {
		s.log.Errorf("publish %s: %v", topic, err)
	}
}

// Close releases the bus and the MQTT connection.
func (s *Service) Close() error {
	s.bus.Close()
	if s.pub != nil {
		s.pub.Close()
	}
	return nil
}

// nextHour returns the start of the hour after t.
func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
