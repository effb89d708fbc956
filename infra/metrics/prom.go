package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

// PromSink records planner events in Prometheus metrics.
type PromSink struct {
	runs    *prometheus.CounterVec
	plans   *prometheus.CounterVec
	updates *prometheus.CounterVec
	lastRun prometheus.Gauge
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_runs_total",
		Help: "Total number of planning runs",
	}, []string{"prices_available", "fallback"})
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_written_total",
		Help: "Total number of persisted device plans",
	}, []string{"device", "info"})
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_updates_total",
		Help: "Total number of raw price dataset refresh attempts",
	}, []string{"result"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planning_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last completed planning run",
	})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(plans); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			plans = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(updates); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			updates = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(lastRun); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			lastRun = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, plans: plans, updates: updates, lastRun: lastRun}, nil
}

// RecordPlanningRun counts the run and stamps its completion time.
func (s *PromSink) RecordPlanningRun(run coremetrics.PlanningRun) error {
	s.runs.WithLabelValues(strconv.FormatBool(run.PricesAvailable), strconv.FormatBool(run.Fallback)).Inc()
	s.lastRun.SetToCurrentTime()
	return nil
}

// RecordPlanWritten counts one persisted plan per device and kind.
func (s *PromSink) RecordPlanWritten(pw coremetrics.PlanWritten) error {
	s.plans.WithLabelValues(pw.Device, string(pw.Info)).Inc()
	return nil
}

// RecordPriceUpdate counts a dataset refresh attempt by result.
func (s *PromSink) RecordPriceUpdate(up coremetrics.PriceUpdate) error {
	result := "error"
	if up.OK {
		result = "ok"
	}
	s.updates.WithLabelValues(result).Inc()
	return nil
}

// StartPromServer exposes the default registry on /metrics.
func StartPromServer(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(":"+port, mux)
}
