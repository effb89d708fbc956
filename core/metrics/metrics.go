// Package metrics defines the observability events emitted by the planner and
// the sink interface infrastructure adapters implement.
package metrics

import (
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// PlanningRun summarizes one orchestrator invocation.
type PlanningRun struct {
	RunID           string
	Day             time.Time
	PricesAvailable bool
	Fallback        bool
	Planned         int
	Skipped         int
	Failed          int
	Duration        time.Duration
}

// PlanWritten records a single persisted device plan.
type PlanWritten struct {
	Device string
	Day    time.Time
	Info   model.PlanKind
}

// PriceUpdate records the outcome of a raw dataset refresh.
type PriceUpdate struct {
	OK       bool
	Duration time.Duration
}

// Sink records planner events for observability purposes.
type Sink interface {
	RecordPlanningRun(PlanningRun) error
	RecordPlanWritten(PlanWritten) error
	RecordPriceUpdate(PriceUpdate) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordPlanningRun(PlanningRun) error { return nil }
func (NopSink) RecordPlanWritten(PlanWritten) error { return nil }
func (NopSink) RecordPriceUpdate(PriceUpdate) error { return nil }

// Config selects and parameterizes the enabled sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
