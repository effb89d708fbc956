// Package sensor is the read side: point-in-time lookups over the price and
// plan stores for dashboards and home-automation consumers. It never plans.
package sensor

import (
	"time"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/planstore"
	"github.com/voltplan/voltplan/core/prices"
)

// Facade composes the two stores for read-only queries. Store errors
// propagate unchanged.
type Facade struct {
	Prices *prices.Store
	Plans  *planstore.Store
}

// CurrentPrice returns the electricity price at t.
func (f Facade) CurrentPrice(t time.Time) (float64, error) {
	return f.Prices.PriceAt(t)
}

// StatisticalPrice aggregates prices over the past days before t.
func (f Facade) StatisticalPrice(t time.Time, op prices.StatOp, days int) (float64, error) {
	return f.Prices.StatisticalPrice(t, op, days)
}

// DeviceState returns the planned state of the device at t.
func (f Facade) DeviceState(device string, t time.Time) (model.State, error) {
	return f.Plans.StateAt(device, t)
}

// DeviceInfo returns how the plan covering t was computed.
func (f Facade) DeviceInfo(device string, t time.Time) (model.PlanKind, error) {
	return f.Plans.InfoAt(device, t)
}
