// Package planner implements the deadline-aware planning loop. Each run
// targets one calendar day, plans every device that has no plan yet and
// persists the results. Runs are idempotent per device and day.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/optimizer"
	"github.com/voltplan/voltplan/core/planstore"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// Device binds a configured device to its planning strategy. Device identity
// is read-only for the planner.
type Device struct {
	Name       string
	PrettyName string
	Type       string
	Optimizer  optimizer.Optimizer
}

// PlanEvent is published on the bus after a plan has been persisted.
type PlanEvent struct {
	Device string
	Day    time.Time
	Plan   model.Plan
}

// Planner coordinates the price store, the optimizers and the plan store.
type Planner struct {
	prices   *prices.Store
	plans    *planstore.Store
	devices  []Device
	tz       *time.Location
	deadline time.Duration
	log      logger.Logger
	sink     metrics.Sink
	bus      *eventbus.Bus[PlanEvent]
	now      func() time.Time
}

// New creates a Planner. The deadline is the duration before a day boundary
// after which fallback planning is authorized. Sink and bus may be nil.
func New(priceStore *prices.Store, planStore *planstore.Store, devices []Device,
	tz *time.Location, deadline time.Duration, log logger.Logger,
	sink metrics.Sink, bus *eventbus.Bus[PlanEvent]) *Planner {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Planner{
		prices:   priceStore,
		plans:    planStore,
		devices:  devices,
		tz:       tz,
		deadline: deadline,
		log:      log,
		sink:     sink,
		bus:      bus,
		now:      func() time.Time { return time.Now().In(tz) },
	}
}

// Devices returns the configured devices.
func (p *Planner) Devices() []Device { return p.devices }

// NextDayStart returns midnight of the day after now in tz.
func NextDayStart(now time.Time, tz *time.Location) time.Time {
	y, m, d := now.In(tz).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, tz).AddDate(0, 0, 1)
}

// Run executes one planning cycle for the day starting at target. A zero
// target means the next day boundary. Existing plans are never recomputed;
// a failing device never blocks the remaining ones.
func (p *Planner) Run(ctx context.Context, target time.Time) error {
	started := time.Now()
	if target.IsZero() {
		target = NextDayStart(p.now(), p.tz)
	}
	runID := uuid.NewString()
	day := target.Format("2006-01-02")
	p.log.Infof("run %s: planning for %s", runID, day)

	p.updatePrices(ctx, runID)

	hourly, err := p.prices.HourlyPrices(target)
	if err != nil {
		p.log.Errorf("run %s: reading prices: %v", runID, err)
		hourly = nil
	}
	fallback := false
	if hourly == nil {
		p.log.Infof("run %s: prices for %s are not yet available", runID, day)
		if !p.deadlinePassed(target) {
			p.log.Infof("run %s: deadline not reached, nothing to do", runID)
			p.record(metrics.PlanningRun{RunID: runID, Day: target, Duration: time.Since(started)})
			return nil
		}
		p.log.Warnf("run %s: deadline has passed, continuing with fallback planning", runID)
		fallback = true
	}

	var planned, skipped, failed int
	var errs []error
	for _, dev := range p.devices {
		if p.plans.Exists(dev.Name, target) {
			skipped++
			p.log.Debugf("run %s: plan for %s already exists", runID, dev.Name)
			continue
		}
		p.log.Infof("run %s: planning device %s", runID, dev.Name)
		plan, err := dev.Optimizer.Plan(target, hourly)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("device %s: %w", dev.Name, err))
			p.log.Errorf("run %s: device %s: %v", runID, dev.Name, err)
			continue
		}
		if err := p.plans.Save(dev.Name, target, plan); err != nil {
			failed++
			errs = append(errs, fmt.Errorf("device %s: %w", dev.Name, err))
			p.log.Errorf("run %s: device %s: %v", runID, dev.Name, err)
			continue
		}
		planned++
		if err := p.sink.RecordPlanWritten(metrics.PlanWritten{Device: dev.Name, Day: target, Info: plan.Info}); err != nil {
			p.log.Warnf("run %s: metrics: %v", runID, err)
		}
		if p.bus != nil {
			p.bus.Publish(PlanEvent{Device: dev.Name, Day: target, Plan: plan})
		}
		p.log.Infof("run %s: device %s planned (%s) for %s", runID, dev.Name, plan.Info, day)
	}
	p.record(metrics.PlanningRun{
		RunID:           runID,
		Day:             target,
		PricesAvailable: hourly != nil,
		Fallback:        fallback,
		Planned:         planned,
		Skipped:         skipped,
		Failed:          failed,
		Duration:        time.Since(started),
	})
	p.log.Infof("run %s: finished planning (%d planned, %d skipped, %d failed)", runID, planned, skipped, failed)
	return errors.Join(errs...)
}

// updatePrices refreshes the raw dataset. A fetch failure is the one
// recovered error of a run: stale or absent local data is still usable.
func (p *Planner) updatePrices(ctx context.Context, runID string) {
	p.log.Infof("run %s: updating prices", runID)
	started := time.Now()
	err := p.prices.Update(ctx)
	ok := err == nil
	if err != nil {
		if !errors.Is(err, prices.ErrDatasetUnavailable) {
			p.log.Errorf("run %s: unexpected price update failure: %v", runID, err)
		} else {
			p.log.Errorf("run %s: %v", runID, err)
		}
	}
	if err := p.sink.RecordPriceUpdate(metrics.PriceUpdate{OK: ok, Duration: time.Since(started)}); err != nil {
		p.log.Warnf("run %s: metrics: %v", runID, err)
	}
}

func (p *Planner) deadlinePassed(dayStart time.Time) bool {
	return !p.now().Before(dayStart.Add(-p.deadline))
}

func (p *Planner) record(run metrics.PlanningRun) {
	if err := p.sink.RecordPlanningRun(run); err != nil {
		p.log.Warnf("run %s: metrics: %v", run.RunID, err)
	}
}
