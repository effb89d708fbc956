package metrics

import (
	"errors"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

// MultiSink fans planner events out to several sinks. Every sink is invoked;
// errors are joined.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink from the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordPlanningRun(run coremetrics.PlanningRun) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPlanningRun(run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPlanWritten(pw coremetrics.PlanWritten) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPlanWritten(pw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPriceUpdate(up coremetrics.PriceUpdate) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPriceUpdate(up); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
