package model

import (
	"errors"
	"time"
)

// State is the switch position of a device.
type State string

const (
	StateOff State = "off"
	StateOn  State = "on"
)

// PlanKind tells how a plan was computed.
type PlanKind string

const (
	// PlanOptimal marks a plan computed from published prices.
	PlanOptimal PlanKind = "optimal"
	// PlanFallback marks a plan computed without price data.
	PlanFallback PlanKind = "fallback"
)

// Event is a single state change at an absolute point in time.
type Event struct {
	Time  time.Time `json:"time"`
	State State     `json:"state"`
}

// Plan is the immutable schedule of one device for one calendar day.
// Events are ordered strictly ascending in time.
type Plan struct {
	Info   PlanKind `json:"info"`
	Events []Event  `json:"events"`
}

// StateAt resolves the device state at t: the state of the latest event at or
// before t, or StateOff if t precedes all events.
func (p Plan) StateAt(t time.Time) State {
	state := StateOff
	for _, e := range p.Events {
		if e.Time.After(t) {
			break
		}
		state = e.State
	}
	return state
}

// Validate checks the plan invariants before it is persisted.
func (p Plan) Validate() error {
	if p.Info != PlanOptimal && p.Info != PlanFallback {
		return errors.New("plan info must be optimal or fallback")
	}
	if len(p.Events) == 0 {
		return errors.New("plan must contain at least one event")
	}
	for i, e := range p.Events {
		if e.State != StateOn && e.State != StateOff {
			return errors.New("event state must be on or off")
		}
		if i > 0 && !p.Events[i-1].Time.Before(e.Time) {
			return errors.New("event times must be strictly increasing")
		}
	}
	return nil
}
