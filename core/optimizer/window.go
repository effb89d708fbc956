package optimizer

import (
	"fmt"
	"math"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// WindowMinimizer turns a device on for one contiguous window of hours,
// choosing the window with the lowest weighted price sum. The weights are
// non-increasing: the first hour matters most since the device draws most
// power right after switching on.
type WindowMinimizer struct {
	Weights      []float64
	FallbackHour int
}

// NewWindowMinimizer returns the reference configuration: a 3 hour window
// weighted [1.0, 0.7, 0.4] and a 12:00 fallback start.
func NewWindowMinimizer() WindowMinimizer {
	return WindowMinimizer{Weights: []float64{1.0, 0.7, 0.4}, FallbackHour: 12}
}

// Plan selects the cheapest window of the day, or a fixed fallback schedule
// when no prices are available. Ties resolve to the earliest window.
func (w WindowMinimizer) Plan(dayStart time.Time, prices []float64) (model.Plan, error) {
	if prices == nil {
		return w.fallback(dayStart), nil
	}
	window := len(w.Weights)
	if len(prices) < window {
		return model.Plan{}, fmt.Errorf("%w: %d hours, window needs %d", ErrSeriesTooShort, len(prices), window)
	}
	bestCost := math.Inf(1)
	bestStart := 0
	for start := 0; start+window <= len(prices); start++ {
		cost := 0.0
		for i, weight := range w.Weights {
			cost += weight * prices[start+i]
		}
		if cost < bestCost {
			bestCost = cost
			bestStart = start
		}
	}
	return model.Plan{Info: model.PlanOptimal, Events: []model.Event{
		{Time: dayStart.Add(time.Duration(bestStart) * time.Hour), State: model.StateOn},
		{Time: dayStart.Add(time.Duration(bestStart+window) * time.Hour), State: model.StateOff},
	}}, nil
}

func (w WindowMinimizer) fallback(dayStart time.Time) model.Plan {
	y, m, d := dayStart.Date()
	on := time.Date(y, m, d, w.FallbackHour, 0, 0, 0, dayStart.Location())
	off := on.Add(time.Duration(len(w.Weights)) * time.Hour)
	return model.Plan{Info: model.PlanFallback, Events: []model.Event{
		{Time: on, State: model.StateOn},
		{Time: off, State: model.StateOff},
	}}
}

func init() {
	_ = Register("boiler", func(conf map[string]any) (Optimizer, error) {
		var c struct {
			Weights      []float64 `json:"weights"`
			FallbackHour *int      `json:"fallback_hour"`
		}
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		w := NewWindowMinimizer()
		if len(c.Weights) > 0 {
			for i := 1; i < len(c.Weights); i++ {
				if c.Weights[i] > c.Weights[i-1] {
					return nil, fmt.Errorf("weights must be non-increasing, got %v", c.Weights)
				}
			}
			w.Weights = c.Weights
		}
		if c.FallbackHour != nil {
			if *c.FallbackHour < 0 || *c.FallbackHour > 23 {
				return nil, fmt.Errorf("fallback_hour out of range: %d", *c.FallbackHour)
			}
			w.FallbackHour = *c.FallbackHour
		}
		return w, nil
	})
}
