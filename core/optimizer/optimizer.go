// Package optimizer holds the per-device planning strategies. Strategies are
// registered by type name and instantiated from configuration, so new device
// types plug in without touching the planner.
package optimizer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/voltplan/voltplan/core/model"
)

// ErrSeriesTooShort indicates the day's price series has fewer hours than the
// planning window. This is a data-shape regression upstream and must not be
// silently skipped.
var ErrSeriesTooShort = errors.New("price series shorter than planning window")

// Optimizer plans one device's schedule for the day starting at dayStart.
// A nil price series requests a fallback plan.
type Optimizer interface {
	Plan(dayStart time.Time, prices []float64) (model.Plan, error)
}

// Factory builds an optimizer from its raw configuration map.
type Factory func(conf map[string]any) (Optimizer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a factory for the given device type name.
func Register(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("factory nil for %s", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := factories[name]; ok {
		return fmt.Errorf("factory already registered for %s", name)
	}
	factories[name] = f
	return nil
}

// New instantiates the optimizer registered under the device type name.
func New(typ string, conf map[string]any) (Optimizer, error) {
	mu.RLock()
	f, ok := factories[typ]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown device type %s", typ)
	}
	return f(conf)
}

// Decode fills out the provided struct from a raw config map using json tags.
func Decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(conf)
}
