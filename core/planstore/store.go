// Package planstore persists device plans as one immutable JSON file per
// device and calendar day.
package planstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// ErrPlanNotFound indicates no plan file exists for the requested device/day.
var ErrPlanNotFound = errors.New("plan not found")

// Store owns the on-disk plan tree below <storageDir>/plans.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at <storageDir>/plans.
func NewStore(storageDir string) *Store {
	return &Store{dir: filepath.Join(storageDir, "plans")}
}

// Exists reports whether a plan file is present for the device on day's date.
func (s *Store) Exists(device string, day time.Time) bool {
	info, err := os.Stat(s.planFile(device, day))
	return err == nil && !info.IsDir()
}

// Save validates and writes the plan. The write goes through a temp file and
// rename so readers never observe a partial file. Callers must not save over
// an existing plan; plans are immutable once persisted.
func (s *Store) Save(device string, day time.Time, plan model.Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("plan for %s: %w", device, err)
	}
	file := s.planFile(device, day)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	b, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	if err := os.Rename(tmp, file); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// Read loads the plan of the device for day's date.
func (s *Store) Read(device string, day time.Time) (model.Plan, error) {
	file := s.planFile(device, day)
	b, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Plan{}, fmt.Errorf("%w: %s on %s", ErrPlanNotFound, device, day.Format("2006-01-02"))
	}
	if err != nil {
		return model.Plan{}, fmt.Errorf("read %s: %w", file, err)
	}
	var plan model.Plan
	if err := json.Unmarshal(b, &plan); err != nil {
		return model.Plan{}, fmt.Errorf("parse %s: %w", file, err)
	}
	return plan, nil
}

// StateAt resolves the device state at t from the plan of t's calendar day.
func (s *Store) StateAt(device string, t time.Time) (model.State, error) {
	plan, err := s.Read(device, t)
	if err != nil {
		return "", err
	}
	return plan.StateAt(t), nil
}

// InfoAt returns how the plan covering t was computed.
func (s *Store) InfoAt(device string, t time.Time) (model.PlanKind, error) {
	plan, err := s.Read(device, t)
	if err != nil {
		return "", err
	}
	return plan.Info, nil
}

func (s *Store) planFile(device string, day time.Time) string {
	return filepath.Join(s.dir, device, day.Format("2006"), day.Format("01"), day.Format("02")+".json")
}
