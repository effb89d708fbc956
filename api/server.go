// Package api exposes the read-only planner data over HTTP: configured
// devices, stored plans and published hourly prices. It never writes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/planner"
	"github.com/voltplan/voltplan/core/planstore"
	"github.com/voltplan/voltplan/core/prices"
)

// Server serves the planner API.
type Server struct {
	devices []planner.Device
	plans   *planstore.Store
	prices  *prices.Store
	tz      *time.Location
	log     logger.Logger
}

// NewServer creates a Server reading from the given stores.
func NewServer(devices []planner.Device, plans *planstore.Store, priceStore *prices.Store, tz *time.Location, log logger.Logger) *Server {
	return &Server{devices: devices, plans: plans, prices: priceStore, tz: tz, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/plans/{device}/{date}", s.handlePlan)
	mux.HandleFunc("GET /api/prices/{date}", s.handlePrices)
	return mux
}

type deviceJSON struct {
	Name       string `json:"name"`
	PrettyName string `json:"pretty_name"`
	Type       string `json:"type"`
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	out := make([]deviceJSON, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, deviceJSON{Name: d.Name, PrettyName: d.PrettyName, Type: d.Type})
	}
	s.writeJSON(w, out)
}

// handlePlan returns the stored plan of a device for a date, or null if no
// plan exists.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	day, err := s.dayStart(r.PathValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	plan, err := s.plans.Read(r.PathValue("device"), day)
	if errors.Is(err, planstore.ErrPlanNotFound) {
		s.writeJSON(w, nil)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, plan)
}

type pricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// handlePrices returns the hourly prices of a date, or null while the day is
// unpublished.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	day, err := s.dayStart(r.PathValue("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values, err := s.prices.HourlyPrices(day)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if values == nil {
		s.writeJSON(w, nil)
		return
	}
	points := make([]pricePoint, len(values))
	for i, p := range values {
		points[i] = pricePoint{Time: day.Add(time.Duration(i) * time.Hour), Price: p}
	}
	s.writeJSON(w, points)
}

func (s *Server) dayStart(date string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, s.tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	return t, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}
