package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/voltplan/voltplan/core/logger"
)

// StatOp selects the aggregation of a statistical price query.
type StatOp string

const (
	OpMean StatOp = "mean"
	OpMin  StatOp = "min"
	OpMax  StatOp = "max"
)

// Syncer mirrors the remote versioned dataset into a local directory.
type Syncer interface {
	Clone(ctx context.Context, url, dir string) error
	Pull(ctx context.Context, dir string) error
}

// Config defines where the raw dataset lives and how it is fetched.
type Config struct {
	Source              string `json:"source"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds"`
}

// Store answers price queries from the on-disk dataset tree it owns.
type Store struct {
	dir       string
	dataDir   string
	source    string
	timeout   time.Duration
	transform Transform
	sync      Syncer
	log       logger.Logger
}

// NewStore creates a Store rooted at <storageDir>/prices. A nil transform
// defaults to Identity.
func NewStore(storageDir string, cfg Config, sync Syncer, transform Transform, log logger.Logger) *Store {
	if transform == nil {
		transform = Identity
	}
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dir := filepath.Join(storageDir, "prices")
	return &Store{
		dir:       dir,
		dataDir:   filepath.Join(dir, "data"),
		source:    cfg.Source,
		timeout:   timeout,
		transform: transform,
		sync:      sync,
		log:       log,
	}
}

// Update mirrors the remote dataset: a full clone when no local copy exists,
// an incremental pull otherwise. Failures surface as ErrDatasetUnavailable.
func (s *Store) Update(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		s.log.Infof("cloning price dataset from %s", s.source)
		if err := s.sync.Clone(ctx, s.source, s.dir); err != nil {
			return fmt.Errorf("%w: clone %s: %v", ErrDatasetUnavailable, s.source, err)
		}
		return nil
	}
	if err := s.sync.Pull(ctx, s.dir); err != nil {
		return fmt.Errorf("%w: pull: %v", ErrDatasetUnavailable, err)
	}
	return nil
}

// HourlyPrices returns the ordered price series of the day starting at
// dayStart, or (nil, nil) while the day is not yet published.
func (s *Store) HourlyPrices(dayStart time.Time) ([]float64, error) {
	ivs, err := s.readDay(dayStart)
	if err != nil {
		return nil, err
	}
	if len(ivs) == 0 {
		return nil, nil
	}
	out := make([]float64, len(ivs))
	for i, iv := range ivs {
		out[i] = iv.price
	}
	return out, nil
}

// PriceAt returns the price of the interval containing t.
func (s *Store) PriceAt(t time.Time) (float64, error) {
	ivs, err := s.readDay(t)
	if err != nil {
		return 0, err
	}
	for _, iv := range ivs {
		if !t.Before(iv.start) && t.Before(iv.end) {
			return iv.price, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTimestampNotCovered, t.Format(time.RFC3339))
}

// PricesInRange collects all prices whose interval starts in [start, end),
// in chronological order. Absent days contribute nothing.
func (s *Store) PricesInRange(start, end time.Time) ([]float64, error) {
	var out []float64
	for t := start; !t.After(end); t = t.Add(24 * time.Hour) {
		ivs, err := s.readDay(t)
		if err != nil {
			return nil, err
		}
		for _, iv := range ivs {
			if !iv.start.Before(start) && iv.start.Before(end) {
				out = append(out, iv.price)
			}
		}
	}
	return out, nil
}

// StatisticalPrice aggregates the prices of the past days*24h before t.
func (s *Store) StatisticalPrice(t time.Time, op StatOp, days int) (float64, error) {
	start := t.Add(-time.Duration(days) * 24 * time.Hour)
	values, err := s.PricesInRange(start, t)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: %s over %d days before %s", ErrEmptyRange, op, days, t.Format(time.RFC3339))
	}
	switch op {
	case OpMean:
		return stat.Mean(values, nil), nil
	case OpMin:
		return floats.Min(values), nil
	case OpMax:
		return floats.Max(values), nil
	default:
		return 0, fmt.Errorf("unknown operation: %s", op)
	}
}

// interval is one converted price entry, half-open [start, end).
type interval struct {
	start time.Time
	end   time.Time
	price float64
}

type rawEntry struct {
	StartTimestamp int64       `json:"start_timestamp"`
	EndTimestamp   int64       `json:"end_timestamp"`
	MarketPrice    marketPrice `json:"marketprice"`
}

type rawFile struct {
	Data []rawEntry `json:"data"`
}

// marketPrice accepts both JSON numbers and decimal strings, as the published
// dataset mixes the two.
type marketPrice float64

func (m *marketPrice) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("marketprice %q: %w", s, err)
	}
	*m = marketPrice(v)
	return nil
}

// readDay loads and converts the day file covering t. A missing file reads as
// an empty day.
func (s *Store) readDay(t time.Time) ([]interval, error) {
	file := dayFile(s.dataDir, t)
	b, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var raw rawFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	ivs := make([]interval, 0, len(raw.Data))
	for _, e := range raw.Data {
		// Raw marketprice is currency/MWh, queries answer in currency/kWh.
		perKWh := float64(e.MarketPrice) / 10
		ivs = append(ivs, interval{
			start: time.UnixMilli(e.StartTimestamp),
			end:   time.UnixMilli(e.EndTimestamp),
			price: s.transform(perKWh),
		})
	}
	return ivs, nil
}

// dayFile maps t to <dir>/YYYY/MM/DD.json in t's own location.
func dayFile(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}
