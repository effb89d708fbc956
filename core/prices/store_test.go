package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/infra/logger"
)

func newTestStore(t *testing.T, transform Transform) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewStore(dir, Config{Source: "unused"}, nil, transform, logger.NopLogger{})
	return s, filepath.Join(dir, "prices", "data")
}

// writeDay writes a raw day file with one interval per given marketprice
// (currency/MWh), starting at dayStart.
func writeDay(t *testing.T, dataDir string, dayStart time.Time, marketPrices []float64) {
	t.Helper()
	type entry struct {
		StartTimestamp int64   `json:"start_timestamp"`
		EndTimestamp   int64   `json:"end_timestamp"`
		MarketPrice    float64 `json:"marketprice"`
	}
	var entries []entry
	for i, p := range marketPrices {
		start := dayStart.Add(time.Duration(i) * time.Hour)
		entries = append(entries, entry{
			StartTimestamp: start.UnixMilli(),
			EndTimestamp:   start.Add(time.Hour).UnixMilli(),
			MarketPrice:    p,
		})
	}
	b, err := json.Marshal(map[string]any{"data": entries})
	require.NoError(t, err)
	file := dayFile(dataDir, dayStart)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, b, 0o644))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHourlyPricesUnitConversion(t *testing.T) {
	s, data := newTestStore(t, nil)
	writeDay(t, data, day(2026, 8, 31), []float64{100, 250})

	got, err := s.HourlyPrices(day(2026, 8, 31))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 25}, got)
}

func TestHourlyPricesTransform(t *testing.T) {
	s, data := newTestStore(t, Affine(1.5, 1.2))
	writeDay(t, data, day(2026, 8, 31), []float64{100})

	got, err := s.HourlyPrices(day(2026, 8, 31))
	require.NoError(t, err)
	assert.InDelta(t, 13.8, got[0], 1e-9)
}

func TestHourlyPricesUnpublished(t *testing.T) {
	s, data := newTestStore(t, nil)

	got, err := s.HourlyPrices(day(2026, 8, 31))
	require.NoError(t, err)
	assert.Nil(t, got)

	// An empty day file is unpublished too.
	file := dayFile(data, day(2026, 9, 1))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(`{"data":[]}`), 0o644))
	got, err = s.HourlyPrices(day(2026, 9, 1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHourlyPricesDecimalString(t *testing.T) {
	s, data := newTestStore(t, nil)
	file := dayFile(data, day(2026, 8, 31))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	start := day(2026, 8, 31)
	raw := fmt.Sprintf(`{"data":[{"start_timestamp":%d,"end_timestamp":%d,"marketprice":"83.95"}]}`,
		start.UnixMilli(), start.Add(time.Hour).UnixMilli())
	require.NoError(t, os.WriteFile(file, []byte(raw), 0o644))

	got, err := s.HourlyPrices(start)
	require.NoError(t, err)
	assert.InDelta(t, 8.395, got[0], 1e-9)
}

func TestPriceAt(t *testing.T) {
	s, data := newTestStore(t, nil)
	dayStart := day(2026, 8, 31)
	writeDay(t, data, dayStart, []float64{100, 200})

	v, err := s.PriceAt(dayStart.Add(30 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	// Interval ends are exclusive.
	v, err = s.PriceAt(dayStart.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, err = s.PriceAt(dayStart.Add(5 * time.Hour))
	assert.ErrorIs(t, err, ErrTimestampNotCovered)

	_, err = s.PriceAt(day(2026, 9, 5))
	assert.ErrorIs(t, err, ErrTimestampNotCovered)
}

func TestPricesInRangeAcrossDays(t *testing.T) {
	s, data := newTestStore(t, nil)
	d1 := day(2026, 8, 30)
	d2 := day(2026, 8, 31)
	writeDay(t, data, d1, []float64{100, 200})
	writeDay(t, data, d2, []float64{300})

	got, err := s.PricesInRange(d1.Add(time.Hour), d2.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30}, got)

	got, err = s.PricesInRange(day(2026, 7, 1), day(2026, 7, 2))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStatisticalPrice(t *testing.T) {
	s, data := newTestStore(t, nil)
	dayStart := day(2026, 8, 31)
	writeDay(t, data, dayStart, []float64{100, 200, 300})
	at := dayStart.Add(3 * time.Hour)

	mean, err := s.StatisticalPrice(at, OpMean, 1)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, mean, 1e-9)

	min, err := s.StatisticalPrice(at, OpMin, 1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, min)

	max, err := s.StatisticalPrice(at, OpMax, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, max)

	_, err = s.StatisticalPrice(day(2026, 7, 1), OpMean, 1)
	assert.ErrorIs(t, err, ErrEmptyRange)

	_, err = s.StatisticalPrice(at, StatOp("median"), 1)
	assert.Error(t, err)
}

type fakeSyncer struct {
	cloned  []string
	pulled  []string
	failing bool
}

func (f *fakeSyncer) Clone(_ context.Context, url, dir string) error {
	if f.failing {
		return errors.New("remote unreachable")
	}
	f.cloned = append(f.cloned, dir)
	return os.MkdirAll(dir, 0o755)
}

func (f *fakeSyncer) Pull(_ context.Context, dir string) error {
	if f.failing {
		return errors.New("remote unreachable")
	}
	f.pulled = append(f.pulled, dir)
	return nil
}

func TestUpdateClonesThenPulls(t *testing.T) {
	dir := t.TempDir()
	sync := &fakeSyncer{}
	s := NewStore(dir, Config{Source: "https://example.com/prices.git"}, sync, nil, logger.NopLogger{})

	require.NoError(t, s.Update(context.Background()))
	assert.Len(t, sync.cloned, 1)
	assert.Empty(t, sync.pulled)

	require.NoError(t, s.Update(context.Background()))
	assert.Len(t, sync.cloned, 1)
	assert.Len(t, sync.pulled, 1)
}

func TestUpdateFailureIsDatasetUnavailable(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, Config{Source: "https://example.com/prices.git"}, &fakeSyncer{failing: true}, nil, logger.NopLogger{})

	err := s.Update(context.Background())
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}
