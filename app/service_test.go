package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		StorageDir: t.TempDir(),
		Devices: []config.DeviceConfig{
			{Name: "boiler", Type: "boiler"},
		},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewPlanner(t *testing.T) {
	pl, err := NewPlanner(testConfig(t))
	require.NoError(t, err)
	require.Len(t, pl.Devices(), 1)
	assert.Equal(t, "boiler", pl.Devices()[0].Name)
}

func TestNewFacade(t *testing.T) {
	f, err := NewFacade(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, f.Prices)
	assert.NotNil(t, f.Plans)
}

func TestNewAPIServer(t *testing.T) {
	srv, err := NewAPIServer(testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, ":8080", srv.Addr)
}

func TestNextHour(t *testing.T) {
	at := time.Date(2026, 8, 31, 13, 44, 10, 0, time.UTC)
	assert.True(t, nextHour(at).Equal(time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)))
}
