package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/optimizer"
)

const sampleYAML = `
storage_dir: /var/lib/voltplan
timezone: Europe/Vienna
deadline_seconds: 7200
prices:
  source: https://example.com/prices.git
  transform:
    offset: 1.5
    factor: 1.2
devices:
  - name: boiler
    pretty_name: Boiler
    type: boiler
  - name: boiler2
    type: boiler
    conf:
      fallback_hour: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/voltplan", cfg.StorageDir)
	assert.Equal(t, 7200, cfg.DeadlineSeconds)
	assert.Equal(t, "https://example.com/prices.git", cfg.Prices.Source)
	require.Len(t, cfg.Devices, 2)
	// Pretty name defaults to the device name.
	assert.Equal(t, "boiler2", cfg.Devices[1].PrettyName)

	transform := cfg.Transform()
	assert.InDelta(t, 13.8, transform(10), 1e-9)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "devices: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.StorageDir)
	assert.Equal(t, "Europe/Vienna", cfg.Timezone)
	assert.Equal(t, 7200, cfg.DeadlineSeconds)
	assert.Equal(t, ":8080", cfg.API.Listen)
	assert.Equal(t, 30, cfg.Prices.FetchTimeoutSeconds)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"duplicate device", "devices:\n  - name: a\n    type: boiler\n  - name: a\n    type: boiler\n"},
		{"missing type", "devices:\n  - name: a\n"},
		{"zero factor", "prices:\n  transform:\n    offset: 1\n"},
	}
	for _, c := range cases {
		_, err := Load(writeConfig(t, c.content))
		assert.Error(t, err, c.name)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VP_STORAGE_DIR", "/tmp/override")
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.StorageDir)
}

func TestBuildDevices(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	devices, err := cfg.BuildDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	w, ok := devices[1].Optimizer.(optimizer.WindowMinimizer)
	require.True(t, ok)
	assert.Equal(t, 10, w.FallbackHour)
}

func TestBuildDevicesUnknownType(t *testing.T) {
	cfg := &Config{Devices: []DeviceConfig{{Name: "x", Type: "teleporter"}}}
	_, err := cfg.BuildDevices()
	assert.Error(t, err)
}
