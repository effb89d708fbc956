// Package config loads the process configuration from a YAML or JSON file
// with optional environment overrides. The resulting struct is built once at
// startup and passed into each component; core logic never reads ambient
// state.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/optimizer"
	"github.com/voltplan/voltplan/core/planner"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/infra/mqtt"
)

// DeviceConfig binds one device to an optimizer type and its parameters.
type DeviceConfig struct {
	Name       string         `json:"name"`
	PrettyName string         `json:"pretty_name"`
	Type       string         `json:"type"`
	Conf       map[string]any `json:"conf"`
}

// TransformConfig describes the affine tariff adjustment applied to raw
// prices: (price + offset) * factor.
type TransformConfig struct {
	Offset float64 `json:"offset"`
	Factor float64 `json:"factor"`
}

// PricesConfig configures the price dataset source and adjustment.
type PricesConfig struct {
	Source              string           `json:"source"`
	FetchTimeoutSeconds int              `json:"fetch_timeout_seconds"`
	Transform           *TransformConfig `json:"transform"`
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Listen string `json:"listen"`
}

// Config is the full process configuration.
type Config struct {
	StorageDir      string         `json:"storage_dir"`
	Timezone        string         `json:"timezone"`
	DeadlineSeconds int            `json:"deadline_seconds"`
	Prices          PricesConfig   `json:"prices"`
	Devices         []DeviceConfig `json:"devices"`
	MQTT            mqtt.Config    `json:"mqtt"`
	Metrics         metrics.Config `json:"metrics"`
	API             APIConfig      `json:"api"`
}

// Load reads the configuration file, applies VP_ environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("VP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "vp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields with sensible values.
func (c *Config) SetDefaults() {
	if c.StorageDir == "" {
		c.StorageDir = "data"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Vienna"
	}
	if c.DeadlineSeconds == 0 {
		c.DeadlineSeconds = 2 * 3600
	}
	if c.Prices.FetchTimeoutSeconds == 0 {
		c.Prices.FetchTimeoutSeconds = 30
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8080"
	}
	if c.Metrics.PrometheusPort == "" {
		c.Metrics.PrometheusPort = "9090"
	}
	for i := range c.Devices {
		if c.Devices[i].PrettyName == "" {
			c.Devices[i].PrettyName = c.Devices[i].Name
		}
	}
}

// Validate rejects configurations the planner cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.DeadlineSeconds < 0 {
		return fmt.Errorf("deadline_seconds must not be negative")
	}
	if c.Prices.Transform != nil && c.Prices.Transform.Factor == 0 {
		return fmt.Errorf("prices.transform.factor must not be zero")
	}
	seen := map[string]bool{}
	for _, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("device name must not be empty")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate device name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Type == "" {
			return fmt.Errorf("device %s: type must not be empty", d.Name)
		}
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Deadline returns the fallback deadline as a duration.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.DeadlineSeconds) * time.Second
}

// Transform builds the configured price transform, Identity when unset.
func (c *Config) Transform() prices.Transform {
	if c.Prices.Transform == nil {
		return prices.Identity
	}
	return prices.Affine(c.Prices.Transform.Offset, c.Prices.Transform.Factor)
}

// BuildDevices instantiates the configured devices with their optimizers.
func (c *Config) BuildDevices() ([]planner.Device, error) {
	devices := make([]planner.Device, 0, len(c.Devices))
	for _, d := range c.Devices {
		opt, err := optimizer.New(d.Type, d.Conf)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.Name, err)
		}
		devices = append(devices, planner.Device{
			Name:       d.Name,
			PrettyName: d.PrettyName,
			Type:       d.Type,
			Optimizer:  opt,
		})
	}
	return devices, nil
}
