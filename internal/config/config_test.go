package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Broker.BaseURL = "http://broker:1026"
	return cfg
}

func TestValidateAcceptsDefaultsWithBroker(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"missing broker url", func(c *Config) { c.Broker.BaseURL = "" }, "broker.base_url"},
		{"missing create path", func(c *Config) { c.Broker.CreatePath = "" }, "create/update paths"},
		{"bad dispatch mode", func(c *Config) { c.Dispatch.Mode = "parallel" }, "dispatch.mode"},
		{"zero workers", func(c *Config) { c.Dispatch.Workers = 0 }, "dispatch.workers"},
		{"zero timeout", func(c *Config) { c.Dispatch.Timeout = 0 }, "dispatch.timeout"},
		{"weight out of range", func(c *Config) { c.Detectors.SuddenStop.Weight = 1.5 }, "sudden_stop.weight"},
		{"unordered severity cuts", func(c *Config) { c.Severity.Moderate = 0.9 }, "severity cut points"},
		{"min confidence out of range", func(c *Config) { c.Filters.MinConfidence = 2 }, "min_confidence"},
		{"bad congestion logic", func(c *Config) { c.Congestion.Logic = "xor" }, "congestion.logic"},
		{"missing congestion attribute", func(c *Config) { c.Congestion.Attribute = "" }, "congestion.attribute"},
		{"missing state path", func(c *Config) { c.Paths.State = "" }, "paths.state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadLayersYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
broker:
  base_url: http://broker:1026
dispatch:
  mode: sequential
filters:
  cooldown: 15m
detectors:
  speed_variance:
    threshold: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://broker:1026", cfg.Broker.BaseURL)
	assert.Equal(t, "sequential", cfg.Dispatch.Mode)
	assert.Equal(t, 15*time.Minute, cfg.Filters.Cooldown)
	assert.Equal(t, 0.4, cfg.Detectors.SpeedVariance.Threshold)

	// Untouched keys keep their defaults.
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "/ngsi-ld/v1/entities", cfg.Broker.CreatePath)
	assert.True(t, cfg.Detectors.OccupancySpike.Enabled)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
broker:
  base_url: http://from-file:1026
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("TRAFFICPULSE_BROKER__BASE_URL", "http://from-env:1026")
	t.Setenv("TRAFFICPULSE_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:1026", cfg.Broker.BaseURL)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	// No file and no env leaves broker.base_url empty.
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker.base_url")
}
