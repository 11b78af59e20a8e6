package config

import (
	"fmt"
	"time"
)

// Config is the full engine configuration, consumed read-only by every
// component. Values are layered: defaults, then an optional YAML file, then
// TRAFFICPULSE_-prefixed environment variables.
type Config struct {
	// Application
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	InstanceID  string `koanf:"instance_id"`
	Port        int    `koanf:"port"`
	LogLevel    string `koanf:"log_level"`

	Broker     BrokerConfig     `koanf:"broker"`
	Detectors  DetectorsConfig  `koanf:"detectors"`
	Severity   SeverityConfig   `koanf:"severity"`
	Filters    FiltersConfig    `koanf:"filters"`
	Dispatch   DispatchConfig   `koanf:"dispatch"`
	Congestion CongestionConfig `koanf:"congestion"`
	Alerts     AlertsConfig     `koanf:"alerts"`
	Nats       NatsConfig       `koanf:"nats"`
	Paths      PathsConfig      `koanf:"paths"`

	// Graceful Shutdown
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BrokerConfig addresses the NGSI-LD context broker.
type BrokerConfig struct {
	BaseURL string `koanf:"base_url"`
	// CreatePath receives full incident entities via POST.
	CreatePath string `koanf:"create_path"`
	// UpdatePathTemplate is expanded with the entity id for attribute PATCHes.
	UpdatePathTemplate string `koanf:"update_path_template"`
}

// DetectorsConfig carries per-method thresholds, enables and weights.
// Weights need not sum to 1; normalization happens at aggregation time.
type DetectorsConfig struct {
	SpeedVariance  SpeedVarianceConfig  `koanf:"speed_variance"`
	OccupancySpike OccupancySpikeConfig `koanf:"occupancy_spike"`
	SuddenStop     SuddenStopConfig     `koanf:"sudden_stop"`
	PatternAnomaly PatternAnomalyConfig `koanf:"pattern_anomaly"`
}

type SpeedVarianceConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Weight     float64 `koanf:"weight"`
	WindowSize int     `koanf:"window_size"`
	// Threshold is the coefficient-of-variation cutoff.
	Threshold float64 `koanf:"threshold"`
}

type OccupancySpikeConfig struct {
	Enabled bool    `koanf:"enabled"`
	Weight  float64 `koanf:"weight"`
	// BaselineWindow is how many trailing samples (excluding the latest)
	// form the baseline mean.
	BaselineWindow int     `koanf:"baseline_window"`
	SpikeFactor    float64 `koanf:"spike_factor"`
}

type SuddenStopConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Weight          float64       `koanf:"weight"`
	MinInitialSpeed float64       `koanf:"min_initial_speed"`
	DropFraction    float64       `koanf:"drop_fraction"`
	TimeWindow      time.Duration `koanf:"time_window"`
}

type PatternAnomalyConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Weight     float64 `koanf:"weight"`
	WindowSize int     `koanf:"window_size"`
	ZThreshold float64 `koanf:"z_threshold"`
}

// SeverityConfig holds the ordered confidence cut points.
type SeverityConfig struct {
	Minor    float64 `koanf:"minor"`
	Moderate float64 `koanf:"moderate"`
	Severe   float64 `koanf:"severe"`
}

// FiltersConfig holds the false-positive suppression policy.
type FiltersConfig struct {
	MinConfidence float64       `koanf:"min_confidence"`
	Cooldown      time.Duration `koanf:"cooldown"`
}

// DispatchConfig controls how broker calls are issued.
type DispatchConfig struct {
	// Mode is "sequential" or "concurrent".
	Mode    string        `koanf:"mode"`
	Workers int           `koanf:"workers"`
	Timeout time.Duration `koanf:"timeout"`
}

// CongestionConfig configures the single-rule congestion evaluator. A nil
// threshold disables that condition.
type CongestionConfig struct {
	// Logic is "and" or "or" over the enabled conditions.
	Logic          string        `koanf:"logic"`
	OccupancyAbove *float64      `koanf:"occupancy_above"`
	SpeedBelow     *float64      `koanf:"speed_below"`
	IntensityAbove *float64      `koanf:"intensity_above"`
	MinDuration    time.Duration `koanf:"min_duration"`
	// Attribute is the boolean attribute patched on the Camera entity.
	Attribute string `koanf:"attribute"`
}

// AlertsConfig controls the alerter side effects.
type AlertsConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MinSeverity string `koanf:"min_severity"`
	File        string `koanf:"file"`
	Subject     string `koanf:"subject"`
}

// NatsConfig configures the optional alert fan-out bus.
type NatsConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	MaxReconnects  int           `koanf:"max_reconnects"`
}

// PathsConfig locates the engine's durable files.
type PathsConfig struct {
	State   string `koanf:"state"`
	Results string `koanf:"results"`
}

// Defaults returns the baseline configuration before file/env layering.
func Defaults() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		InstanceID:  "trafficpulse-1",
		Port:        8000,
		LogLevel:    "info",
		Broker: BrokerConfig{
			CreatePath:         "/ngsi-ld/v1/entities",
			UpdatePathTemplate: "/ngsi-ld/v1/entities/%s/attrs",
		},
		Detectors: DetectorsConfig{
			SpeedVariance: SpeedVarianceConfig{
				Enabled:    true,
				Weight:     1.0,
				WindowSize: 5,
				Threshold:  0.5,
			},
			OccupancySpike: OccupancySpikeConfig{
				Enabled:        true,
				Weight:         0.8,
				BaselineWindow: 5,
				SpikeFactor:    2.0,
			},
			SuddenStop: SuddenStopConfig{
				Enabled:         true,
				Weight:          0.9,
				MinInitialSpeed: 30,
				DropFraction:    0.6,
				TimeWindow:      10 * time.Minute,
			},
			PatternAnomaly: PatternAnomalyConfig{
				Enabled:    true,
				Weight:     0.5,
				WindowSize: 8,
				ZThreshold: 2.5,
			},
		},
		Severity: SeverityConfig{
			Minor:    0.3,
			Moderate: 0.55,
			Severe:   0.8,
		},
		Filters: FiltersConfig{
			MinConfidence: 0.3,
			Cooldown:      10 * time.Minute,
		},
		Dispatch: DispatchConfig{
			Mode:    "concurrent",
			Workers: 4,
			Timeout: 10 * time.Second,
		},
		Congestion: CongestionConfig{
			Logic:       "and",
			MinDuration: 5 * time.Minute,
			Attribute:   "congested",
		},
		Alerts: AlertsConfig{
			Enabled:     true,
			MinSeverity: "moderate",
			File:        "data/alerts.json",
			Subject:     "trafficpulse.alerts",
		},
		Nats: NatsConfig{
			Enabled:        false,
			URL:            "nats://localhost:4222",
			ConnectTimeout: 10 * time.Second,
			ReconnectWait:  2 * time.Second,
			MaxReconnects:  -1,
		},
		Paths: PathsConfig{
			State:   "data/camera_state.json",
			Results: "data/results.json",
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate enforces the fatal-at-startup configuration invariants.
func (c *Config) Validate() error {
	if c.Broker.BaseURL == "" {
		return fmt.Errorf("broker.base_url is required")
	}
	if c.Broker.CreatePath == "" || c.Broker.UpdatePathTemplate == "" {
		return fmt.Errorf("broker create/update paths are required")
	}
	switch c.Dispatch.Mode {
	case "sequential", "concurrent":
	default:
		return fmt.Errorf("dispatch.mode must be sequential or concurrent, got %q", c.Dispatch.Mode)
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch.workers must be at least 1")
	}
	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("dispatch.timeout must be positive")
	}
	for name, w := range map[string]float64{
		"speed_variance":  c.Detectors.SpeedVariance.Weight,
		"occupancy_spike": c.Detectors.OccupancySpike.Weight,
		"sudden_stop":     c.Detectors.SuddenStop.Weight,
		"pattern_anomaly": c.Detectors.PatternAnomaly.Weight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("detectors.%s.weight must be within [0,1], got %v", name, w)
		}
	}
	if c.Severity.Minor > c.Severity.Moderate || c.Severity.Moderate > c.Severity.Severe {
		return fmt.Errorf("severity cut points must be ordered minor <= moderate <= severe")
	}
	if c.Filters.MinConfidence < 0 || c.Filters.MinConfidence > 1 {
		return fmt.Errorf("filters.min_confidence must be within [0,1]")
	}
	switch c.Congestion.Logic {
	case "and", "or":
	default:
		return fmt.Errorf("congestion.logic must be and or or, got %q", c.Congestion.Logic)
	}
	if c.Congestion.Attribute == "" {
		return fmt.Errorf("congestion.attribute is required")
	}
	if c.Paths.State == "" {
		return fmt.Errorf("paths.state is required")
	}
	return nil
}
