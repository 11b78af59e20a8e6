// Package detectors implements the per-camera anomaly detection strategies.
// Each detector is a pure function of one camera's chronologically sorted
// observation window; missing fields or short windows degrade to a miss,
// never to an error.
package detectors

import (
	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// Detector names, stable identifiers recorded in verdicts and entities.
const (
	NameSpeedVariance  = "speed_variance"
	NameOccupancySpike = "occupancy_spike"
	NameSuddenStop     = "sudden_stop"
	NamePatternAnomaly = "pattern_anomaly"
)

// Verdict reasons. Diagnostic only; control flow never string-matches them.
const (
	ReasonInsufficientData   = "insufficient_data"
	ReasonNormalVariance     = "normal_variance"
	ReasonNormalOccupancy    = "normal_occupancy"
	ReasonNormalPattern      = "normal_pattern"
	ReasonNoSignificantDrop  = "no_significant_drop"
	ReasonInitialSpeedTooLow = "initial_speed_too_low"
	ReasonHighSpeedVariance  = "high_speed_variance"
	ReasonOccupancySpike     = "occupancy_spike"
	ReasonSuddenSpeedDrop    = "sudden_speed_drop"
	ReasonIntensityOutlier   = "intensity_outlier"
)

// Detector evaluates one camera's observation window.
type Detector interface {
	Name() string
	Enabled() bool
	Weight() float64
	// Detect expects the window sorted by observation time.
	Detect(window []models.Observation, cameraRef string) models.Verdict
}

// FromConfig instantiates the closed set of detector kinds. Disabled
// detectors are excluded entirely.
func FromConfig(cfg config.DetectorsConfig) []Detector {
	all := []Detector{
		NewSpeedVariance(cfg.SpeedVariance),
		NewOccupancySpike(cfg.OccupancySpike),
		NewSuddenStop(cfg.SuddenStop),
		NewPatternAnomaly(cfg.PatternAnomaly),
	}
	enabled := make([]Detector, 0, len(all))
	for _, d := range all {
		if d.Enabled() {
			enabled = append(enabled, d)
		}
	}
	return enabled
}

func miss(name string, weight float64, reason string) models.Verdict {
	return models.Verdict{
		Detector: name,
		Enabled:  true,
		Weight:   weight,
		Reason:   reason,
	}
}

func hit(name string, weight, confidence float64, reason string) models.Verdict {
	return models.Verdict{
		Detector:   name,
		Enabled:    true,
		Weight:     weight,
		Detected:   true,
		Confidence: clamp01(confidence),
		Reason:     reason,
	}
}
