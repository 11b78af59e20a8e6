package detectors

import (
	"fmt"
	"math"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// PatternAnomaly flags the latest intensity reading when its z-score against
// the window's mean and standard deviation crosses the configured threshold.
type PatternAnomaly struct {
	cfg config.PatternAnomalyConfig
}

func NewPatternAnomaly(cfg config.PatternAnomalyConfig) *PatternAnomaly {
	return &PatternAnomaly{cfg: cfg}
}

func (d *PatternAnomaly) Name() string    { return NamePatternAnomaly }
func (d *PatternAnomaly) Enabled() bool   { return d.cfg.Enabled }
func (d *PatternAnomaly) Weight() float64 { return d.cfg.Weight }

func (d *PatternAnomaly) Detect(window []models.Observation, cameraRef string) models.Verdict {
	values := intensities(window)
	if len(values) < d.cfg.WindowSize {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}
	values = values[len(values)-d.cfg.WindowSize:]

	latest := values[len(values)-1]
	avg := mean(values)
	sd := stddev(values, avg)
	if sd == 0 {
		// Perfectly flat window; a z-score is undefined, report normal.
		return miss(d.Name(), d.Weight(), ReasonNormalPattern)
	}

	z := math.Abs((latest - avg) / sd)
	if z < d.cfg.ZThreshold {
		return miss(d.Name(), d.Weight(), ReasonNormalPattern)
	}

	// 0.5 at the threshold, saturating at twice the threshold.
	confidence := z / (2 * d.cfg.ZThreshold)
	reason := fmt.Sprintf("%s: z=%.3f threshold=%.2f", ReasonIntensityOutlier, z, d.cfg.ZThreshold)
	return hit(d.Name(), d.Weight(), confidence, reason)
}
