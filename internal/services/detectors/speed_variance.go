package detectors

import (
	"fmt"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// SpeedVariance flags erratic flow by the coefficient of variation
// (stddev/mean) of the speed readings in the window.
type SpeedVariance struct {
	cfg config.SpeedVarianceConfig
}

func NewSpeedVariance(cfg config.SpeedVarianceConfig) *SpeedVariance {
	return &SpeedVariance{cfg: cfg}
}

func (d *SpeedVariance) Name() string    { return NameSpeedVariance }
func (d *SpeedVariance) Enabled() bool   { return d.cfg.Enabled }
func (d *SpeedVariance) Weight() float64 { return d.cfg.Weight }

func (d *SpeedVariance) Detect(window []models.Observation, cameraRef string) models.Verdict {
	values := speeds(window)
	if len(values) < d.cfg.WindowSize {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}
	// Only the most recent configured window participates.
	values = values[len(values)-d.cfg.WindowSize:]

	avg := mean(values)
	sd := stddev(values, avg)
	if avg == 0 || sd == 0 {
		// All-identical or all-zero readings; nothing erratic here.
		return miss(d.Name(), d.Weight(), ReasonNormalVariance)
	}

	cv := sd / avg
	if cv < d.cfg.Threshold {
		return miss(d.Name(), d.Weight(), ReasonNormalVariance)
	}

	// 0.5 at the threshold, saturating at twice the threshold.
	confidence := 0.5 + (cv-d.cfg.Threshold)/d.cfg.Threshold*0.5
	reason := fmt.Sprintf("%s: cv=%.3f threshold=%.3f", ReasonHighSpeedVariance, cv, d.cfg.Threshold)
	return hit(d.Name(), d.Weight(), confidence, reason)
}
