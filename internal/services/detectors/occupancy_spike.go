package detectors

import (
	"fmt"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// OccupancySpike flags a sudden jump of the latest occupancy reading above a
// trailing baseline mean. Gradual ramps raise the baseline with them and do
// not trigger.
type OccupancySpike struct {
	cfg config.OccupancySpikeConfig
}

func NewOccupancySpike(cfg config.OccupancySpikeConfig) *OccupancySpike {
	return &OccupancySpike{cfg: cfg}
}

func (d *OccupancySpike) Name() string    { return NameOccupancySpike }
func (d *OccupancySpike) Enabled() bool   { return d.cfg.Enabled }
func (d *OccupancySpike) Weight() float64 { return d.cfg.Weight }

func (d *OccupancySpike) Detect(window []models.Observation, cameraRef string) models.Verdict {
	values := occupancies(window)
	// Need a full baseline plus the latest sample.
	if len(values) < d.cfg.BaselineWindow+1 {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}

	latest := values[len(values)-1]
	baselineValues := values[len(values)-1-d.cfg.BaselineWindow : len(values)-1]
	baseline := mean(baselineValues)
	if baseline <= 0 {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}

	ratio := latest / baseline
	if ratio < d.cfg.SpikeFactor {
		return miss(d.Name(), d.Weight(), ReasonNormalOccupancy)
	}

	confidence := 0.5 + (ratio-d.cfg.SpikeFactor)/d.cfg.SpikeFactor*0.5
	reason := fmt.Sprintf("%s: latest=%.3f baseline=%.3f factor=%.2f", ReasonOccupancySpike, latest, baseline, d.cfg.SpikeFactor)
	return hit(d.Name(), d.Weight(), confidence, reason)
}
