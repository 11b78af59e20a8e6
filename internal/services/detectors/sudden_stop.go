package detectors

import (
	"fmt"
	"time"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// SuddenStop flags a steep speed collapse inside a short time window, the
// signature of traffic halting behind an incident. Windows that start from
// already-slow traffic are reported distinctly so a crawl is not mistaken
// for a stop.
type SuddenStop struct {
	cfg config.SuddenStopConfig
}

func NewSuddenStop(cfg config.SuddenStopConfig) *SuddenStop {
	return &SuddenStop{cfg: cfg}
}

func (d *SuddenStop) Name() string    { return NameSuddenStop }
func (d *SuddenStop) Enabled() bool   { return d.cfg.Enabled }
func (d *SuddenStop) Weight() float64 { return d.cfg.Weight }

func (d *SuddenStop) Detect(window []models.Observation, cameraRef string) models.Verdict {
	type sample struct {
		speed float64
		at    time.Time
	}
	samples := make([]sample, 0, len(window))
	for _, obs := range window {
		if obs.AverageSpeed != nil {
			samples = append(samples, sample{speed: *obs.AverageSpeed, at: obs.ObservedAt})
		}
	}
	if len(samples) < 2 {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}

	// Keep only the samples inside the configured time window. A drop is
	// only sudden when it happened within that window; with fewer than two
	// recent readings there is nothing to compare.
	latest := samples[len(samples)-1]
	recent := make([]sample, 0, len(samples))
	for _, s := range samples {
		if latest.at.Sub(s.at) <= d.cfg.TimeWindow {
			recent = append(recent, s)
		}
	}
	if len(recent) < 2 {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}

	if recent[0].speed < d.cfg.MinInitialSpeed {
		return miss(d.Name(), d.Weight(), ReasonInitialSpeedTooLow)
	}

	maxSpeed, minSpeed := recent[0].speed, recent[0].speed
	for _, s := range recent[1:] {
		if s.speed > maxSpeed {
			maxSpeed = s.speed
		}
		if s.speed < minSpeed {
			minSpeed = s.speed
		}
	}
	if maxSpeed <= 0 {
		return miss(d.Name(), d.Weight(), ReasonInsufficientData)
	}

	drop := (maxSpeed - minSpeed) / maxSpeed
	if drop < d.cfg.DropFraction {
		return miss(d.Name(), d.Weight(), ReasonNoSignificantDrop)
	}

	reason := fmt.Sprintf("%s: drop=%.3f from=%.1f to=%.1f", ReasonSuddenSpeedDrop, drop, maxSpeed, minSpeed)
	return hit(d.Name(), d.Weight(), drop, reason)
}
