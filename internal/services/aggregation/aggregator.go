// Package aggregation combines per-detector verdicts into one classified
// verdict per camera and applies the false-positive suppression policy.
// Classification and filtering are deliberately separate steps: severity is
// a property of the confidence whether or not the event is acted upon.
package aggregation

import (
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// Filter suppression reasons recorded on camera results.
const (
	FilterReasonLowConfidence = "below_min_confidence"
	FilterReasonCooldown      = "cooldown_active"
)

// Aggregator holds the classification cut points and filter policy.
type Aggregator struct {
	severity config.SeverityConfig
	filters  config.FiltersConfig
	log      zerolog.Logger
}

func New(severity config.SeverityConfig, filters config.FiltersConfig, log zerolog.Logger) *Aggregator {
	return &Aggregator{severity: severity, filters: filters, log: log}
}

// Combine computes the weight-normalized mean confidence over the detectors
// that fired: sum(confidence_i * weight_i) / sum(weight_i). This is not a
// simple average; a heavier detector pulls the aggregate harder.
func (a *Aggregator) Combine(cameraRef string, verdicts []models.Verdict, now time.Time) models.AggregateVerdict {
	agg := models.AggregateVerdict{
		CameraRef: cameraRef,
		Severity:  models.SeverityUnknown,
		Timestamp: now,
	}

	var weightedSum, weightTotal float64
	for _, v := range verdicts {
		if !v.Detected {
			continue
		}
		weightedSum += v.Confidence * v.Weight
		weightTotal += v.Weight
		agg.ContributingMethods = append(agg.ContributingMethods, v.Detector)
	}
	if weightTotal == 0 {
		return agg
	}

	agg.Detected = true
	agg.Confidence = weightedSum / weightTotal
	agg.Severity = a.Classify(agg.Confidence)
	return agg
}

// Classify maps a confidence onto the highest severity bucket it reaches.
func (a *Aggregator) Classify(confidence float64) models.Severity {
	switch {
	case confidence >= a.severity.Severe:
		return models.SeveritySevere
	case confidence >= a.severity.Moderate:
		return models.SeverityModerate
	case confidence >= a.severity.Minor:
		return models.SeverityMinor
	default:
		return models.SeverityUnknown
	}
}

// Filter applies the suppression policy to a detected aggregate. It returns
// whether the detection must be suppressed and why. Suppressed detections
// still appear in the results list; they just produce no external calls and
// no state mutation.
func (a *Aggregator) Filter(agg models.AggregateVerdict, state models.CameraState) (bool, string) {
	if agg.Confidence < a.filters.MinConfidence {
		return true, FilterReasonLowConfidence
	}
	if state.LastAlert != nil && agg.Timestamp.Sub(*state.LastAlert) < a.filters.Cooldown {
		a.log.Debug().
			Str("camera_ref", agg.CameraRef).
			Time("last_alert", *state.LastAlert).
			Dur("cooldown", a.filters.Cooldown).
			Msg("Detection suppressed by cooldown")
		return true, FilterReasonCooldown
	}
	return false, ""
}
