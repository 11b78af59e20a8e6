package detectors

import (
	"math"

	"trafficpulse-go/internal/models"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var variance float64
	for _, v := range values {
		diff := v - avg
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// speeds extracts the present speed readings, preserving window order.
func speeds(window []models.Observation) []float64 {
	out := make([]float64, 0, len(window))
	for _, obs := range window {
		if obs.AverageSpeed != nil {
			out = append(out, *obs.AverageSpeed)
		}
	}
	return out
}

// occupancies extracts the present occupancy readings, preserving order.
func occupancies(window []models.Observation) []float64 {
	out := make([]float64, 0, len(window))
	for _, obs := range window {
		if obs.Occupancy != nil {
			out = append(out, *obs.Occupancy)
		}
	}
	return out
}

// intensities extracts the present intensity readings, preserving order.
func intensities(window []models.Observation) []float64 {
	out := make([]float64, 0, len(window))
	for _, obs := range window {
		if obs.Intensity != nil {
			out = append(out, *obs.Intensity)
		}
	}
	return out
}
