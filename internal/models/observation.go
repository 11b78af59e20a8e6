package models

import (
	"sort"
	"time"
)

// GeoPoint is a WGS84 coordinate pair attached to an observation.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Observation is a single time-stamped sensor reading for one camera.
// Readings arrive in file order, not necessarily in time order, and any of
// the measurement fields may be absent.
type Observation struct {
	// ID is the URN of the source observation entity, when known.
	ID           string    `json:"id,omitempty"`
	CameraRef    string    `json:"camera_ref"`
	ObservedAt   time.Time `json:"observed_at"`
	Occupancy    *float64  `json:"occupancy,omitempty"`
	AverageSpeed *float64  `json:"average_speed,omitempty"`
	Intensity    *float64  `json:"intensity,omitempty"`
	Location     *GeoPoint `json:"location,omitempty"`
}

// GroupByCamera buckets observations by camera reference and sorts each
// bucket chronologically. Observations without a camera reference are dropped.
func GroupByCamera(observations []Observation) map[string][]Observation {
	groups := make(map[string][]Observation)
	for _, obs := range observations {
		if obs.CameraRef == "" {
			continue
		}
		groups[obs.CameraRef] = append(groups[obs.CameraRef], obs)
	}
	for _, window := range groups {
		sort.SliceStable(window, func(i, j int) bool {
			return window[i].ObservedAt.Before(window[j].ObservedAt)
		})
	}
	return groups
}
