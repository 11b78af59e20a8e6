package ngsi

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"trafficpulse-go/internal/models"
)

// IncidentType is the NGSI-LD entity type of emitted incidents.
const IncidentType = "TrafficIncident"

// IncidentEntity is the full entity POSTed to the broker when an aggregate
// detection is acted upon. Incidents are never mutated after creation.
type IncidentEntity struct {
	Context         []string     `json:"@context"`
	ID              string       `json:"id"`
	Type            string       `json:"type"`
	RefCamera       Relationship `json:"refCamera"`
	RefObservation  Relationship `json:"refObservation"`
	Severity        Property     `json:"severity"`
	Confidence      Property     `json:"confidence"`
	DetectionMethod Property     `json:"detectionMethod"`
	DateDetected    Property     `json:"dateDetected"`
	Location        *GeoProperty `json:"location,omitempty"`
}

// NewIncidentID mints a namespaced, time-unique incident URN.
func NewIncidentID(ts time.Time) string {
	return fmt.Sprintf("urn:ngsi-ld:%s:%d:%s", IncidentType, ts.Unix(), uuid.NewString()[:8])
}

// NewIncident assembles an incident entity from an aggregate verdict, the
// camera it belongs to and the URNs of the observations that triggered it.
func NewIncident(verdict models.AggregateVerdict, observationRefs []string, location *models.GeoPoint) IncidentEntity {
	entity := IncidentEntity{
		Context:         []string{CoreContext},
		ID:              NewIncidentID(verdict.Timestamp),
		Type:            IncidentType,
		RefCamera:       NewRelationship(verdict.CameraRef),
		RefObservation:  NewMultiRelationship(observationRefs),
		Severity:        NewProperty(string(verdict.Severity)),
		Confidence:      NewProperty(verdict.Confidence),
		DetectionMethod: NewProperty(verdict.ContributingMethods),
		DateDetected:    NewObservedProperty(verdict.Timestamp.UTC().Format(time.RFC3339), verdict.Timestamp),
	}
	if location != nil {
		geo := NewGeoProperty(location.Latitude, location.Longitude)
		entity.Location = &geo
	}
	return entity
}

// AttributePatch is the single-attribute body PATCHed onto an existing
// Camera entity by the congestion evaluator.
type AttributePatch map[string]interface{}

// NewBoolPatch builds a patch body setting one boolean attribute.
func NewBoolPatch(attribute string, value bool, observedAt time.Time) AttributePatch {
	return AttributePatch{
		"@context": []string{CoreContext},
		attribute:  NewObservedProperty(value, observedAt),
	}
}
