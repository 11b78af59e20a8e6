// Package ngsi builds the NGSI-LD representations published to the context
// broker. Attributes are closed struct kinds with explicit constructors so a
// malformed entity fails at construction, not at dispatch.
package ngsi

import (
	"time"
)

// CoreContext is the JSON-LD context attached to every outgoing body.
const CoreContext = "https://uri.etsi.org/ngsi-ld/v1/ngsi-ld-core-context.jsonld"

// ContentType signals linked-data semantics on broker calls.
const ContentType = "application/ld+json"

// Property is an NGSI-LD Property attribute.
type Property struct {
	Type       string      `json:"type"`
	Value      interface{} `json:"value"`
	ObservedAt string      `json:"observedAt,omitempty"`
}

// NewProperty wraps a plain value.
func NewProperty(value interface{}) Property {
	return Property{Type: "Property", Value: value}
}

// NewObservedProperty wraps a value with its observation timestamp.
func NewObservedProperty(value interface{}, observedAt time.Time) Property {
	return Property{
		Type:       "Property",
		Value:      value,
		ObservedAt: observedAt.UTC().Format(time.RFC3339),
	}
}

// Relationship is an NGSI-LD Relationship attribute. Object is a single
// entity URN or a list of URNs.
type Relationship struct {
	Type   string      `json:"type"`
	Object interface{} `json:"object"`
}

// NewRelationship points at one target entity.
func NewRelationship(object string) Relationship {
	return Relationship{Type: "Relationship", Object: object}
}

// NewMultiRelationship points at several target entities.
func NewMultiRelationship(objects []string) Relationship {
	return Relationship{Type: "Relationship", Object: objects}
}

// GeoJSONPoint is the value shape of a GeoProperty.
type GeoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoProperty is an NGSI-LD GeoProperty attribute.
type GeoProperty struct {
	Type  string       `json:"type"`
	Value GeoJSONPoint `json:"value"`
}

// NewGeoProperty builds a point GeoProperty. GeoJSON orders coordinates
// longitude first.
func NewGeoProperty(latitude, longitude float64) GeoProperty {
	return GeoProperty{
		Type: "GeoProperty",
		Value: GeoJSONPoint{
			Type:        "Point",
			Coordinates: [2]float64{longitude, latitude},
		},
	}
}
