package models

import (
	"time"
)

// Severity classifies an aggregate detection by confidence.
type Severity string

const (
	SeverityUnknown  Severity = "unknown"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities for comparison; higher is worse.
var severityRank = map[Severity]int{
	SeverityUnknown:  0,
	SeverityMinor:    1,
	SeverityModerate: 2,
	SeveritySevere:   3,
}

// AtLeast reports whether s is the same or a worse severity than other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Verdict is the outcome of one detector over one camera window. Verdicts
// are created fresh per evaluation and never persisted.
type Verdict struct {
	Detector   string  `json:"detector"`
	Enabled    bool    `json:"enabled"`
	Weight     float64 `json:"weight"`
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// AggregateVerdict combines all detector verdicts for one camera into a
// single weighted confidence and severity classification.
type AggregateVerdict struct {
	CameraRef           string    `json:"camera_ref"`
	Detected            bool      `json:"detected"`
	Confidence          float64   `json:"confidence"`
	Severity            Severity  `json:"severity"`
	ContributingMethods []string  `json:"contributing_methods"`
	Timestamp           time.Time `json:"timestamp"`
}

// CameraResult is the per-camera outcome record returned by a batch run and
// written to the results file.
type CameraResult struct {
	Camera       string   `json:"camera"`
	Updated      bool     `json:"updated"`
	Success      bool     `json:"success"`
	Detected     bool     `json:"detected"`
	Severity     Severity `json:"severity,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	Filtered     bool     `json:"filtered,omitempty"`
	FilterReason string   `json:"filter_reason,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// AlertRecord is one entry in the append-only alerts file.
type AlertRecord struct {
	Camera    string    `json:"camera"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// MessagePublisher publishes alert payloads to a message bus.
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
