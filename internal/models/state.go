package models

import (
	"time"
)

// StateEntry is one historical data point in a camera's bounded history.
type StateEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Detected  bool      `json:"detected"`
}

// CameraState is the durable per-camera record carried across pipeline runs.
// It is the only memory the engine keeps between invocations. The accident
// and congestion runs share the record but own separate flags: Detected
// belongs to accident detection, Congested and FirstBreach to the
// congestion state machine.
type CameraState struct {
	Detected    bool         `json:"detected"`
	Congested   bool         `json:"congested"`
	FirstBreach *time.Time   `json:"first_breach,omitempty"`
	LastUpdate  time.Time    `json:"last_update"`
	LastAlert   *time.Time   `json:"last_alert,omitempty"`
	History     []StateEntry `json:"history,omitempty"`
}

// Clone returns a deep copy so callers can fold state locally without
// touching the store's record.
func (s CameraState) Clone() CameraState {
	out := s
	if s.FirstBreach != nil {
		fb := *s.FirstBreach
		out.FirstBreach = &fb
	}
	if s.LastAlert != nil {
		la := *s.LastAlert
		out.LastAlert = &la
	}
	if len(s.History) > 0 {
		out.History = make([]StateEntry, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
