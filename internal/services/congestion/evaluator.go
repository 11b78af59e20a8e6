// Package congestion implements the single-rule congestion evaluator: a
// per-camera state machine that patches one boolean attribute on the Camera
// entity when sustained breach conditions begin or clear.
package congestion

import (
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

// Outcome is the structured result of one evaluation step. Callers branch on
// these values, never on reason strings.
type Outcome string

const (
	// OutcomeNoBreach: not breached, no timer, not congested. No-op.
	OutcomeNoBreach Outcome = "no_breach"
	// OutcomeTimerStarted: first breach seen, minimum duration pending.
	OutcomeTimerStarted Outcome = "timer_started"
	// OutcomeTiming: still breached, minimum duration not yet reached.
	OutcomeTiming Outcome = "timing"
	// OutcomeTimerReset: breach cleared before the timer elapsed.
	OutcomeTimerReset Outcome = "timer_reset"
	// OutcomeCongested: transition into congestion; patch true.
	OutcomeCongested Outcome = "congested"
	// OutcomeAlreadyCongested: breached while congested; idempotent no-op.
	OutcomeAlreadyCongested Outcome = "already_congested"
	// OutcomeCleared: congestion ended; patch false.
	OutcomeCleared Outcome = "cleared"
)

// RequiresPatch reports whether the outcome carries an external action.
func (o Outcome) RequiresPatch() bool {
	return o == OutcomeCongested || o == OutcomeCleared
}

// Decision is the full evaluation result: the outcome plus the state fields
// the caller should persist once any required patch succeeds.
type Decision struct {
	Outcome     Outcome
	Congested   bool
	FirstBreach *time.Time
}

// Evaluator applies the configured breach rule and minimum-duration timer.
type Evaluator struct {
	cfg config.CongestionConfig
	log zerolog.Logger
}

func New(cfg config.CongestionConfig, log zerolog.Logger) *Evaluator {
	return &Evaluator{cfg: cfg, log: log}
}

// Breached evaluates the configured AND/OR combination of thresholds against
// one observation. A condition whose field is absent from the observation
// evaluates to false; with no conditions configured nothing ever breaches.
func (e *Evaluator) Breached(obs models.Observation) bool {
	type condition struct{ met bool }
	var conditions []condition

	if e.cfg.OccupancyAbove != nil {
		conditions = append(conditions, condition{obs.Occupancy != nil && *obs.Occupancy > *e.cfg.OccupancyAbove})
	}
	if e.cfg.SpeedBelow != nil {
		conditions = append(conditions, condition{obs.AverageSpeed != nil && *obs.AverageSpeed < *e.cfg.SpeedBelow})
	}
	if e.cfg.IntensityAbove != nil {
		conditions = append(conditions, condition{obs.Intensity != nil && *obs.Intensity > *e.cfg.IntensityAbove})
	}
	if len(conditions) == 0 {
		return false
	}

	if e.cfg.Logic == "or" {
		for _, c := range conditions {
			if c.met {
				return true
			}
		}
		return false
	}
	for _, c := range conditions {
		if !c.met {
			return false
		}
	}
	return true
}

// Evaluate advances the state machine by one observation. The transition
// table, with state = (congested, timer running):
//
//	breached, !congested, no timer  -> congested (min_duration 0) or start timer
//	breached, !congested, timer     -> congested once elapsed >= min_duration
//	breached, congested             -> no change
//	!breached, congested            -> cleared, timer dropped
//	!breached, !congested, timer    -> timer reset
//	!breached, !congested, no timer -> no-op
//
// Only state.Congested participates; the accident run's Detected flag on the
// same record never influences these transitions.
func (e *Evaluator) Evaluate(state models.CameraState, obs models.Observation) Decision {
	breached := e.Breached(obs)
	timerRunning := state.FirstBreach != nil

	switch {
	case breached && !state.Congested && !timerRunning:
		if e.cfg.MinDuration == 0 {
			return Decision{Outcome: OutcomeCongested, Congested: true}
		}
		at := obs.ObservedAt
		return Decision{Outcome: OutcomeTimerStarted, FirstBreach: &at}

	case breached && !state.Congested && timerRunning:
		if obs.ObservedAt.Sub(*state.FirstBreach) >= e.cfg.MinDuration {
			return Decision{Outcome: OutcomeCongested, Congested: true, FirstBreach: state.FirstBreach}
		}
		return Decision{Outcome: OutcomeTiming, FirstBreach: state.FirstBreach}

	case breached && state.Congested:
		return Decision{Outcome: OutcomeAlreadyCongested, Congested: true, FirstBreach: state.FirstBreach}

	case !breached && state.Congested:
		return Decision{Outcome: OutcomeCleared, Congested: false}

	case !breached && timerRunning:
		return Decision{Outcome: OutcomeTimerReset}

	default:
		return Decision{Outcome: OutcomeNoBreach}
	}
}
