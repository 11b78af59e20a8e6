// Package pipeline orchestrates batch detection runs: load one observations
// file, evaluate every camera, dispatch approved entities to the context
// broker, and persist state and results. Detection is synchronous; only the
// network-bound dispatch step fans out to the worker pool.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/logging"
	"trafficpulse-go/internal/metrics"
	"trafficpulse-go/internal/models"
	"trafficpulse-go/internal/ngsi"
	"trafficpulse-go/internal/services/aggregation"
	"trafficpulse-go/internal/services/alerts"
	"trafficpulse-go/internal/services/broker"
	"trafficpulse-go/internal/services/congestion"
	"trafficpulse-go/internal/services/detectors"
	"trafficpulse-go/internal/services/statestore"
)

// Service wires the detection core together. One Service instance owns the
// state store and must be the only writer against its state file.
type Service struct {
	cfg        *config.Config
	detectors  []detectors.Detector
	aggregator *aggregation.Aggregator
	states     *statestore.Store
	broker     *broker.Client
	dispatcher *broker.Dispatcher
	alerter    *alerts.Service
	congestion *congestion.Evaluator
	metrics    *metrics.Metrics
	log        zerolog.Logger

	mu          sync.Mutex
	lastResults []models.CameraResult
	lastRunAt   time.Time
	lastRunKind string
}

// NewService builds the pipeline from configuration. publisher may be nil.
func NewService(cfg *config.Config, publisher models.MessagePublisher, m *metrics.Metrics, base zerolog.Logger) *Service {
	log := logging.NewServiceLogger(base, "pipeline")
	return &Service{
		cfg:        cfg,
		detectors:  detectors.FromConfig(cfg.Detectors),
		aggregator: aggregation.New(cfg.Severity, cfg.Filters, logging.NewServiceLogger(base, "aggregation")),
		states:     statestore.New(cfg.Paths.State, logging.NewServiceLogger(base, "statestore")),
		broker:     broker.NewClient(cfg.Broker, cfg.Dispatch.Timeout, logging.NewServiceLogger(base, "broker")),
		dispatcher: broker.NewDispatcher(cfg.Dispatch, logging.NewServiceLogger(base, "dispatch")),
		alerter:    alerts.NewService(cfg.Alerts, publisher, logging.NewServiceLogger(base, "alerts")),
		congestion: congestion.New(cfg.Congestion, logging.NewServiceLogger(base, "congestion")),
		metrics:    m,
		log:        log,
	}
}

// States exposes the state store for inspection.
func (s *Service) States() *statestore.Store { return s.states }

// LatestResults returns the most recent run's results snapshot.
func (s *Service) LatestResults() ([]models.CameraResult, string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CameraResult, len(s.lastResults))
	copy(out, s.lastResults)
	return out, s.lastRunKind, s.lastRunAt
}

// pendingIncident carries one approved detection from evaluation to the
// post-dispatch bookkeeping step.
type pendingIncident struct {
	verdict    models.AggregateVerdict
	previous   models.CameraState
	observedAt time.Time
	result     int // index into results
}

// RunAccidentDetection executes one accident-detection batch over the given
// observations file. It always returns one result per processable camera;
// it errors only on an unreadable or unparseable input file.
func (s *Service) RunAccidentDetection(ctx context.Context, observationsPath string) ([]models.CameraResult, error) {
	start := time.Now()
	observations, err := loadObservations(observationsPath, s.log)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("accident", "error").Inc()
		return nil, err
	}

	groups := models.GroupByCamera(observations)
	cameras := sortedKeys(groups)
	now := time.Now()

	results := make([]models.CameraResult, 0, len(cameras))
	var jobs []broker.Job
	var pending []pendingIncident

	for _, camera := range cameras {
		window := groups[camera]
		log := logging.WithCamera(s.log, camera)
		s.metrics.CamerasEvaluated.Inc()

		verdicts := make([]models.Verdict, 0, len(s.detectors))
		for _, d := range s.detectors {
			verdicts = append(verdicts, d.Detect(window, camera))
		}

		agg := s.aggregator.Combine(camera, verdicts, now)
		result := models.CameraResult{
			Camera:     camera,
			Success:    true,
			Detected:   agg.Detected,
			Severity:   agg.Severity,
			Confidence: agg.Confidence,
		}

		if !agg.Detected {
			results = append(results, result)
			continue
		}
		s.metrics.DetectionsTotal.WithLabelValues(string(agg.Severity)).Inc()

		state := s.states.Get(camera)
		if suppressed, reason := s.aggregator.Filter(agg, state); suppressed {
			result.Filtered = true
			result.FilterReason = reason
			results = append(results, result)
			s.metrics.FilteredTotal.WithLabelValues(reason).Inc()
			log.Info().Str("reason", reason).Float64("confidence", agg.Confidence).Msg("Detection filtered")
			continue
		}

		entity := ngsi.NewIncident(agg, observationRefs(window), lastLocation(window))
		log.Info().
			Str("incident_id", entity.ID).
			Str("severity", string(agg.Severity)).
			Float64("confidence", agg.Confidence).
			Strs("methods", agg.ContributingMethods).
			Msg("Detection approved, dispatching incident")

		results = append(results, result)
		pending = append(pending, pendingIncident{
			verdict:    agg,
			previous:   state,
			observedAt: window[len(window)-1].ObservedAt,
			result:     len(results) - 1,
		})
		jobs = append(jobs, broker.Job{
			Camera: camera,
			Call: func(ctx context.Context) error {
				return s.broker.CreateEntity(ctx, entity)
			},
		})
	}

	dispatched := s.dispatcher.Dispatch(ctx, jobs)
	for i, dr := range dispatched {
		p := pending[i]
		result := &results[p.result]
		if dr.Err != nil {
			// Failed dispatches leave prior state untouched; the next run
			// re-evaluates from the last known-good state.
			result.Success = false
			result.Error = dr.Err.Error()
			s.metrics.DispatchTotal.WithLabelValues("error").Inc()
			continue
		}
		s.metrics.DispatchTotal.WithLabelValues("ok").Inc()
		result.Updated = true

		s.states.UpdateDetection(dr.Camera, true, p.observedAt)
		s.states.MarkAlerted(dr.Camera, p.verdict.Timestamp)
		if s.alerter.ShouldAlert(p.verdict, p.previous) {
			message := fmt.Sprintf("traffic incident detected by %v", p.verdict.ContributingMethods)
			s.alerter.Record(dr.Camera, p.verdict.Timestamp, p.verdict.Severity, message)
		}
	}

	s.finishRun("accident", results, start)
	return results, nil
}

// RunCongestionDetection executes one congestion batch. Each camera's
// observations stream through the state machine in time order; a camera's
// processing stops at its first failed patch so the next run resumes from
// the last known-good state.
func (s *Service) RunCongestionDetection(ctx context.Context, observationsPath string) ([]models.CameraResult, error) {
	start := time.Now()
	observations, err := loadObservations(observationsPath, s.log)
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("congestion", "error").Inc()
		return nil, err
	}

	groups := models.GroupByCamera(observations)
	cameras := sortedKeys(groups)

	results := make([]models.CameraResult, len(cameras))
	jobs := make([]broker.Job, 0, len(cameras))
	for i, camera := range cameras {
		i, camera, window := i, camera, groups[camera]
		s.metrics.CamerasEvaluated.Inc()
		jobs = append(jobs, broker.Job{
			Camera: camera,
			Call: func(ctx context.Context) error {
				results[i] = s.evaluateCongestion(ctx, camera, window)
				if results[i].Error != "" {
					return fmt.Errorf("%s", results[i].Error)
				}
				return nil
			},
		})
	}
	s.dispatcher.Dispatch(ctx, jobs)

	s.finishRun("congestion", results, start)
	return results, nil
}

func (s *Service) evaluateCongestion(ctx context.Context, camera string, window []models.Observation) models.CameraResult {
	log := logging.WithCamera(s.log, camera)
	state := s.states.Get(camera)
	result := models.CameraResult{Camera: camera, Success: true, Outcome: string(congestion.OutcomeNoBreach)}

	for _, obs := range window {
		decision := s.congestion.Evaluate(state, obs)
		result.Outcome = string(decision.Outcome)
		result.Detected = decision.Congested

		switch decision.Outcome {
		case congestion.OutcomeCongested, congestion.OutcomeCleared:
			patch := ngsi.NewBoolPatch(s.cfg.Congestion.Attribute, decision.Congested, obs.ObservedAt)
			if err := s.broker.PatchAttributes(ctx, camera, patch); err != nil {
				result.Success = false
				result.Error = err.Error()
				s.metrics.DispatchTotal.WithLabelValues("error").Inc()
				return result
			}
			s.metrics.DispatchTotal.WithLabelValues("ok").Inc()
			s.states.UpdateCongestion(camera, decision.Congested, decision.FirstBreach, obs.ObservedAt)
			result.Updated = true
			log.Info().Str("outcome", string(decision.Outcome)).Time("observed_at", obs.ObservedAt).Msg("Congestion attribute patched")

		case congestion.OutcomeTimerStarted, congestion.OutcomeTimerReset:
			// Timer changes are internal state, persisted without a patch.
			s.states.UpdateCongestion(camera, state.Congested, decision.FirstBreach, obs.ObservedAt)
		}

		state = s.states.Get(camera)
	}
	return result
}

func (s *Service) finishRun(kind string, results []models.CameraResult, start time.Time) {
	s.states.Save()
	s.writeResults(results)

	s.metrics.RunsTotal.WithLabelValues(kind, "ok").Inc()
	s.metrics.RunDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	s.mu.Lock()
	s.lastResults = results
	s.lastRunKind = kind
	s.lastRunAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Str("kind", kind).
		Int("cameras", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Pipeline run complete")
}

// writeResults persists the results list best-effort; the caller already
// has the results in hand either way.
func (s *Service) writeResults(results []models.CameraResult) {
	if s.cfg.Paths.Results == "" {
		return
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode results")
		return
	}
	if dir := filepath.Dir(s.cfg.Paths.Results); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Error().Err(err).Str("dir", dir).Msg("Failed to create results directory")
			return
		}
	}
	if err := os.WriteFile(s.cfg.Paths.Results, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.cfg.Paths.Results).Msg("Failed to write results file")
	}
}

func sortedKeys(groups map[string][]models.Observation) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// observationRefs collects the URNs of the window's source observations.
func observationRefs(window []models.Observation) []string {
	refs := make([]string, 0, len(window))
	for _, obs := range window {
		if obs.ID != "" {
			refs = append(refs, obs.ID)
		}
	}
	return refs
}

// lastLocation returns the most recent location in the window, if any.
func lastLocation(window []models.Observation) *models.GeoPoint {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Location != nil {
			return window[i].Location
		}
	}
	return nil
}
