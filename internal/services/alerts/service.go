// Package alerts records operator-facing alerts for acted-upon detections:
// an append-only JSON file, plus an optional NATS subject when messaging is
// enabled. Alert recording is a side effect and never fails a pipeline run.
package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

type Service struct {
	mu          sync.Mutex
	cfg         config.AlertsConfig
	minSeverity models.Severity
	publisher   models.MessagePublisher
	log         zerolog.Logger
}

// NewService builds the alerter. publisher may be nil, in which case alerts
// only go to the file.
func NewService(cfg config.AlertsConfig, publisher models.MessagePublisher, log zerolog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		minSeverity: models.Severity(cfg.MinSeverity),
		publisher:   publisher,
		log:         log,
	}
}

// ShouldAlert decides whether an acted-upon detection merits an alert:
// either the severity reaches the configured floor, or the camera just
// transitioned into a detected state.
func (s *Service) ShouldAlert(verdict models.AggregateVerdict, previous models.CameraState) bool {
	if !s.cfg.Enabled {
		return false
	}
	if verdict.Severity.AtLeast(s.minSeverity) {
		return true
	}
	return !previous.Detected
}

// Record appends one alert to the alerts file and publishes it when a
// message bus is attached.
func (s *Service) Record(camera string, ts time.Time, severity models.Severity, message string) {
	record := models.AlertRecord{
		Camera:    camera,
		Timestamp: ts,
		Message:   message,
		Severity:  severity,
	}

	if err := s.append(record); err != nil {
		s.log.Error().Err(err).Str("camera_ref", camera).Msg("Failed to write alert record")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(s.cfg.Subject, record); err != nil {
			s.log.Error().Err(err).Str("camera_ref", camera).Str("subject", s.cfg.Subject).Msg("Failed to publish alert")
		} else {
			s.log.Info().Str("camera_ref", camera).Str("severity", string(severity)).Msg("Alert published")
		}
	}
}

func (s *Service) append(record models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.AlertRecord
	data, err := os.ReadFile(s.cfg.File)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &records); err != nil {
			s.log.Warn().Err(err).Str("path", s.cfg.File).Msg("Alerts file corrupt, starting a new one")
			records = nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read alerts file: %w", err)
	}

	records = append(records, record)
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}

	if dir := filepath.Dir(s.cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create alerts directory: %w", err)
		}
	}
	return os.WriteFile(s.cfg.File, out, 0o644)
}
