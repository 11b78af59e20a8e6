package alerts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/models"
)

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

type fakePublisher struct {
	subjects []string
	payloads []interface{}
	err      error
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return p.err
}

func alertsConfig(t *testing.T) config.AlertsConfig {
	t.Helper()
	return config.AlertsConfig{
		Enabled:     true,
		MinSeverity: "moderate",
		File:        filepath.Join(t.TempDir(), "alerts.json"),
		Subject:     "trafficpulse.alerts",
	}
}

func TestShouldAlert(t *testing.T) {
	cfg := alertsConfig(t)

	tests := []struct {
		name     string
		enabled  bool
		severity models.Severity
		previous models.CameraState
		want     bool
	}{
		{"severity at floor", true, models.SeverityModerate, models.CameraState{Detected: true}, true},
		{"severity above floor", true, models.SeveritySevere, models.CameraState{Detected: true}, true},
		{"below floor but new detection", true, models.SeverityMinor, models.CameraState{}, true},
		{"below floor and already detected", true, models.SeverityMinor, models.CameraState{Detected: true}, false},
		{"disabled", false, models.SeveritySevere, models.CameraState{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Enabled = tt.enabled
			s := NewService(c, nil, zerolog.Nop())

			verdict := models.AggregateVerdict{CameraRef: "urn:ngsi-ld:Camera:1", Severity: tt.severity}
			assert.Equal(t, tt.want, s.ShouldAlert(verdict, tt.previous))
		})
	}
}

func TestRecordAppendsToFile(t *testing.T) {
	cfg := alertsConfig(t)
	s := NewService(cfg, nil, zerolog.Nop())

	s.Record("urn:ngsi-ld:Camera:1", t0, models.SeveritySevere, "incident detected")
	s.Record("urn:ngsi-ld:Camera:2", t0.Add(time.Minute), models.SeverityModerate, "incident detected")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)

	var records []models.AlertRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "urn:ngsi-ld:Camera:1", records[0].Camera)
	assert.Equal(t, models.SeveritySevere, records[0].Severity)
	assert.Equal(t, "urn:ngsi-ld:Camera:2", records[1].Camera)
}

func TestRecordRestartsCorruptFile(t *testing.T) {
	cfg := alertsConfig(t)
	require.NoError(t, os.WriteFile(cfg.File, []byte("{corrupt"), 0o644))
	s := NewService(cfg, nil, zerolog.Nop())

	s.Record("urn:ngsi-ld:Camera:1", t0, models.SeverityMinor, "incident detected")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	var records []models.AlertRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestRecordPublishesToBus(t *testing.T) {
	cfg := alertsConfig(t)
	pub := &fakePublisher{}
	s := NewService(cfg, pub, zerolog.Nop())

	s.Record("urn:ngsi-ld:Camera:1", t0, models.SeveritySevere, "incident detected")

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "trafficpulse.alerts", pub.subjects[0])
	record, ok := pub.payloads[0].(models.AlertRecord)
	require.True(t, ok)
	assert.Equal(t, "urn:ngsi-ld:Camera:1", record.Camera)
}
