// Package messaging provides the optional NATS fan-out used by the alerter.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
)

type Service struct {
	conn *nats.Conn
	log  zerolog.Logger
}

func NewService(cfg config.NatsConfig, log zerolog.Logger) (*Service, error) {
	opts := []nats.Option{
		nats.Name("trafficpulse"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.URL).Msg("NATS connection established")

	return &Service{conn: conn, log: log}, nil
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.conn.Publish(subject, payload)
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		if err := s.conn.Drain(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
