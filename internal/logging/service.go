package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"trafficpulse-go/internal/config"
)

// Setup configures the global logger and returns the root logger for the
// run. Components receive child loggers from it rather than logging through
// package-level state.
func Setup(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return log.With().Str("instance_id", cfg.InstanceID).Logger()
}

// NewServiceLogger derives a per-service child logger.
func NewServiceLogger(base zerolog.Logger, service string) zerolog.Logger {
	return base.With().Str("service", service).Logger()
}

// WithCamera tags a logger with the camera reference it is working on.
func WithCamera(base zerolog.Logger, cameraRef string) zerolog.Logger {
	return base.With().Str("camera_ref", cameraRef).Logger()
}
