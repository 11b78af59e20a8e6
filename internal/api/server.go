package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trafficpulse-go/internal/api/handlers"
	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/metrics"
)

// Server exposes the engine over HTTP: health, system stats, run triggers,
// latest results and Prometheus metrics.
type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server
	log    zerolog.Logger

	healthHandler *handlers.HealthHandler
	runsHandler   *handlers.RunsHandler
	systemHandler *handlers.SystemHandler
	metrics       *metrics.Metrics
}

func NewServer(cfg *config.Config, runner handlers.PipelineRunner, m *metrics.Metrics, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		config:        cfg,
		router:        gin.New(),
		log:           log,
		healthHandler: handlers.NewHealthHandler(cfg.InstanceID, cfg.Version),
		runsHandler:   handlers.NewRunsHandler(runner, log),
		systemHandler: handlers.NewSystemHandler(cfg.InstanceID),
		metrics:       m,
	}
}

func (s *Server) Setup() {
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
}

func (s *Server) Start() error {
	s.log.Info().Int("port", s.config.Port).Msg("Starting API server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}
