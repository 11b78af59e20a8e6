package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/api"
	"trafficpulse-go/internal/config"
	"trafficpulse-go/internal/logging"
	"trafficpulse-go/internal/metrics"
	"trafficpulse-go/internal/models"
	"trafficpulse-go/internal/services/messaging"
	"trafficpulse-go/internal/services/pipeline"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to the YAML config file")
		observations = flag.String("observations", "", "Path to the observations JSON file (batch modes)")
		mode         = flag.String("mode", "accident", "Run mode: accident, congestion or serve")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Config errors are fatal before logging is fully configured.
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Error().Err(err).Msg("Failed to load config")
		os.Exit(1)
	}

	log := logging.Setup(cfg)
	log.Info().
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Str("mode", *mode).
		Msg("Starting TrafficPulse detection engine")

	var publisher models.MessagePublisher
	var bus *messaging.Service
	if cfg.Nats.Enabled {
		bus, err = messaging.NewService(cfg.Nats, logging.NewServiceLogger(log, "messaging"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		publisher = bus
	}

	m := metrics.New()
	engine := pipeline.NewService(cfg, publisher, m, log)

	switch *mode {
	case "accident", "congestion":
		if *observations == "" {
			log.Fatal().Msg("-observations is required in batch modes")
		}
		runBatch(engine, *mode, *observations, log)
		if bus != nil {
			_ = bus.Shutdown(context.Background())
		}

	case "serve":
		serve(cfg, engine, m, bus, log)

	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode")
	}
}

func runBatch(engine *pipeline.Service, mode, observationsPath string, log zerolog.Logger) {
	ctx := context.Background()

	var results []models.CameraResult
	var err error
	if mode == "accident" {
		results, err = engine.RunAccidentDetection(ctx, observationsPath)
	} else {
		results, err = engine.RunCongestionDetection(ctx, observationsPath)
	}
	if err != nil {
		log.Fatal().Err(err).Str("path", observationsPath).Msg("Batch run failed")
	}

	updated, failed := 0, 0
	for _, r := range results {
		if r.Updated {
			updated++
		}
		if !r.Success {
			failed++
		}
	}
	log.Info().
		Int("cameras", len(results)).
		Int("updated", updated).
		Int("failed", failed).
		Msg("Batch run finished")
}

func serve(cfg *config.Config, engine *pipeline.Service, m *metrics.Metrics, bus *messaging.Service, log zerolog.Logger) {
	server := api.NewServer(cfg, engine, m, logging.NewServiceLogger(log, "api"))
	server.Setup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if bus != nil {
		_ = bus.Shutdown(ctx)
	}
	log.Info().Msg("Shutdown complete")
}
