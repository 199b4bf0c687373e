package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/catalogworker/config"
	"sjsage522/catalogworker/internal/app"
	"sjsage522/catalogworker/logger"
	"sjsage522/catalogworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if len(cfg.Jobs) == 0 {
		log.Fatal().Msg("No jobs configured (CATALOG_JOBS)")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("agent", cfg.AgentKind).
		Int("jobs", len(cfg.Jobs)).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	services, err := app.InitializeServices(ctx, cfg, app.NewAgent)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		ctx,
		services.Parser,
		cfg.Jobs,
		services.Publisher,
		services.Failures,
		cfg.CrawlInterval,
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting catalog worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		// the worker stops between products
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}
