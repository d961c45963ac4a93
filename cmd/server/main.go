// Package main is the entry point for the QuoteBar quote service.
// It keeps the watchlist's quotes fresh, backfills the derived metric caches
// and serves both over HTTP and a websocket event stream.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/di"
	"github.com/aristath/quotebar/internal/server"
	"github.com/aristath/quotebar/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration and initializes logging
// 2. Wires dependencies (storage, caches, clients, services, jobs)
// 3. Starts the HTTP server, the scheduler and the initial backfill
// 4. Waits for a shutdown signal and shuts down in reverse order
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting QuoteBar")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, sched, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		DataDir:     cfg.DataDir,
		Caches:      container.Caches,
		Backfill:    container.Backfiller,
		Universe:    container.Universe,
		Bus:         container.EventBus,
		QuoteState:  container.QuoteState,
		Refresher:   container.Coordinator,
		MarketHours: container.MarketHours,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	sched.Start()

	// Quotes first so the UI has prices while the backfill runs
	go func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 45*time.Second)
		defer refreshCancel()
		if _, err := container.Coordinator.Refresh(refreshCtx); err != nil {
			log.Warn().Err(err).Msg("Initial quote refresh failed")
		}
	}()
	runID := container.Backfiller.Start(container.Universe.Get())
	log.Info().Str("run_id", runID).Msg("Initial backfill started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	container.Backfiller.Stop()
	sched.Stop()

	// Drain the run so its last writes are in the saved documents
	if err := container.Backfiller.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Backfill did not stop before shutdown")
	}
	if err := container.Caches.SaveAll(); err != nil {
		log.Error().Err(err).Msg("Failed to persist caches")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
