package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/scheduler"
)

// Wire initializes all dependencies and returns a configured container and
// scheduler. Nothing is started.
// Order of operations:
// 1. Initialize storage
// 2. Initialize services
// 3. Register jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *scheduler.Scheduler, error) {
	container := &Container{}

	if err := InitializeStorage(container, cfg, log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	sched, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependencies wired")
	return container, sched, nil
}
