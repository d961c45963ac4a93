package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/reliability"
	"github.com/aristath/quotebar/internal/scheduler"
)

const (
	// MaintenanceSchedule runs the cache maintenance job daily at 02:15 Eastern
	MaintenanceSchedule = "0 15 2 * * *"
	// SneakPeekSchedule re-runs invalidation when the Friday EMA epoch rolls
	SneakPeekSchedule = "0 30 15 * * FRI"
)

type scheduledJob struct {
	schedule string
	job      scheduler.Job
}

// RegisterJobs creates the scheduler and registers every periodic job.
// The backup job is only registered when R2 is configured.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	invalidation := scheduler.NewInvalidationJob(container.Caches, container.Backfiller, container.Universe.Get, log)

	jobs := []scheduledJob{
		{cfg.QuoteRefreshSchedule, scheduler.NewQuoteRefreshJob(container.Coordinator, log)},
		{cfg.InvalidationSchedule, invalidation},
		{SneakPeekSchedule, invalidation},
		{MaintenanceSchedule, reliability.NewCacheMaintenanceJob(cfg.DataDir, container.CacheDB, log)},
	}
	if container.Backup != nil {
		jobs = append(jobs, scheduledJob{
			cfg.BackupSchedule,
			scheduler.NewBackupJob(container.Backup, container.EventBus, cfg.R2.RetentionDays, log),
		})
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", j.job.Name(), err)
		}
		log.Debug().Str("job", j.job.Name()).Str("schedule", j.schedule).Msg("Job registered")
	}
	return sched, nil
}
