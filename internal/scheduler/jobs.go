package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/internal/reliability"
)

const (
	quoteRefreshTimeout = 45 * time.Second
	backupTimeout       = 10 * time.Minute
)

// QuoteRefreshJob refreshes quotes on a short interval. A tick that arrives
// while the previous refresh is still running is skipped.
type QuoteRefreshJob struct {
	refresher QuoteRefresher
	timeout   time.Duration
	running   atomic.Bool
	log       zerolog.Logger
}

// NewQuoteRefreshJob creates a new quote refresh job
func NewQuoteRefreshJob(refresher QuoteRefresher, log zerolog.Logger) *QuoteRefreshJob {
	return &QuoteRefreshJob{
		refresher: refresher,
		timeout:   quoteRefreshTimeout,
		log:       log.With().Str("job", "quote_refresh").Logger(),
	}
}

// Run executes the job
func (j *QuoteRefreshJob) Run() error {
	if !j.running.CompareAndSwap(false, true) {
		j.log.Debug().Msg("Previous refresh still running, skipping")
		return nil
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	plan, err := j.refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("quote refresh timed out after %s", j.timeout)
		}
		return err
	}
	j.log.Debug().Str("plan", string(plan.Kind)).Msg("Quote refresh finished")
	return nil
}

// Name returns the job name
func (j *QuoteRefreshJob) Name() string {
	return "quote_refresh"
}

// InvalidationJob sweeps stale cache epochs and restarts the backfill so the
// cleared entries are refetched.
type InvalidationJob struct {
	caches   StaleInvalidator
	backfill BackfillStarter
	universe func() *config.Universe
	log      zerolog.Logger
}

// NewInvalidationJob creates a new invalidation job
func NewInvalidationJob(caches StaleInvalidator, backfill BackfillStarter, universe func() *config.Universe, log zerolog.Logger) *InvalidationJob {
	return &InvalidationJob{
		caches:   caches,
		backfill: backfill,
		universe: universe,
		log:      log.With().Str("job", "cache_invalidation").Logger(),
	}
}

// Run executes the job
func (j *InvalidationJob) Run() error {
	changed := j.caches.InvalidateStale()
	if len(changed) == 0 {
		j.log.Debug().Msg("No stale caches")
		return nil
	}

	runID := j.backfill.Start(j.universe())
	j.log.Info().
		Strs("caches", changed).
		Str("run_id", runID).
		Msg("Stale caches cleared, backfill restarted")
	return nil
}

// Name returns the job name
func (j *InvalidationJob) Name() string {
	return "cache_invalidation"
}

// BackupJob uploads a cache backup and rotates old ones
type BackupJob struct {
	service       BackupService
	emitter       EventEmitter
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service BackupService, emitter EventEmitter, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		emitter:       emitter,
		retentionDays: retentionDays,
		timeout:       backupTimeout,
		log:           log.With().Str("job", "r2_backup").Logger(),
	}
}

// Run executes the job. Rotation failures are logged; the upload already
// succeeded.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.service.CreateAndUploadBackup(ctx)
	if err != nil {
		if j.emitter != nil {
			j.emitter.Emit(string(events.ErrorOccurred), events.NewErrorData(j.Name(), err, nil))
		}
		return err
	}

	rotated, err := j.service.RotateOldBackups(ctx, j.retentionDays)
	if err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	if j.emitter != nil {
		j.emitter.Emit(string(events.BackupCompleted), &events.BackupCompletedData{
			Filename: result.Filename,
			Size:     result.SizeBytes,
			Rotated:  rotated,
		})
	}
	return nil
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "r2_backup"
}

var (
	_ Job = (*QuoteRefreshJob)(nil)
	_ Job = (*InvalidationJob)(nil)
	_ Job = (*BackupJob)(nil)
	_ Job = (*reliability.CacheMaintenanceJob)(nil)
)
