package reliability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/quotebar/internal/database"
)

const (
	criticalFreeBytes = 200 << 20
	lowFreeBytes      = 1 << 30
)

// UsageFunc reports filesystem usage for a path.
type UsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// CacheMaintenanceJob checks free space under the data directory, removes a
// staging directory left by an interrupted backup and truncates the SQLite WAL.
type CacheMaintenanceJob struct {
	dataDir string
	db      *database.DB
	usage   UsageFunc
	log     zerolog.Logger
}

// NewCacheMaintenanceJob creates the daily maintenance job. db may be nil.
func NewCacheMaintenanceJob(dataDir string, db *database.DB, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		dataDir: dataDir,
		db:      db,
		usage:   disk.UsageWithContext,
		log:     log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *CacheMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.checkDiskSpace(ctx); err != nil {
		return err
	}

	staging := filepath.Join(j.dataDir, stagingDirName)
	if _, err := os.Stat(staging); err == nil {
		j.log.Warn().Str("path", staging).Msg("Removing stale backup staging directory")
		if err := os.RemoveAll(staging); err != nil {
			return fmt.Errorf("failed to remove staging directory: %w", err)
		}
	}

	if j.db != nil {
		if err := j.db.Exec(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
		}
	}

	j.log.Debug().Msg("Cache maintenance completed")
	return nil
}

// Name returns the job name for scheduler
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

func (j *CacheMaintenanceJob) checkDiskSpace(ctx context.Context) error {
	stat, err := j.usage(ctx, j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableMB := float64(stat.Free) / 1024 / 1024
	j.log.Debug().Float64("available_mb", availableMB).Msg("Disk space check")

	switch {
	case stat.Free < criticalFreeBytes:
		j.log.Error().Float64("available_mb", availableMB).Msg("Insufficient disk space for cache writes")
		return fmt.Errorf("only %.0f MB free under %s", availableMB, j.dataDir)
	case stat.Free < lowFreeBytes:
		j.log.Warn().Float64("available_mb", availableMB).Msg("Disk space running low")
	}
	return nil
}
