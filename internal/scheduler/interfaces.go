package scheduler

import (
	"context"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/aristath/quotebar/internal/reliability"
)

// QuoteRefresher runs one quote refresh
type QuoteRefresher interface {
	Refresh(ctx context.Context) (quotes.Plan, error)
}

// StaleInvalidator clears caches whose epoch has rolled over
type StaleInvalidator interface {
	InvalidateStale() []string
}

// BackfillStarter restarts the backfill for a universe
type BackfillStarter interface {
	Start(universe *config.Universe) string
}

// BackupService creates and rotates cache backups
type BackupService interface {
	CreateAndUploadBackup(ctx context.Context) (*reliability.BackupResult, error)
	RotateOldBackups(ctx context.Context, retentionDays int) (int, error)
}

// EventEmitter publishes job outcomes
type EventEmitter interface {
	Emit(event string, data any)
}
