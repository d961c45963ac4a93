package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	"github.com/aristath/quotebar/internal/modules/quotes"
	"github.com/aristath/quotebar/internal/reliability"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

type countingJob struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(testLogger())

	require.NoError(t, s.AddJob("0 5 0 * * *", &countingJob{}))
	require.NoError(t, s.AddJob("*/2 * * * *", &countingJob{}))
	require.NoError(t, s.AddJob("@every 60s", &countingJob{}))
	assert.Equal(t, 3, s.Jobs())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	assert.Equal(t, 3, s.Jobs())
}

func TestScheduler_NextRunsInEasternTime(t *testing.T) {
	s := New(testLogger())
	job := &countingJob{}
	require.NoError(t, s.AddJob("0 5 0 * * *", job))
	require.NoError(t, s.AddJob("0 30 15 * * FRI", job))

	// Friday 2026-10-16 08:00 ET, expressed in UTC
	from := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	runs := s.NextRuns("counting", from, 3)
	require.Len(t, runs, 3)

	assert.True(t, runs[0].Equal(time.Date(2026, 10, 16, 15, 30, 0, 0, market_hours.Eastern)), runs[0].String())
	assert.True(t, runs[1].Equal(time.Date(2026, 10, 17, 0, 5, 0, 0, market_hours.Eastern)), runs[1].String())
	assert.True(t, runs[2].Equal(time.Date(2026, 10, 18, 0, 5, 0, 0, market_hours.Eastern)), runs[2].String())

	assert.Empty(t, s.NextRuns("unknown", from, 3))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(testLogger())
	job := &countingJob{err: errors.New("fails but keeps running")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.count() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(testLogger())
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.count())
}

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	block   chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (quotes.Plan, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return quotes.Plan{}, ctx.Err()
		}
	}
	return quotes.Plan{Kind: quotes.PlanRegular}, f.err
}

func TestQuoteRefreshJob_SkipsOverlappingRuns(t *testing.T) {
	refresher := &fakeRefresher{block: make(chan struct{}), started: make(chan struct{}, 1)}
	job := NewQuoteRefreshJob(refresher, testLogger())

	done := make(chan error, 1)
	go func() { done <- job.Run() }()
	<-refresher.started

	assert.NoError(t, job.Run())

	close(refresher.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, refresher.calls)
}

func TestQuoteRefreshJob_Timeout(t *testing.T) {
	refresher := &fakeRefresher{block: make(chan struct{})}
	job := NewQuoteRefreshJob(refresher, testLogger())
	job.timeout = 20 * time.Millisecond

	err := job.Run()
	assert.ErrorContains(t, err, "timed out")
}

type fakeInvalidator struct{ changed []string }

func (f *fakeInvalidator) InvalidateStale() []string { return f.changed }

type fakeBackfill struct {
	started []*config.Universe
}

func (f *fakeBackfill) Start(u *config.Universe) string {
	f.started = append(f.started, u)
	return "run-1"
}

func TestInvalidationJob(t *testing.T) {
	universe := &config.Universe{Watchlist: []string{"AAPL"}}

	t.Run("restarts backfill when caches changed", func(t *testing.T) {
		backfill := &fakeBackfill{}
		job := NewInvalidationJob(&fakeInvalidator{changed: []string{"rsi"}}, backfill, func() *config.Universe { return universe }, testLogger())

		require.NoError(t, job.Run())
		require.Len(t, backfill.started, 1)
		assert.Same(t, universe, backfill.started[0])
	})

	t.Run("no restart when nothing is stale", func(t *testing.T) {
		backfill := &fakeBackfill{}
		job := NewInvalidationJob(&fakeInvalidator{}, backfill, func() *config.Universe { return universe }, testLogger())

		require.NoError(t, job.Run())
		assert.Empty(t, backfill.started)
	})
}

type fakeBackupService struct {
	result    *reliability.BackupResult
	err       error
	rotateErr error
	rotated   int
	retention int
}

func (f *fakeBackupService) CreateAndUploadBackup(context.Context) (*reliability.BackupResult, error) {
	return f.result, f.err
}

func (f *fakeBackupService) RotateOldBackups(_ context.Context, days int) (int, error) {
	f.retention = days
	return f.rotated, f.rotateErr
}

type recordingEmitter struct {
	names []string
	data  []any
}

func (r *recordingEmitter) Emit(event string, data any) {
	r.names = append(r.names, event)
	r.data = append(r.data, data)
}

func TestBackupJob_Success(t *testing.T) {
	svc := &fakeBackupService{
		result:  &reliability.BackupResult{Filename: "quotebar-backup-2026-10-17-033000.tar.gz", SizeBytes: 2048},
		rotated: 2,
	}
	emitter := &recordingEmitter{}
	job := NewBackupJob(svc, emitter, 30, testLogger())

	require.NoError(t, job.Run())
	assert.Equal(t, 30, svc.retention)
	require.Equal(t, []string{string(events.BackupCompleted)}, emitter.names)

	data, ok := emitter.data[0].(*events.BackupCompletedData)
	require.True(t, ok)
	assert.Equal(t, 2, data.Rotated)
	assert.Equal(t, int64(2048), data.Size)
}

func TestBackupJob_RotationFailureIsNotFatal(t *testing.T) {
	svc := &fakeBackupService{
		result:    &reliability.BackupResult{Filename: "b.tar.gz"},
		rotateErr: errors.New("list failed"),
	}
	emitter := &recordingEmitter{}
	job := NewBackupJob(svc, emitter, 30, testLogger())

	require.NoError(t, job.Run())
	assert.Equal(t, []string{string(events.BackupCompleted)}, emitter.names)
}

func TestBackupJob_UploadFailure(t *testing.T) {
	svc := &fakeBackupService{err: errors.New("bucket unavailable")}
	emitter := &recordingEmitter{}
	job := NewBackupJob(svc, emitter, 30, testLogger())

	assert.Error(t, job.Run())
	assert.Equal(t, []string{string(events.ErrorOccurred)}, emitter.names)
}
