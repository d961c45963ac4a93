package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quotebar/internal/storage"
	testutil "github.com/aristath/quotebar/internal/testing"
)

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr map[string]error
	deleted   []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte), deleteErr: make(map[string]error)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = body
	}
	return files
}

func TestCreateAndUploadBackup_FileBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ytd_prices.json"), []byte(`{"version":1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "universe.yaml"), []byte("watchlist: [AAPL]\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "caches.db-wal"), []byte("wal"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ytd_prices.json.tmp"), []byte("partial"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	store := newMemoryStore()
	svc := NewR2BackupService(store, dir, nil, testLogger())
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 3, 30, 0, 0, time.UTC) }

	result, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "quotebar-backup-2026-10-17-033000.tar.gz", result.Filename)
	assert.Equal(t, 2, result.Files)

	uploaded, ok := store.objects[result.Filename]
	require.True(t, ok)
	assert.Equal(t, int64(len(uploaded)), result.SizeBytes)

	files := readArchive(t, uploaded)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"backup-metadata.json", "universe.yaml", "ytd_prices.json"}, names)
	assert.Equal(t, `{"version":1}`, string(files["ytd_prices.json"]))

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &meta))
	require.Len(t, meta.Files, 2)
	for _, f := range meta.Files {
		assert.Contains(t, f.Checksum, "sha256:")
	}

	_, err = os.Stat(filepath.Join(dir, stagingDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateAndUploadBackup_SQLiteSnapshot(t *testing.T) {
	dir := t.TempDir()
	db := testutil.NewTestDB(t)

	backend, err := storage.NewSQLiteBackend(db)
	require.NoError(t, err)
	require.NoError(t, backend.Write("rsi", []byte(`{"version":1}`)))

	store := newMemoryStore()
	svc := NewR2BackupService(store, dir, db, testLogger())

	result, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)

	files := readArchive(t, store.objects[result.Filename])
	require.Contains(t, files, "caches.db")
	assert.NotEmpty(t, files["caches.db"])
}

func TestCreateAndUploadBackup_UploadFailure(t *testing.T) {
	svc := NewR2BackupService(failingStore{}, t.TempDir(), nil, testLogger())
	_, err := svc.CreateAndUploadBackup(context.Background())
	assert.ErrorContains(t, err, "failed to upload")
}

type failingStore struct{}

func (failingStore) Upload(context.Context, string, io.Reader) error {
	return errors.New("bucket unavailable")
}
func (failingStore) List(context.Context, string) ([]ObjectInfo, error) {
	return nil, errors.New("bucket unavailable")
}
func (failingStore) Delete(context.Context, string) error { return nil }

func seedBackups(store *memoryStore, stamps ...time.Time) {
	for _, ts := range stamps {
		store.objects[backupPrefix+ts.Format(backupTimeLayout)+backupSuffix] = []byte("x")
	}
	store.objects["unrelated.txt"] = []byte("x")
	store.objects[backupPrefix+"garbage"+backupSuffix] = []byte("x")
}

func TestListBackups_NewestFirst(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	seedBackups(store, now.Add(-48*time.Hour), now.Add(-time.Hour), now.Add(-24*time.Hour))

	svc := NewR2BackupService(store, t.TempDir(), nil, testLogger())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, int64(1), backups[0].AgeHours)
	assert.Equal(t, int64(24), backups[1].AgeHours)
	assert.Equal(t, int64(48), backups[2].AgeHours)
}

func TestRotateOldBackups(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name          string
		ages          []time.Duration
		retentionDays int
		expected      int
	}{
		{"keeps minimum even when old", []time.Duration{40 * day, 50 * day, 60 * day}, 30, 0},
		{"deletes only past retention", []time.Duration{day, 2 * day, 3 * day, 10 * day, 40 * day, 50 * day}, 30, 2},
		{"old backups beyond the newest three", []time.Duration{31 * day, 32 * day, 33 * day, 34 * day}, 30, 1},
		{"zero retention keeps everything", []time.Duration{40 * day, 50 * day, 60 * day, 70 * day}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			stamps := make([]time.Time, len(tt.ages))
			for i, age := range tt.ages {
				stamps[i] = now.Add(-age)
			}
			seedBackups(store, stamps...)

			svc := NewR2BackupService(store, t.TempDir(), nil, testLogger())
			svc.now = func() time.Time { return now }

			deleted, err := svc.RotateOldBackups(context.Background(), tt.retentionDays)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, deleted)
			assert.Len(t, store.deleted, tt.expected)
		})
	}
}

func TestRotateOldBackups_DeleteFailureContinues(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	var stamps []time.Time
	for i := 0; i < 6; i++ {
		stamps = append(stamps, now.AddDate(0, 0, -40-i))
	}
	seedBackups(store, stamps...)
	store.deleteErr[backupPrefix+stamps[3].Format(backupTimeLayout)+backupSuffix] = errors.New("denied")

	svc := NewR2BackupService(store, t.TempDir(), nil, testLogger())
	svc.now = func() time.Time { return now }

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestRotateOldBackups_ListFailure(t *testing.T) {
	svc := NewR2BackupService(failingStore{}, t.TempDir(), nil, testLogger())
	_, err := svc.RotateOldBackups(context.Background(), 30)
	assert.Error(t, err)
}
