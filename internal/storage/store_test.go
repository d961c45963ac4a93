package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/quotebar/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Version     int                `json:"version"`
	LastUpdated time.Time          `json:"lastUpdated"`
	Entries     map[string]float64 `json:"entries"`
}

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func sampleDoc() testDoc {
	return testDoc{
		Version:     1,
		LastUpdated: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Entries:     map[string]float64{"MSFT": 410.5, "AAPL": 190.25},
	}
}

func TestStore_LoadMissingDocument(t *testing.T) {
	s := New[testDoc]("ytd_prices", NewFileBackend(t.TempDir()), JSONCodec{}, testLogger())

	_, ok := s.Load()
	assert.False(t, ok)
}

func TestStore_SaveCreatesParentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s := New[testDoc]("ytd_prices", NewFileBackend(dir), JSONCodec{}, testLogger())

	require.NoError(t, s.Save(sampleDoc()))

	_, err := os.Stat(filepath.Join(dir, "ytd_prices.json"))
	assert.NoError(t, err)
}

func TestStore_FileBackendRoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		t.Run(codec.Extension(), func(t *testing.T) {
			s := New[testDoc]("doc", NewFileBackend(t.TempDir()), codec, testLogger())
			want := sampleDoc()

			require.NoError(t, s.Save(want))
			got, ok := s.Load()
			require.True(t, ok)

			assert.Equal(t, want.Version, got.Version)
			assert.True(t, want.LastUpdated.Equal(got.LastUpdated))
			assert.Equal(t, want.Entries, got.Entries)
		})
	}
}

func TestStore_CorruptDocumentLoadsAsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte("{not json"), 0644))

	s := New[testDoc]("doc", NewFileBackend(dir), JSONCodec{}, testLogger())
	_, ok := s.Load()
	assert.False(t, ok)
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New[testDoc]("doc", NewFileBackend(dir), JSONCodec{}, testLogger())

	require.NoError(t, s.Save(sampleDoc()))
	require.NoError(t, s.Save(sampleDoc()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestStore_SQLiteBackend(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "caches.db"),
		Profile: database.ProfileCache,
		Name:    "caches",
	})
	require.NoError(t, err)
	defer db.Close()

	backend, err := NewSQLiteBackend(db)
	require.NoError(t, err)

	s := New[testDoc]("rsi", backend, JSONCodec{}, testLogger())
	_, ok := s.Load()
	assert.False(t, ok)

	doc := sampleDoc()
	require.NoError(t, s.Save(doc))
	doc.Entries["NVDA"] = 120
	require.NoError(t, s.Save(doc))

	got, ok := s.Load()
	require.True(t, ok)
	assert.Len(t, got.Entries, 3)
	assert.True(t, strings.HasSuffix(s.Location(), "#rsi.json"))
}
