// Package testing provides test doubles and fixtures shared across packages.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/quotebar/internal/database"
)

// NewTestDB opens a SQLite cache database in a per-test temporary directory.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "caches.db"),
		Profile: database.ProfileCache,
		Name:    "caches",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
