package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/quotebar/internal/database"
)

// ErrNotFound is returned by backends when a document has never been written.
var ErrNotFound = errors.New("document not found")

// Backend persists opaque documents by name.
type Backend interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Location(name string) string
}

// FileBackend stores one file per document inside a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a backend rooted at dir. The directory is created on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Dir returns the root directory.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Location returns the file path of a document.
func (b *FileBackend) Location(name string) string {
	return filepath.Join(b.dir, name)
}

// Read returns the document contents or ErrNotFound.
func (b *FileBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.Location(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the document atomically: a reader sees either the old or the new
// contents, never a partial file.
func (b *FileBackend) Write(name string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, b.Location(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

const documentsSchema = `CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteBackend stores documents as rows of a single table.
type SQLiteBackend struct {
	db *database.DB
}

// NewSQLiteBackend creates the documents table if needed.
func NewSQLiteBackend(db *database.DB) (*SQLiteBackend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Exec(ctx, documentsSchema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Location describes where a document lives.
func (b *SQLiteBackend) Location(name string) string {
	return b.db.Path() + "#" + name
}

// Read returns the document contents or ErrNotFound.
func (b *SQLiteBackend) Read(name string) ([]byte, error) {
	var data []byte
	err := b.db.Conn().QueryRow("SELECT data FROM documents WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write upserts the document in a single statement.
func (b *SQLiteBackend) Write(name string, data []byte) error {
	_, err := b.db.Conn().Exec(
		`INSERT INTO documents (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
