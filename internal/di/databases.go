package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/database"
	"github.com/aristath/quotebar/internal/storage"
)

// CacheDatabaseFile is the SQLite file used by the sqlite backend
const CacheDatabaseFile = "caches.db"

// InitializeStorage selects the cache backend and codec
func InitializeStorage(container *Container, cfg *config.Config, log zerolog.Logger) error {
	codec, err := storage.CodecFor(cfg.CacheFormat)
	if err != nil {
		return err
	}
	container.Codec = codec

	switch cfg.CacheBackend {
	case config.BackendSQLite:
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, CacheDatabaseFile),
			Profile: database.ProfileCache,
			Name:    "caches",
		})
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		backend, err := storage.NewSQLiteBackend(db)
		if err != nil {
			db.Close()
			return err
		}
		container.CacheDB = db
		container.Backend = backend
	default:
		container.Backend = storage.NewFileBackend(cfg.DataDir)
	}

	log.Info().
		Str("backend", cfg.CacheBackend).
		Str("format", cfg.CacheFormat).
		Str("data_dir", cfg.DataDir).
		Msg("Cache storage initialized")
	return nil
}
