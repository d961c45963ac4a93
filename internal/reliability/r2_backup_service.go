package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/database"
)

const (
	backupPrefix     = "quotebar-backup-"
	backupSuffix     = ".tar.gz"
	backupTimeLayout = "2006-01-02-150405"
	metadataFilename = "backup-metadata.json"
	stagingDirName   = "r2-staging"
	minBackupsToKeep = 3
)

// R2BackupService archives the cache directory and keeps a rotating set of
// copies in an object store
type R2BackupService struct {
	store   ObjectStore
	dataDir string
	db      *database.DB
	now     func() time.Time
	log     zerolog.Logger
}

// BackupMetadata is written into every archive
type BackupMetadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Files     []FileMetadata `json:"files"`
}

// FileMetadata describes a single archived file
type FileMetadata struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup stored in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupResult summarizes an uploaded archive
type BackupResult struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Files     int    `json:"files"`
}

type archiveEntry struct {
	name string
	path string
}

// NewR2BackupService creates a backup service. db is nil when caches live in
// plain files; otherwise the SQLite database is snapshotted with VACUUM INTO.
func NewR2BackupService(store ObjectStore, dataDir string, db *database.DB, log zerolog.Logger) *R2BackupService {
	return &R2BackupService{
		store:   store,
		dataDir: dataDir,
		db:      db,
		now:     time.Now,
		log:     log.With().Str("service", "r2_backup").Logger(),
	}
}

// CreateAndUploadBackup creates a backup archive and uploads it
func (s *R2BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupResult, error) {
	s.log.Info().Msg("Starting R2 backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, stagingDirName)
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	entries, err := s.collect(ctx, stagingDir)
	if err != nil {
		return nil, err
	}

	stamp := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: stamp,
		Version:   "1",
		Files:     make([]FileMetadata, 0, len(entries)),
	}
	for _, e := range entries {
		info, err := os.Stat(e.path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.name, err)
		}
		checksum, err := calculateChecksum(e.path)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", e.name, err)
		}
		metadata.Files = append(metadata.Files, FileMetadata{Name: e.name, SizeBytes: info.Size(), Checksum: checksum})
	}

	metadataPath := filepath.Join(stagingDir, metadataFilename)
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	entries = append(entries, archiveEntry{name: metadataFilename, path: metadataPath})

	archiveName := backupPrefix + stamp.Format(backupTimeLayout) + backupSuffix
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, entries); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile); err != nil {
		return nil, fmt.Errorf("failed to upload to r2: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("R2 backup completed successfully")

	return &BackupResult{Filename: archiveName, SizeBytes: archiveInfo.Size(), Files: len(metadata.Files)}, nil
}

// collect lists the cache documents in the data directory and, with the
// SQLite backend, snapshots the database into stagingDir.
func (s *R2BackupService) collect(ctx context.Context, stagingDir string) ([]archiveEntry, error) {
	dirEntries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var entries []archiveEntry
	for _, de := range dirEntries {
		name := de.Name()
		if !de.Type().IsRegular() || strings.HasPrefix(name, ".") || isDatabaseFile(name) {
			continue
		}
		entries = append(entries, archiveEntry{name: name, path: filepath.Join(s.dataDir, name)})
	}

	if s.db != nil {
		name := filepath.Base(s.db.Path())
		snapshot := filepath.Join(stagingDir, name)
		if err := s.db.Exec(ctx, "VACUUM INTO ?", snapshot); err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", s.db.Name(), err)
		}
		entries = append(entries, archiveEntry{name: name, path: snapshot})
	}

	return entries, nil
}

func isDatabaseFile(name string) bool {
	for _, suffix := range []string{".db", ".db-wal", ".db-shm", ".db-journal"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ListBackups lists stored backups, newest first
func (s *R2BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list r2 backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, backupPrefix) || !strings.HasSuffix(obj.Key, backupSuffix) {
			continue
		}

		raw := strings.TrimSuffix(strings.TrimPrefix(obj.Key, backupPrefix), backupSuffix)
		timestamp, err := time.Parse(backupTimeLayout, raw)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays and returns how
// many were removed. The newest minBackupsToKeep always survive; a retention
// of zero keeps everything.
func (s *R2BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if retentionDays <= 0 || len(backups) <= minBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[minBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", backup.Filename).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("R2 backup rotation completed")

	return deleted, nil
}

func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath string, entries []archiveEntry) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, e := range entries {
		if err := addFileToArchive(tarWriter, e.path, e.name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", e.name, err)
		}
	}
	return nil
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
