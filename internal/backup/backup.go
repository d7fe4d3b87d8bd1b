package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/readtrack/readtrack-server/internal/backup/stream"
	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

const fileSuffix = ".readtrack.zip"

// BackupService manages backup creation and listing.
type BackupService struct {
	store     store.Store
	backupDir string
	version   string
	logger    *slog.Logger
}

// NewBackupService creates a BackupService writing archives to backupDir.
func NewBackupService(s store.Store, backupDir, version string, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:     s,
		backupDir: backupDir,
		version:   version,
		logger:    logger,
	}
}

// Create writes a new backup archive.
//
// The archive is written to a temp file and renamed on success, so a failed
// backup never leaves a partial archive behind. Kindle credentials are never
// included.
func (s *BackupService) Create(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = s.GetPath("backup-" + start.Format("2006-01-02-150405"))
	}

	s.logger.Info("creating backup",
		"output", outputPath,
		"include_kindle_history", opts.IncludeKindleHistory)

	tmpPath := outputPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hash))

	manifest := &Manifest{
		Version:               FormatVersion,
		CreatedAt:             start,
		ServerVersion:         s.version,
		IncludesKindleHistory: opts.IncludeKindleHistory,
	}

	if err := s.export(ctx, zw, manifest); err != nil {
		return nil, err
	}

	// Manifest goes last so it carries the final counts.
	if err := stream.Document(zw, manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("rename backup: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	result := &BackupResult{
		ID:       strings.TrimSuffix(filepath.Base(outputPath), fileSuffix),
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"books", result.Counts.Books,
		"reading_sessions", result.Counts.ReadingSessions,
		"duration", result.Duration)

	return result, nil
}

func (s *BackupService) export(ctx context.Context, zw *zip.Writer, manifest *Manifest) error {
	counts := &manifest.Counts

	settings, err := s.store.GetSettings(ctx)
	switch {
	case err == nil:
		public := *settings
		public.KindleCookies = ""
		public.KindleDeviceToken = ""
		if err := stream.Document(zw, settingsPath, &public); err != nil {
			return fmt.Errorf("export settings: %w", err)
		}
		manifest.IncludesSettings = true
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("export settings: %w", err)
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("export books: %w", err)
	}
	if counts.Books, err = stream.Lines(zw, booksPath, books); err != nil {
		return fmt.Errorf("export books: %w", err)
	}

	sessions, err := s.store.ListReadingSessions(ctx)
	if err != nil {
		return fmt.Errorf("export reading sessions: %w", err)
	}
	if counts.ReadingSessions, err = stream.Lines(zw, readingSessionsPath, sessions); err != nil {
		return fmt.Errorf("export reading sessions: %w", err)
	}

	goals, err := s.store.ListGoals(ctx, false)
	if err != nil {
		return fmt.Errorf("export goals: %w", err)
	}
	if counts.Goals, err = stream.Lines(zw, goalsPath, goals); err != nil {
		return fmt.Errorf("export goals: %w", err)
	}

	if !manifest.IncludesKindleHistory {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	snapshots, err := s.store.ListKindleSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("export kindle snapshots: %w", err)
	}
	if counts.KindleSnapshots, err = stream.Lines(zw, snapshotsPath, snapshots); err != nil {
		return fmt.Errorf("export kindle snapshots: %w", err)
	}

	logs, err := s.listSyncLogs(ctx)
	if err != nil {
		return fmt.Errorf("export sync logs: %w", err)
	}
	if counts.SyncLogs, err = stream.Lines(zw, syncLogsPath, logs); err != nil {
		return fmt.Errorf("export sync logs: %w", err)
	}
	return nil
}

func (s *BackupService) listSyncLogs(ctx context.Context) ([]*domain.SyncLog, error) {
	var all []*domain.SyncLog
	for _, source := range []domain.SyncSource{domain.SyncSourceKindle, domain.SyncSourceGoogleBooks} {
		logs, err := s.store.ListSyncLogs(ctx, source, 0)
		if err != nil {
			return nil, err
		}
		all = append(all, logs...)
	}
	return all, nil
}

// List returns all available backups, newest first.
func (s *BackupService) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), fileSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(_ context.Context, id string) (*BackupInfo, error) {
	path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &BackupInfo{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	info, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return os.Remove(info.Path)
}

// GetPath returns the file path for a backup ID.
func (s *BackupService) GetPath(id string) string {
	return filepath.Join(s.backupDir, id+fileSuffix)
}

// resolve maps an ID to its path, rejecting IDs that would escape the backup dir.
func (s *BackupService) resolve(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", ErrBackupNotFound
	}
	return s.GetPath(id), nil
}
