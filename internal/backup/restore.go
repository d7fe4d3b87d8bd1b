package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readtrack/readtrack-server/internal/backup/stream"
	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

// Entity type names used in RestoreResult.
const (
	entitySettings       = "settings"
	entityBooks          = "books"
	entitySessions       = "reading_sessions"
	entityGoals          = "goals"
	entitySnapshots      = "kindle_snapshots"
	entitySyncLogs       = "sync_logs"
	defaultMergeStrategy = MergeKeepLocal
)

// RestoreService restores from backups.
type RestoreService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s store.Store, logger *slog.Logger) *RestoreService {
	return &RestoreService{store: s, logger: logger}
}

// Restore restores from a backup file.
//
// Records are matched by ID. Kindle credentials and the last sync time are
// never touched. Sessions whose book is absent after the book pass are
// reported as errors and skipped.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("invalid restore mode %q", opts.Mode)
	}
	if !opts.MergeStrategy.Valid() {
		return nil, fmt.Errorf("invalid merge strategy %q", opts.MergeStrategy)
	}
	if opts.MergeStrategy == "" {
		opts.MergeStrategy = defaultMergeStrategy
	}

	s.logger.Info("starting restore",
		"path", path,
		"mode", opts.Mode,
		"merge_strategy", opts.MergeStrategy,
		"dry_run", opts.DryRun)

	start := time.Now()

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	if _, err := readManifest(&zr.Reader); err != nil {
		return nil, err
	}

	r := &restorer{
		store:  s.store,
		opts:   opts,
		result: &RestoreResult{Imported: map[string]int{}, Skipped: map[string]int{}},
	}

	if opts.Mode == RestoreModeFull && !opts.DryRun {
		if err := r.wipe(ctx); err != nil {
			return nil, fmt.Errorf("clear existing data: %w", err)
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, *zip.Reader) error
	}{
		{entitySettings, r.restoreSettings},
		{entityBooks, r.restoreBooks},
		{entitySessions, r.restoreSessions},
		{entityGoals, r.restoreGoals},
		{entitySnapshots, r.restoreSnapshots},
		{entitySyncLogs, r.restoreSyncLogs},
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := step.fn(ctx, &zr.Reader); err != nil {
			return nil, fmt.Errorf("restore %s: %w", step.name, err)
		}
	}

	r.result.Duration = time.Since(start)

	s.logger.Info("restore complete",
		"imported", r.result.Imported,
		"skipped", r.result.Skipped,
		"errors", len(r.result.Errors),
		"duration", r.result.Duration)

	return r.result, nil
}

// Validate checks a backup without importing.
func (s *RestoreService) Validate(_ context.Context, path string) (*ValidationResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("failed to open backup: %v", err)},
		}, nil
	}
	defer zr.Close()

	result := &ValidationResult{Valid: true}

	manifest, err := readManifest(&zr.Reader)
	if manifest != nil {
		result.Manifest = manifest
		result.ExpectedCounts = manifest.Counts
	}
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	for _, path := range []string{booksPath, readingSessionsPath, goalsPath} {
		if !stream.Has(&zr.Reader, path) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("missing file: %s", path))
		}
	}

	return result, nil
}

// readManifest decodes and version-checks the manifest. A manifest with the
// wrong version is returned alongside ErrVersionMismatch.
func readManifest(zr *zip.Reader) (*Manifest, error) {
	var manifest Manifest
	if err := stream.ReadDocument(zr, manifestPath, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.Version != FormatVersion {
		return &manifest, fmt.Errorf("%w: %s (want %s)", ErrVersionMismatch, manifest.Version, FormatVersion)
	}
	return &manifest, nil
}

type restorer struct {
	store  store.Store
	opts   RestoreOptions
	result *RestoreResult
}

func (r *restorer) imported(kind string) { r.result.Imported[kind]++ }
func (r *restorer) skipped(kind string)  { r.result.Skipped[kind]++ }

func (r *restorer) fail(kind, id string, err error) {
	r.result.Errors = append(r.result.Errors, RestoreError{EntityType: kind, EntityID: id, Error: err.Error()})
}

// replaceLocal reports whether a backup record overwrites the existing local one.
func (r *restorer) replaceLocal(local, backup time.Time) bool {
	if r.opts.Mode == RestoreModeFull {
		return true
	}
	switch r.opts.MergeStrategy {
	case MergeKeepBackup:
		return true
	case MergeNewest:
		return backup.After(local)
	default:
		return false
	}
}

func (r *restorer) wipe(ctx context.Context) error {
	books, err := r.store.ListBooks(ctx)
	if err != nil {
		return err
	}
	for _, b := range books {
		if err := r.store.DeleteBook(ctx, b.ID); err != nil {
			return err
		}
	}

	goals, err := r.store.ListGoals(ctx, false)
	if err != nil {
		return err
	}
	for _, g := range goals {
		if err := r.store.DeleteGoal(ctx, g.ID); err != nil {
			return err
		}
	}

	snapshots, err := r.store.ListKindleSnapshots(ctx)
	if err != nil {
		return err
	}
	for _, snap := range snapshots {
		if err := r.store.DeleteKindleSnapshot(ctx, snap.ID); err != nil {
			return err
		}
	}
	return nil
}

// records streams path from the archive. A missing file is an empty stream.
func records[T any](zr *zip.Reader, path string, kind string, r *restorer, fn func(*T) error) error {
	for item, err := range stream.Records[T](zr, path) {
		if errors.Is(err, stream.ErrMissing) {
			return nil
		}
		if err != nil {
			r.fail(kind, "", err)
			continue
		}
		if err := fn(&item); err != nil {
			return err
		}
	}
	return nil
}

// upsert creates a missing record or replaces an existing one when the mode
// and strategy allow it. Write failures are recorded, not returned.
func upsert[T any](
	ctx context.Context,
	r *restorer,
	kind, id string,
	updatedAt time.Time,
	get func(context.Context, string) (*T, error),
	localUpdatedAt func(*T) time.Time,
	create, update func(context.Context) error,
) error {
	local, err := get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !r.opts.DryRun {
			if err := create(ctx); err != nil {
				r.fail(kind, id, err)
				return nil
			}
		}
		r.imported(kind)
	case err != nil:
		return err
	case r.replaceLocal(localUpdatedAt(local), updatedAt):
		if !r.opts.DryRun {
			if err := update(ctx); err != nil {
				r.fail(kind, id, err)
				return nil
			}
		}
		r.imported(kind)
	default:
		r.skipped(kind)
	}
	return nil
}

func (r *restorer) restoreSettings(ctx context.Context, zr *zip.Reader) error {
	var backup domain.UserSettings
	err := stream.ReadDocument(zr, settingsPath, &backup)
	if errors.Is(err, stream.ErrMissing) {
		return nil
	}
	if err != nil {
		r.fail(entitySettings, domain.SettingsID, err)
		return nil
	}

	local, err := r.store.GetSettings(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		local = &domain.UserSettings{Record: backup.Record, VisitorID: backup.VisitorID}
	case err != nil:
		return err
	case !r.replaceLocal(local.UpdatedAt, backup.UpdatedAt):
		r.skipped(entitySettings)
		return nil
	}

	local.Theme = backup.Theme
	local.DefaultView = backup.DefaultView
	local.TLSClientAPIURL = backup.TLSClientAPIURL
	local.UpdatedAt = backup.UpdatedAt

	if !r.opts.DryRun {
		if err := r.store.SaveSettings(ctx, local); err != nil {
			r.fail(entitySettings, domain.SettingsID, err)
			return nil
		}
	}
	r.imported(entitySettings)
	return nil
}

func (r *restorer) restoreBooks(ctx context.Context, zr *zip.Reader) error {
	return records(zr, booksPath, entityBooks, r, func(b *domain.Book) error {
		return upsert(ctx, r, entityBooks, b.ID, b.UpdatedAt,
			r.store.GetBook,
			func(local *domain.Book) time.Time { return local.UpdatedAt },
			func(ctx context.Context) error { return r.store.CreateBook(ctx, b) },
			func(ctx context.Context) error { return r.store.UpdateBook(ctx, b) },
		)
	})
}

func (r *restorer) restoreSessions(ctx context.Context, zr *zip.Reader) error {
	return records(zr, readingSessionsPath, entitySessions, r, func(rs *domain.ReadingSession) error {
		// A dry run never writes books, so the parent check is skipped there.
		if !r.opts.DryRun {
			if _, err := r.store.GetBook(ctx, rs.BookID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					r.fail(entitySessions, rs.ID, fmt.Errorf("book %s not found", rs.BookID))
					return nil
				}
				return err
			}
		}
		return upsert(ctx, r, entitySessions, rs.ID, rs.UpdatedAt,
			r.store.GetReadingSession,
			func(local *domain.ReadingSession) time.Time { return local.UpdatedAt },
			func(ctx context.Context) error { return r.store.CreateReadingSession(ctx, rs) },
			func(ctx context.Context) error { return r.store.UpdateReadingSession(ctx, rs) },
		)
	})
}

func (r *restorer) restoreGoals(ctx context.Context, zr *zip.Reader) error {
	return records(zr, goalsPath, entityGoals, r, func(g *domain.Goal) error {
		return upsert(ctx, r, entityGoals, g.ID, g.UpdatedAt,
			r.store.GetGoal,
			func(local *domain.Goal) time.Time { return local.UpdatedAt },
			func(ctx context.Context) error { return r.store.CreateGoal(ctx, g) },
			func(ctx context.Context) error { return r.store.UpdateGoal(ctx, g) },
		)
	})
}

// Snapshots and sync logs are immutable, so existing IDs are always skipped.
func (r *restorer) restoreSnapshots(ctx context.Context, zr *zip.Reader) error {
	existing, err := r.store.ListKindleSnapshots(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, snap := range existing {
		seen[snap.ID] = true
	}

	return records(zr, snapshotsPath, entitySnapshots, r, func(snap *domain.KindleSnapshot) error {
		if seen[snap.ID] {
			r.skipped(entitySnapshots)
			return nil
		}
		if !r.opts.DryRun {
			if err := r.store.CreateKindleSnapshot(ctx, snap); err != nil {
				r.fail(entitySnapshots, snap.ID, err)
				return nil
			}
		}
		r.imported(entitySnapshots)
		return nil
	})
}

func (r *restorer) restoreSyncLogs(ctx context.Context, zr *zip.Reader) error {
	seen := map[string]bool{}
	for _, source := range []domain.SyncSource{domain.SyncSourceKindle, domain.SyncSourceGoogleBooks} {
		logs, err := r.store.ListSyncLogs(ctx, source, 0)
		if err != nil {
			return err
		}
		for _, l := range logs {
			seen[l.ID] = true
		}
	}

	return records(zr, syncLogsPath, entitySyncLogs, r, func(l *domain.SyncLog) error {
		if seen[l.ID] {
			r.skipped(entitySyncLogs)
			return nil
		}
		if !r.opts.DryRun {
			if err := r.store.CreateSyncLog(ctx, l); err != nil {
				r.fail(entitySyncLogs, l.ID, err)
				return nil
			}
		}
		r.imported(entitySyncLogs)
		return nil
	})
}
