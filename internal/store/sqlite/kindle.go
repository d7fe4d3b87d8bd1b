package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

func scanSnapshot(sc scanner) (*domain.KindleSnapshot, error) {
	var (
		snap              domain.KindleSnapshot
		snapshotAt, books string
	)
	if err := sc.Scan(&snap.ID, &snapshotAt, &books); err != nil {
		return nil, err
	}

	var err error
	if snap.SnapshotAt, err = parseTime(snapshotAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(books), &snap.Books); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}

// CreateKindleSnapshot stores a snapshot with its library encoded as JSON.
func (s *Store) CreateKindleSnapshot(ctx context.Context, snapshot *domain.KindleSnapshot) error {
	books, err := json.Marshal(snapshot.Books)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kindle_snapshots (id, snapshot_at, books) VALUES (?, ?, ?)`,
		snapshot.ID, formatTime(snapshot.SnapshotAt), string(books),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// LatestKindleSnapshot returns the most recent snapshot, or nil if none exist.
func (s *Store) LatestKindleSnapshot(ctx context.Context) (*domain.KindleSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, snapshot_at, books FROM kindle_snapshots ORDER BY snapshot_at DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return snap, err
}

// ListKindleSnapshots returns all snapshots, newest first.
func (s *Store) ListKindleSnapshots(ctx context.Context) ([]*domain.KindleSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, snapshot_at, books FROM kindle_snapshots ORDER BY snapshot_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSnapshot)
}

// DeleteKindleSnapshot deletes a snapshot.
func (s *Store) DeleteKindleSnapshot(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kindle_snapshots WHERE id = ?`, id)
	return err
}

func scanSyncLog(sc scanner) (*domain.SyncLog, error) {
	var (
		l                        domain.SyncLog
		source, status, syncedAt string
		errMsg                   sql.NullString
	)
	err := sc.Scan(&l.ID, &source, &status, &l.ItemsAdded, &l.ItemsUpdated, &errMsg, &syncedAt)
	if err != nil {
		return nil, err
	}
	l.Source = domain.SyncSource(source)
	l.Status = domain.SyncStatus(status)
	l.ErrorMessage = errMsg.String
	if l.SyncedAt, err = parseTime(syncedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateSyncLog appends a sync log entry.
func (s *Store) CreateSyncLog(ctx context.Context, log *domain.SyncLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_logs (id, source, status, items_added, items_updated, error_message, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, string(log.Source), string(log.Status), log.ItemsAdded, log.ItemsUpdated,
		nullString(log.ErrorMessage), formatTime(log.SyncedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListSyncLogs returns the source's logs, newest first. limit <= 0 returns all.
func (s *Store) ListSyncLogs(ctx context.Context, source domain.SyncSource, limit int) ([]*domain.SyncLog, error) {
	query := `SELECT id, source, status, items_added, items_updated, error_message, synced_at
		FROM sync_logs WHERE source = ? ORDER BY synced_at DESC`
	args := []any{string(source)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSyncLog)
}
