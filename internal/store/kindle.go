package store

import (
	"context"
	"slices"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// CreateKindleSnapshot stores a snapshot.
func (s *BadgerStore) CreateKindleSnapshot(ctx context.Context, snapshot *domain.KindleSnapshot) error {
	return s.snapshots.Create(ctx, snapshot.ID, snapshot)
}

// LatestKindleSnapshot returns the most recent snapshot, or nil if none exist.
func (s *BadgerStore) LatestKindleSnapshot(ctx context.Context) (*domain.KindleSnapshot, error) {
	snapshots, err := s.ListKindleSnapshots(ctx)
	if err != nil || len(snapshots) == 0 {
		return nil, err
	}
	return snapshots[0], nil
}

// ListKindleSnapshots returns all snapshots, newest first.
func (s *BadgerStore) ListKindleSnapshots(ctx context.Context) ([]*domain.KindleSnapshot, error) {
	snapshots, err := s.snapshots.ListByIndexPrefix(ctx, "snapshot_at", "")
	if err != nil {
		return nil, err
	}
	slices.Reverse(snapshots)
	return snapshots, nil
}

// DeleteKindleSnapshot deletes a snapshot.
func (s *BadgerStore) DeleteKindleSnapshot(ctx context.Context, id string) error {
	return s.snapshots.Delete(ctx, id)
}

// CreateSyncLog appends a sync log entry.
func (s *BadgerStore) CreateSyncLog(ctx context.Context, log *domain.SyncLog) error {
	return s.syncLogs.Create(ctx, log.ID, log)
}

// ListSyncLogs returns the source's logs, newest first.
func (s *BadgerStore) ListSyncLogs(ctx context.Context, source domain.SyncSource, limit int) ([]*domain.SyncLog, error) {
	logs, err := s.syncLogs.ListByIndexPrefix(ctx, "source", string(source)+":")
	if err != nil {
		return nil, err
	}
	slices.Reverse(logs)
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}
