package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/id"
	"github.com/readtrack/readtrack-server/internal/store"
)

// DefaultSnapshotRetention is how many library snapshots are kept.
const DefaultSnapshotRetention = 10

// SnapshotStore keeps a bounded history of Kindle library snapshots.
type SnapshotStore struct {
	store     store.Store
	retention int
	clock     Clock
	logger    *slog.Logger
}

// NewSnapshotStore creates a snapshot store keeping the retention most recent
// snapshots. Non-positive retention uses DefaultSnapshotRetention.
func NewSnapshotStore(store store.Store, retention int, clock Clock, logger *slog.Logger) *SnapshotStore {
	if retention <= 0 {
		retention = DefaultSnapshotRetention
	}
	return &SnapshotStore{
		store:     store,
		retention: retention,
		clock:     clock,
		logger:    logger,
	}
}

// Latest returns the most recent snapshot, or nil if none exists.
func (s *SnapshotStore) Latest(ctx context.Context) (*domain.KindleSnapshot, error) {
	return s.store.LatestKindleSnapshot(ctx)
}

// Save appends a snapshot of books taken now and prunes the oldest beyond retention.
func (s *SnapshotStore) Save(ctx context.Context, books []domain.KindleBook) (*domain.KindleSnapshot, error) {
	snapID, err := id.Generate(id.PrefixSnapshot)
	if err != nil {
		return nil, err
	}

	snap := &domain.KindleSnapshot{
		ID:         snapID,
		SnapshotAt: s.clock.Now(),
		Books:      books,
	}
	if err := s.store.CreateKindleSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	if err := s.prune(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// prune deletes everything past the retention limit. ListKindleSnapshots is newest first.
func (s *SnapshotStore) prune(ctx context.Context) error {
	snaps, err := s.store.ListKindleSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snaps) <= s.retention {
		return nil
	}

	for _, old := range snaps[s.retention:] {
		if err := s.store.DeleteKindleSnapshot(ctx, old.ID); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", old.ID, err)
		}
	}
	s.logger.Debug("pruned kindle snapshots", "deleted", len(snaps)-s.retention, "kept", s.retention)
	return nil
}
