package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// timeKeyLayout sorts lexically in time order.
const timeKeyLayout = "20060102T150405.000000000Z"

func timeKey(t time.Time) string {
	return t.UTC().Format(timeKeyLayout)
}

// BadgerStore implements Store on an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	// Set after construction to avoid an import cycle with the search package.
	searchIndexer SearchIndexer

	books     *Entity[domain.Book]
	sessions  *Entity[domain.ReadingSession]
	goals     *Entity[domain.Goal]
	snapshots *Entity[domain.KindleSnapshot]
	syncLogs  *Entity[domain.SyncLog]
	settings  *Entity[domain.UserSettings]
}

var _ Store = (*BadgerStore)(nil)

// New opens (or creates) a Badger store at path. A nil logger disables logging.
func New(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &BadgerStore{
		db:            db,
		logger:        logger,
		searchIndexer: NewNoopSearchIndexer(),
	}
	s.initEntities()

	if logger != nil {
		logger.Info("badger database opened", "path", path)
	}
	return s, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.logger != nil {
		s.logger.Info("closing badger database")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the indexer notified on book writes.
func (s *BadgerStore) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

func (s *BadgerStore) initEntities() {
	s.books = NewEntity[domain.Book](s.db, "book:").
		WithIndex("asin", func(b *domain.Book) []string {
			if b.KindleASIN == "" {
				return nil
			}
			return []string{b.KindleASIN}
		}).
		WithIndex("status", func(b *domain.Book) []string {
			return []string{string(b.Status) + ":" + b.ID}
		})

	s.sessions = NewEntity[domain.ReadingSession](s.db, "rs:").
		WithIndex("book", func(rs *domain.ReadingSession) []string {
			return []string{rs.BookID + ":" + rs.ID}
		}).
		WithIndex("book_day", func(rs *domain.ReadingSession) []string {
			return []string{rs.BookID + ":" + rs.Day.String() + ":" + rs.ID}
		}).
		WithIndex("day", func(rs *domain.ReadingSession) []string {
			return []string{rs.Day.String() + ":" + rs.ID}
		})

	s.goals = NewEntity[domain.Goal](s.db, "goal:")

	s.snapshots = NewEntity[domain.KindleSnapshot](s.db, "snap:").
		WithIndex("snapshot_at", func(k *domain.KindleSnapshot) []string {
			return []string{timeKey(k.SnapshotAt) + ":" + k.ID}
		})

	s.syncLogs = NewEntity[domain.SyncLog](s.db, "synclog:").
		WithIndex("source", func(l *domain.SyncLog) []string {
			return []string{string(l.Source) + ":" + timeKey(l.SyncedAt) + ":" + l.ID}
		})

	s.settings = NewEntity[domain.UserSettings](s.db, "settings:")
}

// indexBook pushes a book to the search index. Failures are logged, not returned,
// so search never blocks a write.
func (s *BadgerStore) indexBook(ctx context.Context, book *domain.Book) {
	if err := s.searchIndexer.IndexBook(ctx, book); err != nil && s.logger != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

func (s *BadgerStore) unindexBook(ctx context.Context, id string) {
	if err := s.searchIndexer.DeleteBook(ctx, id); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove book from index", "book_id", id, "error", err)
	}
}
