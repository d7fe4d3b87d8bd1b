// Package store defines persistence for the readtrack server and its Badger backend.
package store

import (
	"context"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// Store is the persistence contract the services depend on. Every write is
// individually atomic; nothing groups writes across calls.
type Store interface {
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Books. KindleASIN is unique; a second book with the same ASIN fails
	// with ErrAlreadyExists. DeleteBook also deletes the book's sessions.
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByASIN(ctx context.Context, asin string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	ListBooksByStatus(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error)

	// Reading sessions. Lists are ordered newest day first.
	CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error
	GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error)
	UpdateReadingSession(ctx context.Context, session *domain.ReadingSession) error
	DeleteReadingSession(ctx context.Context, id string) error
	ListReadingSessions(ctx context.Context) ([]*domain.ReadingSession, error)
	ListReadingSessionsForBook(ctx context.Context, bookID string) ([]*domain.ReadingSession, error)
	ListReadingSessionsInRange(ctx context.Context, r domain.DayRange) ([]*domain.ReadingSession, error)
	HasReadingSessionOnDay(ctx context.Context, bookID string, day domain.CalendarDay) (bool, error)

	// Goals.
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	GetGoal(ctx context.Context, id string) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, goal *domain.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context, activeOnly bool) ([]*domain.Goal, error)

	// Kindle snapshots. LatestKindleSnapshot returns nil, nil when there is none.
	CreateKindleSnapshot(ctx context.Context, snapshot *domain.KindleSnapshot) error
	LatestKindleSnapshot(ctx context.Context) (*domain.KindleSnapshot, error)
	ListKindleSnapshots(ctx context.Context) ([]*domain.KindleSnapshot, error)
	DeleteKindleSnapshot(ctx context.Context, id string) error

	// Sync logs are append-only. ListSyncLogs is newest first; limit <= 0 means all.
	CreateSyncLog(ctx context.Context, log *domain.SyncLog) error
	ListSyncLogs(ctx context.Context, source domain.SyncSource, limit int) ([]*domain.SyncLog, error)

	// Settings singleton. GetSettings returns ErrNotFound before the first save.
	GetSettings(ctx context.Context) (*domain.UserSettings, error)
	SaveSettings(ctx context.Context, settings *domain.UserSettings) error
}

// SearchIndexer keeps the book search index in step with store writes.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer discards index updates.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
