// Package storetest holds the behavioral checks every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

// Opener returns a fresh, empty store. The store is closed by the caller's cleanup.
type Opener func(t *testing.T) store.Store

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func newBook(id, asin string, status domain.BookStatus, updated time.Time) *domain.Book {
	b := &domain.Book{
		Record:     domain.Record{ID: id},
		Title:      "Title " + id,
		Author:     "Author " + id,
		KindleASIN: asin,
		Status:     status,
		Source:     domain.SourceManual,
	}
	b.InitTimestamps(updated)
	return b
}

func newSession(id, bookID string, day domain.CalendarDay) *domain.ReadingSession {
	rs := &domain.ReadingSession{
		Record: domain.Record{ID: id},
		BookID: bookID,
		Source: domain.SourceManual,
	}
	rs.SetDate(day.Time(time.UTC).Add(9*time.Hour), time.UTC)
	rs.InitTimestamps(base)
	return rs
}

// Run executes the contract against a backend.
func Run(t *testing.T, open Opener) {
	t.Run("Books", func(t *testing.T) { testBooks(t, open(t)) })
	t.Run("BookCascade", func(t *testing.T) { testBookCascade(t, open(t)) })
	t.Run("ReadingSessions", func(t *testing.T) { testReadingSessions(t, open(t)) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, open(t)) })
	t.Run("Snapshots", func(t *testing.T) { testSnapshots(t, open(t)) })
	t.Run("SyncLogs", func(t *testing.T) { testSyncLogs(t, open(t)) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, open(t)) })
	t.Run("SearchIndexer", func(t *testing.T) { testSearchIndexer(t, open(t)) })
}

func testBooks(t *testing.T, s store.Store) {
	ctx := context.Background()

	older := newBook("book-1", "A1", domain.StatusReading, base)
	older.PercentComplete = intPtr(40)
	newer := newBook("book-2", "", domain.StatusWantToRead, base.Add(time.Hour))
	noASIN := newBook("book-3", "", domain.StatusReading, base.Add(2*time.Hour))

	require.NoError(t, s.CreateBook(ctx, older))
	require.NoError(t, s.CreateBook(ctx, newer))
	require.NoError(t, s.CreateBook(ctx, noASIN))

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Title book-1", got.Title)
	require.NotNil(t, got.PercentComplete)
	assert.Equal(t, 40, *got.PercentComplete)

	byASIN, err := s.GetBookByASIN(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "book-1", byASIN.ID)

	_, err = s.GetBookByASIN(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	dup := newBook("book-4", "A1", domain.StatusReading, base)
	assert.ErrorIs(t, s.CreateBook(ctx, dup), store.ErrAlreadyExists)

	all, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "book-3", all[0].ID, "most recently updated first")

	reading, err := s.ListBooksByStatus(ctx, domain.StatusReading)
	require.NoError(t, err)
	assert.Len(t, reading, 2)

	got.SetStatus(domain.StatusCompleted, base.Add(3*time.Hour))
	got.Touch(base.Add(3 * time.Hour))
	require.NoError(t, s.UpdateBook(ctx, got))

	reading, err = s.ListBooksByStatus(ctx, domain.StatusReading)
	require.NoError(t, err)
	assert.Len(t, reading, 1)
	completed, err := s.ListBooksByStatus(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.NotNil(t, completed[0].CompletedAt)

	missing := newBook("nope", "", domain.StatusReading, base)
	assert.ErrorIs(t, s.UpdateBook(ctx, missing), store.ErrNotFound)
}

func testBookCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	day := domain.DayOf(base, time.UTC)

	require.NoError(t, s.CreateBook(ctx, newBook("book-1", "A1", domain.StatusReading, base)))
	require.NoError(t, s.CreateBook(ctx, newBook("book-2", "", domain.StatusReading, base)))
	require.NoError(t, s.CreateReadingSession(ctx, newSession("rs-1", "book-1", day)))
	require.NoError(t, s.CreateReadingSession(ctx, newSession("rs-2", "book-2", day)))

	require.NoError(t, s.DeleteBook(ctx, "book-1"))

	_, err := s.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetBookByASIN(ctx, "A1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	sessions, err := s.ListReadingSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "rs-2", sessions[0].ID)

	// The ASIN is free again.
	require.NoError(t, s.CreateBook(ctx, newBook("book-3", "A1", domain.StatusReading, base)))
}

func testReadingSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := domain.DayOf(base, time.UTC)

	require.NoError(t, s.CreateBook(ctx, newBook("book-1", "", domain.StatusReading, base)))
	require.NoError(t, s.CreateBook(ctx, newBook("book-2", "", domain.StatusReading, base)))

	first := newSession("rs-1", "book-1", d.Add(-2))
	first.PagesRead = intPtr(12)
	require.NoError(t, s.CreateReadingSession(ctx, first))
	require.NoError(t, s.CreateReadingSession(ctx, newSession("rs-2", "book-1", d)))
	require.NoError(t, s.CreateReadingSession(ctx, newSession("rs-3", "book-2", d.Add(-1))))
	require.NoError(t, s.CreateReadingSession(ctx, newSession("rs-4", "book-2", d.Add(-5))))

	got, err := s.GetReadingSession(ctx, "rs-1")
	require.NoError(t, err)
	assert.Equal(t, d.Add(-2), got.Day)
	assert.Equal(t, 12, got.Pages())

	all, err := s.ListReadingSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "rs-2", all[0].ID)
	assert.Equal(t, "rs-4", all[3].ID)

	forBook, err := s.ListReadingSessionsForBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Len(t, forBook, 2)

	inRange, err := s.ListReadingSessionsInRange(ctx, domain.DayRange{From: d.Add(-2), To: d.Add(-1)})
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "rs-3", inRange[0].ID)
	assert.Equal(t, "rs-1", inRange[1].ID)

	has, err := s.HasReadingSessionOnDay(ctx, "book-1", d)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = s.HasReadingSessionOnDay(ctx, "book-1", d.Add(-1))
	require.NoError(t, err)
	assert.False(t, has)

	// Moving a session moves its day.
	got.SetDate(d.Add(-1).Time(time.UTC), time.UTC)
	require.NoError(t, s.UpdateReadingSession(ctx, got))
	has, err = s.HasReadingSessionOnDay(ctx, "book-1", d.Add(-2))
	require.NoError(t, err)
	assert.False(t, has)
	has, err = s.HasReadingSessionOnDay(ctx, "book-1", d.Add(-1))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.DeleteReadingSession(ctx, "rs-2"))
	_, err = s.GetReadingSession(ctx, "rs-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGoals(t *testing.T, s store.Store) {
	ctx := context.Background()

	active := &domain.Goal{Record: domain.Record{ID: "goal-1"}, Type: domain.GoalDailyReading, Target: 5, Period: domain.PeriodWeek, StartDate: base, Active: true}
	active.InitTimestamps(base)
	inactive := &domain.Goal{Record: domain.Record{ID: "goal-2"}, Type: domain.GoalBooksPerYear, Target: 20, Period: domain.PeriodYear, StartDate: base}
	inactive.InitTimestamps(base.Add(time.Minute))

	require.NoError(t, s.CreateGoal(ctx, active))
	require.NoError(t, s.CreateGoal(ctx, inactive))

	all, err := s.ListGoals(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "goal-1", all[0].ID)

	onlyActive, err := s.ListGoals(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)

	active.Active = false
	require.NoError(t, s.UpdateGoal(ctx, active))
	onlyActive, err = s.ListGoals(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, onlyActive)

	require.NoError(t, s.DeleteGoal(ctx, "goal-2"))
	_, err = s.GetGoal(ctx, "goal-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSnapshots(t *testing.T, s store.Store) {
	ctx := context.Background()

	latest, err := s.LatestKindleSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	opened := base.Add(-time.Hour)
	for i, id := range []string{"snap-b", "snap-a", "snap-c"} {
		snap := &domain.KindleSnapshot{
			ID:         id,
			SnapshotAt: base.Add(time.Duration(i) * time.Minute),
			Books: []domain.KindleBook{
				{ASIN: "A1", Title: "One", Author: "Ann", PercentComplete: intPtr(10 * i), LastOpenedAt: &opened},
				{ASIN: "A2", Title: "Two", Author: "Bob"},
			},
		}
		require.NoError(t, s.CreateKindleSnapshot(ctx, snap))
	}

	latest, err = s.LatestKindleSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "snap-c", latest.ID)
	require.Len(t, latest.Books, 2)
	assert.Equal(t, 20, *latest.Books[0].PercentComplete)
	assert.True(t, opened.Equal(*latest.Books[0].LastOpenedAt))
	assert.Nil(t, latest.Books[1].PercentComplete)

	all, err := s.ListKindleSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"snap-c", "snap-a", "snap-b"}, []string{all[0].ID, all[1].ID, all[2].ID})

	require.NoError(t, s.DeleteKindleSnapshot(ctx, "snap-b"))
	all, err = s.ListKindleSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testSyncLogs(t *testing.T, s store.Store) {
	ctx := context.Background()

	entries := []*domain.SyncLog{
		{ID: "slog-1", Source: domain.SyncSourceKindle, Status: domain.SyncSuccess, ItemsAdded: 2, SyncedAt: base},
		{ID: "slog-2", Source: domain.SyncSourceGoogleBooks, Status: domain.SyncSuccess, SyncedAt: base.Add(time.Minute)},
		{ID: "slog-3", Source: domain.SyncSourceKindle, Status: domain.SyncError, ErrorMessage: "boom", SyncedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.CreateSyncLog(ctx, e))
	}

	logs, err := s.ListSyncLogs(ctx, domain.SyncSourceKindle, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "slog-3", logs[0].ID)
	assert.Equal(t, "boom", logs[0].ErrorMessage)

	logs, err = s.ListSyncLogs(ctx, domain.SyncSourceKindle, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	settings := &domain.UserSettings{VisitorID: "visitor", KindleCookies: "c", KindleDeviceToken: "d"}
	settings.InitTimestamps(base)
	require.NoError(t, s.SaveSettings(ctx, settings))

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SettingsID, got.ID)
	assert.Equal(t, "c", got.KindleCookies)
	assert.Nil(t, got.LastKindleSync)

	synced := base.Add(time.Hour)
	got.LastKindleSync = &synced
	got.KindleCookies = ""
	require.NoError(t, s.SaveSettings(ctx, got))

	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.LastKindleSync)
	assert.True(t, synced.Equal(*got.LastKindleSync))
	assert.Empty(t, got.KindleCookies)
	assert.Equal(t, "visitor", got.VisitorID)
}

type recordingIndexer struct {
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexBook(_ context.Context, b *domain.Book) error {
	r.indexed = append(r.indexed, b.ID)
	return nil
}

func (r *recordingIndexer) DeleteBook(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func testSearchIndexer(t *testing.T, s store.Store) {
	ctx := context.Background()
	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	b := newBook("book-1", "", domain.StatusReading, base)
	require.NoError(t, s.CreateBook(ctx, b))
	require.NoError(t, s.UpdateBook(ctx, b))
	require.NoError(t, s.DeleteBook(ctx, b.ID))

	assert.Equal(t, []string{"book-1", "book-1"}, idx.indexed)
	assert.Equal(t, []string{"book-1"}, idx.deleted)
}
