package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/kindle"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/store"
)

func firstLibrary() []domain.KindleBook {
	return []domain.KindleBook{
		{ASIN: "B001", Title: "Dune", Author: "Frank Herbert", PercentComplete: intPtr(100)},
		{ASIN: "B002", Title: "Emma", Author: "Jane Austen", PercentComplete: intPtr(40), LastOpenedAt: timePtr(at(time.March, 14, 22))},
		{ASIN: "B003", Title: "Ulysses", Author: "James Joyce", LastOpenedAt: timePtr(time.Unix(0, 0))},
	}
}

func TestSync_FirstSyncImportsLibrary(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	result := env.sync.Sync(ctx)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 3, result.BooksAdded)
	assert.Equal(t, 0, result.BooksUpdated)
	assert.Equal(t, 1, result.SessionsCreated)

	dune, err := env.store.GetBookByASIN(ctx, "B001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, dune.Status)
	assert.Equal(t, domain.SourceKindle, dune.Source)
	require.NotNil(t, dune.CompletedAt)
	assert.Nil(t, dune.LastReadAt)

	emma, err := env.store.GetBookByASIN(ctx, "B002")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, emma.Status)
	assert.NotNil(t, emma.StartedAt)
	require.NotNil(t, emma.PercentComplete)
	assert.Equal(t, 40, *emma.PercentComplete)

	ulysses, err := env.store.GetBookByASIN(ctx, "B003")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWantToRead, ulysses.Status)
	assert.Nil(t, ulysses.LastReadAt, "placeholder dates are not recorded")

	sessions, err := env.store.ListReadingSessionsForBook(ctx, emma.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	// 22:00 local on the 14th is the 15th in UTC; the local day wins.
	assert.Equal(t, domain.DateOf(2024, time.March, 14), sessions[0].Day)
	assert.Equal(t, "Synced from Kindle (40% complete)", sessions[0].Notes)
	assert.Equal(t, domain.SourceKindle, sessions[0].Source)

	last, err := env.settings.LastKindleSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(env.clock.Now()))

	logs, err := env.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SyncSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].ItemsAdded)

	snap, err := env.snapshots.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Books, 3)
}

func TestSync_RepeatedSyncIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	require.True(t, env.sync.Sync(ctx).Success)
	env.clock.Advance(2 * time.Hour)

	result := env.sync.Sync(ctx)
	require.True(t, result.Success, result.Error)
	assert.Zero(t, result.BooksAdded)
	assert.Zero(t, result.BooksUpdated)
	assert.Zero(t, result.SessionsCreated)

	all, err := env.store.ListReadingSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	books, err := env.store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestSync_ProgressCreatesSessionForToday(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	require.True(t, env.sync.Sync(ctx).Success)
	env.clock.Advance(2 * time.Hour)

	library := firstLibrary()
	library[1].PercentComplete = intPtr(75)
	library[1].LastOpenedAt = timePtr(at(time.March, 15, 11))
	env.fetcher.SetLibrary(library...)

	result := env.sync.Sync(ctx)
	require.True(t, result.Success, result.Error)
	assert.Zero(t, result.BooksAdded)
	assert.Equal(t, 1, result.BooksUpdated)
	assert.Equal(t, 1, result.SessionsCreated, "the last-opened pass must not duplicate today's session")

	emma, err := env.store.GetBookByASIN(ctx, "B002")
	require.NoError(t, err)
	assert.Equal(t, 75, *emma.PercentComplete)
	assert.Equal(t, domain.StatusReading, emma.Status)

	today, err := env.store.ListReadingSessionsInRange(ctx, domain.DayRange{
		From: domain.DateOf(2024, time.March, 15),
		To:   domain.DateOf(2024, time.March, 15),
	})
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "Progress: 40% → 75%", today[0].Notes)
}

func TestSync_PausedBookReachingEndIsCompleted(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	require.True(t, env.sync.Sync(ctx).Success)

	emma, err := env.store.GetBookByASIN(ctx, "B002")
	require.NoError(t, err)
	paused := domain.StatusPaused
	_, err = env.books.Update(ctx, emma.ID, UpdateBookInput{Status: &paused})
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	library := firstLibrary()
	library[1].PercentComplete = intPtr(100)
	env.fetcher.SetLibrary(library...)

	result := env.sync.Sync(ctx)
	require.True(t, result.Success, result.Error)

	emma, err = env.store.GetBookByASIN(ctx, "B002")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, emma.Status)
	require.NotNil(t, emma.CompletedAt)
	assert.True(t, emma.CompletedAt.Equal(env.clock.Now()))
}

func TestSync_NeverDowngradesExistingBooks(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	ctx := context.Background()

	done, err := env.books.Create(ctx, CreateBookInput{
		Title: "Middlemarch", Author: "George Eliot", KindleASIN: "B010", Status: domain.StatusCompleted,
	})
	require.NoError(t, err)
	wishlist, err := env.books.Create(ctx, CreateBookInput{
		Title: "Persuasion", Author: "Jane Austen", KindleASIN: "B011",
	})
	require.NoError(t, err)

	env.fetcher.SetLibrary(
		domain.KindleBook{ASIN: "B010", Title: "Middlemarch", Author: "George Eliot", PercentComplete: intPtr(30), LastOpenedAt: timePtr(at(time.March, 10, 9))},
		domain.KindleBook{ASIN: "B011", Title: "Persuasion", Author: "Jane Austen", PercentComplete: intPtr(5)},
	)

	result := env.sync.Sync(ctx)
	require.True(t, result.Success, result.Error)
	assert.Zero(t, result.BooksAdded)

	got, err := env.store.GetBook(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 30, *got.PercentComplete)
	require.NotNil(t, got.LastReadAt)
	assert.True(t, got.LastReadAt.Equal(at(time.March, 10, 9)))
	assert.Equal(t, domain.SourceManual, got.Source)

	upgraded, err := env.store.GetBook(ctx, wishlist.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, upgraded.Status)
	assert.NotNil(t, upgraded.StartedAt)
}

func TestSync_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	require.True(t, env.sync.Sync(ctx).Success)
	env.clock.Advance(30 * time.Minute)

	result := env.sync.Sync(ctx)
	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeRateLimited, result.ErrorCode)
	assert.Contains(t, result.Error, "Rate limited. Next sync available at")
	require.NotNil(t, result.NextSyncAt)
	assert.True(t, result.NextSyncAt.Equal(env.clock.Now().Add(30*time.Minute)))
	assert.Equal(t, 1, env.fetcher.Calls())

	logs, err := env.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "a rate-limited attempt is not logged")

	env.clock.Advance(30 * time.Minute)
	assert.True(t, env.sync.Sync(ctx).Success)
}

func TestSync_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result := env.sync.Sync(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeNotConfigured, result.ErrorCode)
	assert.Equal(t, "Kindle credentials not configured", result.Error)
	assert.Zero(t, env.fetcher.Calls())

	logs, err := env.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSync_FetchFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.err = fmt.Errorf("status 401: %w", kindle.ErrAuthFailed)
	ctx := context.Background()

	result := env.sync.Sync(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeAuthFailure, result.ErrorCode)
	assert.Contains(t, result.Error, "Kindle rejected the credentials")
	assert.Contains(t, result.Error, "status 401")
	assert.Zero(t, result.BooksAdded)
	assert.Zero(t, result.SessionsCreated)

	logs, err := env.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SyncError, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "authentication failed")

	last, err := env.settings.LastKindleSync(ctx)
	require.NoError(t, err)
	assert.Nil(t, last, "a failed sync does not start the cooldown")

	snap, err := env.snapshots.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	books, err := env.store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSync_TransportFailureReportsCause(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.err = fmt.Errorf("%w: dial tcp 127.0.0.1:8080: connection refused", kindle.ErrTransport)
	ctx := context.Background()

	result := env.sync.Sync(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeTransportFailure, result.ErrorCode)
	assert.Contains(t, result.Error, "connection refused")

	logs, err := env.sync.RecentLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, result.Error, logs[0].ErrorMessage)
}

// failingStore fails snapshot writes while failSnapshots is set.
type failingStore struct {
	store.Store
	failSnapshots bool
}

func (s *failingStore) CreateKindleSnapshot(ctx context.Context, snapshot *domain.KindleSnapshot) error {
	if s.failSnapshots {
		return errors.New("disk full")
	}
	return s.Store.CreateKindleSnapshot(ctx, snapshot)
}

func TestSync_ReconciliationFailureKeepsEarlierWrites(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.SetLibrary(firstLibrary()...)
	ctx := context.Background()

	fs := &failingStore{Store: env.store, failSnapshots: true}
	clock := Clock{Now: env.clock.Now, Location: testLocation}
	snaps := NewSnapshotStore(fs, DefaultSnapshotRetention, clock, logger.Discard())
	svc := NewKindleSyncService(fs, env.settings, snaps, env.fetcher, KindleSyncConfig{}, clock, logger.Discard())

	result := svc.Sync(ctx)

	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeReconciliationFailure, result.ErrorCode)
	assert.Contains(t, result.Error, "disk full")
	assert.Zero(t, result.BooksAdded)
	assert.Zero(t, result.BooksUpdated)
	assert.Zero(t, result.SessionsCreated)

	logs, err := svc.RecentLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.SyncError, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "save snapshot")

	last, err := env.settings.LastKindleSync(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	books, err := env.store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 3, "books written before the failure stay")
	sessions, err := env.store.ListReadingSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	fs.failSnapshots = false
	result = svc.Sync(ctx)
	require.True(t, result.Success, result.Error)
	assert.Zero(t, result.BooksAdded)
	assert.Zero(t, result.SessionsCreated)

	books, err = env.store.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 3)
	sessions, err = env.store.ListReadingSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	snap, err := snaps.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.Books, 3)
}

func TestSync_FetchTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	env.fetcher.block = true

	clock := Clock{Now: env.clock.Now, Location: testLocation}
	svc := NewKindleSyncService(env.store, env.settings, env.snapshots, env.fetcher,
		KindleSyncConfig{FetchTimeout: 20 * time.Millisecond}, clock, logger.Discard())

	result := svc.Sync(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, domainerrors.CodeTimeout, result.ErrorCode)
}

func TestSync_UsesStoredProxyURL(t *testing.T) {
	env := newTestEnv(t)
	env.configureKindle(t)
	ctx := context.Background()
	require.NoError(t, env.settings.SaveTLSClientAPIURL(ctx, "https://proxy.example.com"))

	require.True(t, env.sync.Sync(ctx).Success)

	assert.Equal(t, "https://proxy.example.com", env.fetcher.creds.ProxyURL)
	assert.Equal(t, "session-id=abc", env.fetcher.creds.Cookies)
	assert.Equal(t, "device-123", env.fetcher.creds.DeviceToken)
}

func TestKindleSyncService_LastSyncInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.sync.LastSyncInfo(ctx)
	require.NoError(t, err)
	assert.False(t, info.Configured)
	assert.True(t, info.CanSync)
	assert.Nil(t, info.LastSyncAt)

	env.configureKindle(t)
	require.True(t, env.sync.Sync(ctx).Success)

	info, err = env.sync.LastSyncInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.Configured)
	assert.False(t, info.CanSync)
	assert.Equal(t, domain.SyncSuccess, info.LastStatus)
	require.NotNil(t, info.NextSyncAt)
	assert.True(t, info.NextSyncAt.Equal(env.clock.Now().Add(DefaultSyncCooldown)))
}

func TestSnapshotStore_PrunesToRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snaps := NewSnapshotStore(env.store, 2, Clock{Now: env.clock.Now, Location: testLocation}, logger.Discard())

	var last *domain.KindleSnapshot
	for i := range 3 {
		snap, err := snaps.Save(ctx, []domain.KindleBook{{ASIN: fmt.Sprintf("B%03d", i)}})
		require.NoError(t, err)
		last = snap
		env.clock.Advance(time.Minute)
	}

	all, err := env.store.ListKindleSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	latest, err := snaps.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
}
