package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/kindle"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// testLocation is west of UTC so late-evening reads land on a different UTC date.
var testLocation = time.FixedZone("EST", -5*60*60)

// fakeClock is a settable wall clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeFetcher returns a canned library.
type fakeFetcher struct {
	mu    sync.Mutex
	books []domain.KindleBook
	err   error
	block bool
	calls int
	creds kindle.Credentials
}

func (f *fakeFetcher) FetchLibrary(ctx context.Context, creds kindle.Credentials) ([]domain.KindleBook, error) {
	f.mu.Lock()
	f.calls++
	f.creds = creds
	books, err, block := f.books, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.KindleBook, len(books))
	copy(out, books)
	return out, nil
}

func (f *fakeFetcher) SetLibrary(books ...domain.KindleBook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books = books
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	store     store.Store
	clock     *fakeClock
	fetcher   *fakeFetcher
	settings  *SettingsService
	books     *BookService
	sessions  *ReadingSessionService
	stats     *StatsService
	goals     *GoalService
	snapshots *SnapshotStore
	sync      *KindleSyncService
}

// newTestEnv wires every service over a temp-dir Badger store. The clock
// starts at 2024-03-15 10:00 local time.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fc := &fakeClock{now: time.Date(2024, time.March, 15, 10, 0, 0, 0, testLocation)}
	clock := Clock{Now: fc.Now, Location: testLocation}
	log := logger.Discard()
	v := validation.New()

	env := &testEnv{
		store:   s,
		clock:   fc,
		fetcher: &fakeFetcher{},
	}
	env.settings = NewSettingsService(s, clock, log)
	env.books = NewBookService(s, nil, v, clock, log)
	env.sessions = NewReadingSessionService(s, v, clock, log)
	env.stats = NewStatsService(s, clock, log)
	env.goals = NewGoalService(s, env.stats, v, clock, log)
	env.snapshots = NewSnapshotStore(s, DefaultSnapshotRetention, clock, log)
	env.sync = NewKindleSyncService(s, env.settings, env.snapshots, env.fetcher, KindleSyncConfig{}, clock, log)
	return env
}

func (e *testEnv) configureKindle(t *testing.T) {
	t.Helper()
	require.NoError(t, e.settings.SaveCredentials(context.Background(), domain.KindleCredentials{
		Cookies:     "session-id=abc",
		DeviceToken: "device-123",
	}))
}

// at returns a time on the given 2024 date in the test location.
func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, testLocation)
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func (e *testEnv) addSession(t *testing.T, bookID string, date time.Time, pages int) *domain.ReadingSession {
	t.Helper()
	rs, err := e.sessions.Create(context.Background(), CreateSessionInput{
		BookID:    bookID,
		Date:      date,
		PagesRead: intPtr(pages),
	})
	require.NoError(t, err)
	return rs
}

func (e *testEnv) addBook(t *testing.T, title string, status domain.BookStatus) *domain.Book {
	t.Helper()
	b, err := e.books.Create(context.Background(), CreateBookInput{
		Title:  title,
		Author: "Test Author",
		Status: status,
	})
	require.NoError(t, err)
	return b
}
