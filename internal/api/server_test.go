package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/backup"
	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/kindle"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/search"
	"github.com/readtrack/readtrack-server/internal/service"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

type stubFetcher struct {
	books []domain.KindleBook
}

func (f *stubFetcher) FetchLibrary(context.Context, kindle.Credentials) ([]domain.KindleBook, error) {
	return f.books, nil
}

type testServer struct {
	*Server
	now     time.Time
	fetcher *stubFetcher
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewBookIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	ts := &testServer{
		now:     time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
		fetcher: &stubFetcher{},
	}
	clock := service.Clock{Now: func() time.Time { return ts.now }, Location: time.UTC}
	log := logger.Discard()
	v := validation.New()

	settings := service.NewSettingsService(st, clock, log)
	stats := service.NewStatsService(st, clock, log)
	snapshots := service.NewSnapshotStore(st, 0, clock, log)

	services := &Services{
		Book:           service.NewBookService(st, index, v, clock, log),
		ReadingSession: service.NewReadingSessionService(st, v, clock, log),
		Stats:          stats,
		Goal:           service.NewGoalService(st, stats, v, clock, log),
		Settings:       settings,
		KindleSync:     service.NewKindleSyncService(st, settings, snapshots, ts.fetcher, service.KindleSyncConfig{}, clock, log),
		SearchIndex:    index,
		Backup:         backup.NewBackupService(st, filepath.Join(t.TempDir(), "backups"), "test", log),
		Restore:        backup.NewRestoreService(st, log),
	}

	ts.Server = NewServer(st, services, opts, log)
	t.Cleanup(ts.Close)
	return ts
}

// envelope is the decoded response wrapper.
type envelope struct {
	V       int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	status, env := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, env.V)
	assert.True(t, env.Success)
	health := decodeData[HealthResponse](t, env)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
	assert.Equal(t, "credentials not configured", health.Components["kindle"].Message)
}

func TestBookLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})

	status, env := ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{
		"title":  "Les Misérables",
		"author": "Victor Hugo",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	created := decodeData[domain.Book](t, env)
	assert.Equal(t, domain.StatusWantToRead, created.Status)

	status, env = ts.do(t, http.MethodPatch, "/api/v1/books/"+created.ID, map[string]any{"status": "reading"})
	require.Equal(t, http.StatusOK, status)
	updated := decodeData[domain.Book](t, env)
	assert.Equal(t, domain.StatusReading, updated.Status)
	assert.NotNil(t, updated.StartedAt)

	status, env = ts.do(t, http.MethodGet, "/api/v1/books?q=victor", nil)
	require.Equal(t, http.StatusOK, status)
	found := decodeData[BooksResponse](t, env)
	require.Len(t, found.Books, 1)
	assert.Equal(t, created.ID, found.Books[0].ID)

	status, _ = ts.do(t, http.MethodDelete, "/api/v1/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateBookValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	status, env := ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{"author": "Nobody"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	status, env = ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{
		"title": "Emma", "author": "Jane Austen", "status": "shelved",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestSessionsFeedStatsAndGoals(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{"title": "Emma", "author": "Jane Austen"})
	book := decodeData[domain.Book](t, env)

	status, env := ts.do(t, http.MethodPost, "/api/v1/sessions", map[string]any{
		"book_id":    book.ID,
		"date":       ts.now.Format(time.RFC3339),
		"pages_read": 25,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = ts.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, status)
	stats := decodeData[domain.ReadingStats](t, env)
	assert.Equal(t, 1, stats.ActiveDaysTotal)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 25, stats.TotalPagesRead)

	status, env = ts.do(t, http.MethodGet, "/api/v1/stats/monthly?months=2", nil)
	require.Equal(t, http.StatusOK, status)
	monthly := decodeData[MonthlyStatsResponse](t, env)
	require.Len(t, monthly.Months, 2)
	assert.Equal(t, "2024-03", monthly.Months[1].Month)

	status, env = ts.do(t, http.MethodGet, "/api/v1/sessions?from=2024-03-01&to=2024-03-31", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[SessionsResponse](t, env).Sessions, 1)

	status, env = ts.do(t, http.MethodPost, "/api/v1/goals", map[string]any{
		"type": "pages-per-day", "target": 20, "period": "day",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	goal := decodeData[domain.Goal](t, env)

	status, env = ts.do(t, http.MethodGet, "/api/v1/goals/"+goal.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, status)
	progress := decodeData[domain.GoalProgress](t, env)
	assert.Equal(t, 25, progress.Current)
	assert.Equal(t, 100, progress.Percentage)
	assert.True(t, progress.IsComplete)

	status, env = ts.do(t, http.MethodGet, "/api/v1/goals/progress", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[GoalProgressListResponse](t, env).Goals, 1)
}

func TestKindleSyncEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.fetcher.books = []domain.KindleBook{{ASIN: "B001", Title: "Dune", Author: "Frank Herbert"}}

	status, env := ts.do(t, http.MethodPost, "/api/v1/kindle/sync", nil)
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.False(t, env.Success)
	result := decodeData[service.SyncResult](t, env)
	assert.Equal(t, "NOT_CONFIGURED", string(result.ErrorCode))

	status, env = ts.do(t, http.MethodPut, "/api/v1/settings/kindle/credentials", map[string]any{
		"cookies": "session-id=abc", "device_token": "tok",
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	settings := decodeData[SettingsResponse](t, env)
	assert.True(t, settings.KindleConfigured)
	assert.NotContains(t, string(env.Data), "session-id=abc")

	status, env = ts.do(t, http.MethodPost, "/api/v1/kindle/sync", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	result = decodeData[service.SyncResult](t, env)
	assert.Equal(t, 1, result.BooksAdded)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/kindle/sync", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/kindle/logs", nil)
	require.Equal(t, http.StatusOK, status)
	logs := decodeData[SyncLogsResponse](t, env)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, domain.SyncSuccess, logs.Logs[0].Status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/kindle/status", nil)
	require.Equal(t, http.StatusOK, status)
	info := decodeData[service.SyncInfo](t, env)
	assert.False(t, info.CanSync)
	assert.True(t, info.Configured)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, Options{})

	status, env := ts.do(t, http.MethodGet, "/api/v1/nope", nil)

	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	ts := setupTestServer(t, Options{RequestsPerSecond: 0.001, Burst: 1})

	status, _ := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestBackupRoutes(t *testing.T) {
	ts := setupTestServer(t, Options{})

	_, env := ts.do(t, http.MethodPost, "/api/v1/books", map[string]any{"title": "Emma", "author": "Jane Austen"})
	book := decodeData[domain.Book](t, env)

	status, env := ts.do(t, http.MethodPost, "/api/v1/backups", map[string]any{})
	require.Equal(t, http.StatusCreated, status, env.Error)
	created := decodeData[backup.BackupResult](t, env)
	assert.Equal(t, 1, created.Counts.Books)

	status, _ = ts.do(t, http.MethodDelete, "/api/v1/books/"+book.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = ts.do(t, http.MethodPost, "/api/v1/backups/"+created.ID+"/restore", map[string]any{"mode": "merge"})
	require.Equal(t, http.StatusOK, status, env.Error)
	restored := decodeData[backup.RestoreResult](t, env)
	assert.Equal(t, 1, restored.Imported["books"])

	status, _ = ts.do(t, http.MethodGet, "/api/v1/books/"+book.ID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/backups/nope/validate", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
