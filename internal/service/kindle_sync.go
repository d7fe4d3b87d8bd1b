package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/id"
	"github.com/readtrack/readtrack-server/internal/kindle"
	"github.com/readtrack/readtrack-server/internal/store"
)

const (
	// DefaultSyncCooldown is the minimum time between successful syncs.
	DefaultSyncCooldown = time.Hour
	// DefaultFetchTimeout bounds one library fetch.
	DefaultFetchTimeout = 30 * time.Second
)

// KindleFetcher retrieves the current Kindle library.
type KindleFetcher interface {
	FetchLibrary(ctx context.Context, creds kindle.Credentials) ([]domain.KindleBook, error)
}

// SyncResult is the outcome of one sync. Failures carry zero counts.
type SyncResult struct {
	Success         bool              `json:"success"`
	BooksAdded      int               `json:"books_added"`
	BooksUpdated    int               `json:"books_updated"`
	SessionsCreated int               `json:"sessions_created"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       domainerrors.Code `json:"error_code,omitempty"`
	NextSyncAt      *time.Time        `json:"next_sync_at,omitempty"`
}

// SyncInfo describes the most recent sync.
type SyncInfo struct {
	LastSyncAt *time.Time        `json:"last_sync_at,omitempty"`
	LastStatus domain.SyncStatus `json:"last_status,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
	CanSync    bool              `json:"can_sync"`
	NextSyncAt *time.Time        `json:"next_sync_at,omitempty"`
	Configured bool              `json:"configured"`
}

// KindleSyncConfig holds the sync tunables.
type KindleSyncConfig struct {
	Cooldown     time.Duration
	FetchTimeout time.Duration
}

// KindleSyncService reconciles the Kindle library into books and reading sessions.
//
// A sync runs in four steps: gate (cooldown, then credentials), fetch,
// reconcile the change set against the latest snapshot, then record the new
// snapshot, the sync time and a log entry. Only one sync runs at a time.
type KindleSyncService struct {
	mu sync.Mutex

	store     store.Store
	settings  *SettingsService
	snapshots *SnapshotStore
	fetcher   KindleFetcher
	clock     Clock
	logger    *slog.Logger

	cooldown     time.Duration
	fetchTimeout time.Duration
}

// NewKindleSyncService creates a new sync service.
func NewKindleSyncService(
	store store.Store,
	settings *SettingsService,
	snapshots *SnapshotStore,
	fetcher KindleFetcher,
	cfg KindleSyncConfig,
	clock Clock,
	logger *slog.Logger,
) *KindleSyncService {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultSyncCooldown
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &KindleSyncService{
		store:        store,
		settings:     settings,
		snapshots:    snapshots,
		fetcher:      fetcher,
		clock:        clock,
		logger:       logger,
		cooldown:     cfg.Cooldown,
		fetchTimeout: cfg.FetchTimeout,
	}
}

// CanSync reports whether the cooldown has passed. When it has not, next is
// the earliest time a sync will be accepted.
func (s *KindleSyncService) CanSync(ctx context.Context) (allowed bool, next time.Time, err error) {
	last, err := s.settings.LastKindleSync(ctx)
	if err != nil {
		return false, time.Time{}, err
	}
	if last == nil {
		return true, time.Time{}, nil
	}
	next = last.Add(s.cooldown)
	return !s.clock.Now().Before(next), next, nil
}

// Sync runs one reconciliation cycle. It never returns an error; failures are
// reported in the result and, once past the gates, in a sync log.
func (s *KindleSyncService) Sync(ctx context.Context) *SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, next, err := s.CanSync(ctx)
	if err != nil {
		return failedResult(err)
	}
	if !allowed {
		return &SyncResult{
			Error:      fmt.Sprintf("Rate limited. Next sync available at %s", next.In(s.clock.Location).Format(time.Kitchen)),
			ErrorCode:  domainerrors.CodeRateLimited,
			NextSyncAt: &next,
		}
	}

	creds, err := s.settings.GetCredentials(ctx)
	if err != nil {
		return failedResult(err)
	}
	if creds == nil {
		return failedResult(domainerrors.NotConfigured("Kindle credentials not configured"))
	}
	proxyURL, err := s.settings.GetTLSClientAPIURL(ctx)
	if err != nil {
		return failedResult(err)
	}

	start := time.Now()
	s.logger.Info("kindle sync started")

	result, err := s.run(ctx, kindle.Credentials{
		Cookies:     creds.Cookies,
		DeviceToken: creds.DeviceToken,
		ProxyURL:    proxyURL,
	})
	if err != nil {
		s.logger.Error("kindle sync failed", "error", err, "duration", time.Since(start))
		s.writeLog(ctx, &domain.SyncLog{
			Status:       domain.SyncError,
			ErrorMessage: err.Error(),
		})
		return failedResult(err)
	}

	s.logger.Info("kindle sync completed",
		"books_added", result.BooksAdded,
		"books_updated", result.BooksUpdated,
		"sessions_created", result.SessionsCreated,
		"duration", time.Since(start),
	)
	return result
}

func (s *KindleSyncService) run(ctx context.Context, creds kindle.Credentials) (*SyncResult, error) {
	current, err := s.fetch(ctx, creds)
	if err != nil {
		return nil, err
	}

	previous, err := s.snapshots.Latest(ctx)
	if err != nil {
		return nil, reconcileError(err, "load latest snapshot")
	}
	changes := domain.DetectChanges(previous, current)

	s.logger.Debug("kindle changes detected",
		"library", len(current),
		"new", len(changes.NewBooks),
		"progressed", len(changes.ProgressChanges),
		"opened", len(changes.RecentlyOpened),
	)

	result := &SyncResult{Success: true}
	if err := s.applyNewBooks(ctx, changes.NewBooks, result); err != nil {
		return nil, err
	}
	if err := s.applyProgress(ctx, changes.ProgressChanges, result); err != nil {
		return nil, err
	}
	if err := s.applyLastOpened(ctx, current, result); err != nil {
		return nil, err
	}

	if _, err := s.snapshots.Save(ctx, current); err != nil {
		return nil, reconcileError(err, "save snapshot")
	}
	if err := s.settings.MarkKindleSynced(ctx, s.clock.Now()); err != nil {
		return nil, reconcileError(err, "record sync time")
	}
	s.writeLog(ctx, &domain.SyncLog{
		Status:       domain.SyncSuccess,
		ItemsAdded:   result.BooksAdded,
		ItemsUpdated: result.BooksUpdated,
	})
	return result, nil
}

func (s *KindleSyncService) fetch(ctx context.Context, creds kindle.Credentials) ([]domain.KindleBook, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	books, err := s.fetcher.FetchLibrary(ctx, creds)
	switch {
	case err == nil:
		return books, nil
	case errors.Is(err, kindle.ErrAuthFailed):
		return nil, domainerrors.Wrap(err, domainerrors.CodeAuthFailure, "Kindle rejected the credentials")
	case errors.Is(err, kindle.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return nil, domainerrors.Wrap(err, domainerrors.CodeTimeout, "Kindle library fetch timed out")
	default:
		return nil, domainerrors.Wrap(err, domainerrors.CodeTransportFailure, "Kindle library fetch failed")
	}
}

// applyNewBooks inserts items not in the previous snapshot. An item whose ASIN
// is already on the shelf is refreshed instead, and its status only moves up
// from want-to-read.
func (s *KindleSyncService) applyNewBooks(ctx context.Context, items []domain.KindleBook, result *SyncResult) error {
	now := s.clock.Now()

	for _, item := range items {
		status := item.InitialStatus()

		existing, err := s.store.GetBookByASIN(ctx, item.ASIN)
		switch {
		case errors.Is(err, store.ErrNotFound):
			book, err := s.newBook(item, status, now)
			if err != nil {
				return err
			}
			if err := s.store.CreateBook(ctx, book); err != nil {
				return reconcileError(err, "create book "+item.ASIN)
			}
			result.BooksAdded++

		case err != nil:
			return reconcileError(err, "look up book "+item.ASIN)

		default:
			if item.PercentComplete != nil {
				existing.PercentComplete = item.PercentComplete
			}
			if item.HasPlausibleLastOpened() {
				existing.LastReadAt = item.LastOpenedAt
			}
			if existing.Status == domain.StatusWantToRead && status != domain.StatusWantToRead {
				existing.SetStatus(status, now)
			}
			existing.Touch(now)
			if err := s.store.UpdateBook(ctx, existing); err != nil {
				return reconcileError(err, "update book "+item.ASIN)
			}
		}
	}
	return nil
}

func (s *KindleSyncService) newBook(item domain.KindleBook, status domain.BookStatus, now time.Time) (*domain.Book, error) {
	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		Record:          domain.Record{ID: bookID},
		Title:           item.Title,
		Author:          item.Author,
		CoverURL:        item.CoverURL,
		KindleASIN:      item.ASIN,
		PercentComplete: item.PercentComplete,
		Status:          domain.StatusWantToRead,
		Source:          domain.SourceKindle,
	}
	if item.HasPlausibleLastOpened() {
		book.LastReadAt = item.LastOpenedAt
	}
	book.SetStatus(status, now)
	book.InitTimestamps(now)
	return book, nil
}

// applyProgress completes books that reached 100% and logs a session for
// today per progressed book.
func (s *KindleSyncService) applyProgress(ctx context.Context, changes []domain.ProgressChange, result *SyncResult) error {
	now := s.clock.Now()
	today := s.clock.Today()

	for _, change := range changes {
		book, err := s.store.GetBookByASIN(ctx, change.Book.ASIN)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return reconcileError(err, "look up book "+change.Book.ASIN)
		}

		percent := change.Book.Percent()
		if percent == 100 && book.Status != domain.StatusCompleted {
			book.SetStatus(domain.StatusCompleted, now)
		}
		book.PercentComplete = change.Book.PercentComplete
		book.Touch(now)
		if err := s.store.UpdateBook(ctx, book); err != nil {
			return reconcileError(err, "update book "+book.ID)
		}
		result.BooksUpdated++

		note := fmt.Sprintf("Progress: %d%% → %d%%", change.PreviousPercent, percent)
		created, err := s.ensureSession(ctx, book.ID, today.Time(s.clock.Location), note)
		if err != nil {
			return err
		}
		if created {
			result.SessionsCreated++
		}
	}
	return nil
}

// applyLastOpened backfills one session per book on the day it was last
// opened. It runs over the whole library so a missed sync is caught up.
func (s *KindleSyncService) applyLastOpened(ctx context.Context, items []domain.KindleBook, result *SyncResult) error {
	for _, item := range items {
		if !item.HasPlausibleLastOpened() {
			continue
		}

		book, err := s.store.GetBookByASIN(ctx, item.ASIN)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return reconcileError(err, "look up book "+item.ASIN)
		}

		note := "Synced from Kindle"
		if item.Percent() > 0 {
			note = fmt.Sprintf("Synced from Kindle (%d%% complete)", item.Percent())
		}
		created, err := s.ensureSession(ctx, book.ID, *item.LastOpenedAt, note)
		if err != nil {
			return err
		}
		if created {
			result.SessionsCreated++
		}
	}
	return nil
}

// ensureSession creates a Kindle session for bookID on date's calendar day
// unless the book already has one that day.
func (s *KindleSyncService) ensureSession(ctx context.Context, bookID string, date time.Time, note string) (bool, error) {
	day := s.clock.DayOf(date)
	exists, err := s.store.HasReadingSessionOnDay(ctx, bookID, day)
	if err != nil {
		return false, reconcileError(err, "check sessions for "+bookID)
	}
	if exists {
		return false, nil
	}

	sessionID, err := id.Generate(id.PrefixReadingSession)
	if err != nil {
		return false, err
	}
	rs := &domain.ReadingSession{
		Record: domain.Record{ID: sessionID},
		BookID: bookID,
		Notes:  note,
		Source: domain.SourceKindle,
	}
	rs.SetDate(date, s.clock.Location)
	rs.InitTimestamps(s.clock.Now())

	if err := s.store.CreateReadingSession(ctx, rs); err != nil {
		return false, reconcileError(err, "create session for "+bookID)
	}
	return true, nil
}

func (s *KindleSyncService) writeLog(ctx context.Context, entry *domain.SyncLog) {
	logID, err := id.Generate(id.PrefixSyncLog)
	if err != nil {
		s.logger.Warn("failed to generate sync log id", "error", err)
		return
	}
	entry.ID = logID
	entry.Source = domain.SyncSourceKindle
	entry.SyncedAt = s.clock.Now()

	// The log must outlive a cancelled request.
	if err := s.store.CreateSyncLog(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to write sync log", "status", entry.Status, "error", err)
	}
}

// LastSyncInfo reports the last sync time and the outcome of the latest attempt.
func (s *KindleSyncService) LastSyncInfo(ctx context.Context) (*SyncInfo, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	allowed, next, err := s.CanSync(ctx)
	if err != nil {
		return nil, err
	}

	info := &SyncInfo{
		LastSyncAt: settings.LastKindleSync,
		CanSync:    allowed,
		Configured: settings.Credentials().Complete(),
	}
	if !allowed {
		info.NextSyncAt = &next
	}

	logs, err := s.store.ListSyncLogs(ctx, domain.SyncSourceKindle, 1)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	if len(logs) > 0 {
		info.LastStatus = logs[0].Status
		info.LastError = logs[0].ErrorMessage
	}
	return info, nil
}

// RecentLogs returns the newest Kindle sync logs. limit <= 0 returns all.
func (s *KindleSyncService) RecentLogs(ctx context.Context, limit int) ([]*domain.SyncLog, error) {
	return s.store.ListSyncLogs(ctx, domain.SyncSourceKindle, limit)
}

func reconcileError(err error, op string) error {
	return domainerrors.Wrap(err, domainerrors.CodeReconciliationFailure, op)
}

// failedResult keeps the full error chain so fetch failures report their cause.
func failedResult(err error) *SyncResult {
	return &SyncResult{
		Error:     err.Error(),
		ErrorCode: domainerrors.CodeOf(err),
	}
}
