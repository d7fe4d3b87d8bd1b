package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
)

// Syncer runs one sync cycle.
type Syncer interface {
	Sync(ctx context.Context) *SyncResult
}

// AutoSync calls Sync on a fixed interval. The sync cooldown still applies,
// so an interval shorter than the cooldown just produces rate-limited ticks.
type AutoSync struct {
	syncer   Syncer
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAutoSync creates a worker. A zero interval disables it.
func NewAutoSync(syncer Syncer, interval time.Duration, logger *slog.Logger) *AutoSync {
	return &AutoSync{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
	}
}

// Enabled reports whether the worker has a positive interval.
func (a *AutoSync) Enabled() bool {
	return a.interval > 0
}

// Start launches the worker. It is a no-op when disabled or already running.
func (a *AutoSync) Start(ctx context.Context) {
	if !a.Enabled() || a.cancel != nil {
		return
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go a.loop(ctx)

	a.logger.Info("kindle auto-sync started", "interval", a.interval)
}

// Stop halts the worker and waits for an in-flight sync to finish.
func (a *AutoSync) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	a.wg.Wait()
	a.cancel = nil
	a.logger.Info("kindle auto-sync stopped")
}

func (a *AutoSync) loop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *AutoSync) tick(ctx context.Context) {
	result := a.syncer.Sync(ctx)
	switch {
	case result.Success:
		a.logger.Debug("auto-sync finished",
			"books_added", result.BooksAdded,
			"books_updated", result.BooksUpdated,
			"sessions_created", result.SessionsCreated,
		)
	case result.ErrorCode == domainerrors.CodeRateLimited || result.ErrorCode == domainerrors.CodeNotConfigured:
		a.logger.Debug("auto-sync skipped", "reason", result.Error)
	default:
		a.logger.Warn("auto-sync failed", "code", result.ErrorCode, "error", result.Error)
	}
}
