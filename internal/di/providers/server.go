package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/api"
	"github.com/readtrack/readtrack-server/internal/backup"
	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Book:           do.MustInvoke[*service.BookService](i),
		ReadingSession: do.MustInvoke[*service.ReadingSessionService](i),
		Stats:          do.MustInvoke[*service.StatsService](i),
		Goal:           do.MustInvoke[*service.GoalService](i),
		Settings:       do.MustInvoke[*service.SettingsService](i),
		KindleSync:     do.MustInvoke[*service.KindleSyncService](i),
		SearchIndex:    indexHandle.BookIndex,
		Backup:         do.MustInvoke[*backup.BackupService](i),
		Restore:        do.MustInvoke[*backup.RestoreService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestsPerSecond:  float64(cfg.Server.RateLimitRPS),
		Burst:              cfg.Server.RateLimitBurst,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
