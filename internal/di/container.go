// Package di provides dependency injection configuration for the readtrack server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/di/providers"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Kindle
	do.Provide(injector, providers.ProvideKindleClient)

	// Business services
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideReadingSessionService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideGoalService)
	do.Provide(injector, providers.ProvideSnapshotStore)
	do.Provide(injector, providers.ProvideKindleSyncService)
	do.Provide(injector, providers.ProvideBackupService)
	do.Provide(injector, providers.ProvideRestoreService)

	// Workers
	do.Provide(injector, providers.ProvideAutoSync)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the background workers and the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.KindleSyncService](injector); err != nil {
		return err
	}

	providers.TriggerSearchReindexIfNeeded(injector)

	if _, err := do.Invoke[*providers.AutoSyncHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
