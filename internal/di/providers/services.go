package providers

import (
	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, clock, log.Component("settings")), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, indexHandle.BookIndex, v, clock, log.Component("books")), nil
}

// ProvideReadingSessionService provides the reading session service.
func ProvideReadingSessionService(i do.Injector) (*service.ReadingSessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadingSessionService(storeHandle.Store, v, clock, log.Component("sessions")), nil
}

// ProvideStatsService provides the reading statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, clock, log.Component("stats")), nil
}

// ProvideGoalService provides the goal service.
func ProvideGoalService(i do.Injector) (*service.GoalService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	stats := do.MustInvoke[*service.StatsService](i)
	v := do.MustInvoke[*validation.Validator](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGoalService(storeHandle.Store, stats, v, clock, log.Component("goals")), nil
}

// ProvideSnapshotStore provides the Kindle snapshot store.
func ProvideSnapshotStore(i do.Injector) (*service.SnapshotStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSnapshotStore(storeHandle.Store, cfg.Kindle.SnapshotRetention, clock, log.Component("snapshots")), nil
}

// ProvideKindleSyncService provides the Kindle sync service.
func ProvideKindleSyncService(i do.Injector) (*service.KindleSyncService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	settings := do.MustInvoke[*service.SettingsService](i)
	snapshots := do.MustInvoke[*service.SnapshotStore](i)
	client := do.MustInvoke[*KindleClientHandle](i)
	clock := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewKindleSyncService(
		storeHandle.Store,
		settings,
		snapshots,
		client.Client,
		service.KindleSyncConfig{
			Cooldown:     cfg.Kindle.SyncCooldown,
			FetchTimeout: cfg.Kindle.FetchTimeout,
		},
		clock,
		log.Component("kindle_sync"),
	), nil
}
