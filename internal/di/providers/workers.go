package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
)

// AutoSyncHandle wraps the background sync worker with shutdown capability.
type AutoSyncHandle struct {
	*service.AutoSync
}

// Shutdown implements do.Shutdownable.
func (h *AutoSyncHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAutoSync provides and starts the background Kindle sync worker.
// A zero interval leaves it disabled.
func ProvideAutoSync(i do.Injector) (*AutoSyncHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sync := do.MustInvoke[*service.KindleSyncService](i)
	log := do.MustInvoke[*logger.Logger](i)

	worker := service.NewAutoSync(sync, cfg.Kindle.AutoSyncInterval, log.Component("autosync"))
	if !worker.Enabled() {
		log.Info("Kindle auto sync disabled")
		return &AutoSyncHandle{AutoSync: worker}, nil
	}

	worker.Start(context.Background())
	log.Info("Kindle auto sync started", "interval", cfg.Kindle.AutoSyncInterval)

	return &AutoSyncHandle{AutoSync: worker}, nil
}
