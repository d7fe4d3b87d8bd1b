package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured storage backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		db     store.Store
		dbPath string
		err    error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		dbPath = filepath.Join(cfg.Storage.DataPath, "readtrack.db")
		db, err = sqlite.Open(dbPath, log.Component("store"))
	case config.BackendBadger:
		dbPath = filepath.Join(cfg.Storage.DataPath, "db")
		db, err = store.New(dbPath, log.Component("store"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
