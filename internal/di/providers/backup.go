package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readtrack/readtrack-server/internal/backup"
	"github.com/readtrack/readtrack-server/internal/config"
	"github.com/readtrack/readtrack-server/internal/logger"
)

// serverVersion is stamped into backup manifests.
const serverVersion = "1.0.0"

// ProvideBackupService provides the backup service writing to <data>/backups.
func ProvideBackupService(i do.Injector) (*backup.BackupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	backupDir := filepath.Join(cfg.Storage.DataPath, "backups")
	return backup.NewBackupService(storeHandle.Store, backupDir, serverVersion, log.Component("backup")), nil
}

// ProvideRestoreService provides the restore service.
func ProvideRestoreService(i do.Injector) (*backup.RestoreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewRestoreService(storeHandle.Store, log.Component("restore")), nil
}
