package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/pagebound-server/internal/backup"
	"github.com/listenupapp/pagebound-server/internal/config"
	"github.com/listenupapp/pagebound-server/internal/logger"
)

// ProvideBackupService provides the archive writer.
func ProvideBackupService(i do.Injector) (*backup.BackupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewBackupService(storeHandle.Store, cfg.Data.BackupPath(), log.Logger), nil
}

// ProvideRestoreService provides the archive loader.
func ProvideRestoreService(i do.Injector) (*backup.RestoreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewRestoreService(storeHandle.Store, log.Logger), nil
}
