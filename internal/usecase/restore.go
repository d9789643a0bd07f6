package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/semmidev/tarvault/internal/domain"
)

type Restore struct {
	target   Target
	storage  domain.Storage
	archiver domain.Archiver
	logger   Logger

	lastArchive string
}

func NewRestore(target Target, storage domain.Storage, archiver domain.Archiver, logger Logger) *Restore {
	return &Restore{
		target:   target,
		storage:  storage,
		archiver: archiver,
		logger:   logger,
	}
}

// LastArchive returns the archive picked by the latest Execute.
func (uc *Restore) LastArchive() string {
	return uc.lastArchive
}

func (uc *Restore) Execute(ctx context.Context) error {
	uc.lastArchive = ""
	uc.logger.Infof("[%s] Restoring files...", uc.target.BackupName)

	archives, err := uc.storage.ListMatching(ctx, uc.target.BackupName, uc.target.RemoteDir)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	latest, ok := domain.LatestArchive(archives)
	if !ok {
		return fmt.Errorf("%w for %s in %s", domain.ErrNoBackupFound, uc.target.BackupName, uc.target.RemoteDir)
	}
	uc.lastArchive = latest
	uc.logger.Infof("[%s] Latest backup: %s", uc.target.BackupName, latest)

	localPath, err := uc.storage.Download(ctx, latest, uc.target.RemoteDir, uc.target.WorkDir)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	uc.logger.Infof("[%s] Backup file downloaded", uc.target.BackupName)

	if err := uc.archiver.Extract(ctx, localPath, uc.target.WorkDir); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	uc.logger.Infof("[%s] Backup file extracted", uc.target.BackupName)

	if err := os.Remove(localPath); err != nil {
		return fmt.Errorf("remove local archive: %w", err)
	}
	return nil
}
