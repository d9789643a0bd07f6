package usecase

import (
	"context"
	"fmt"

	"github.com/semmidev/tarvault/internal/domain"
)

// Cleanup keeps at most maxBackups archives of the target, deleting the
// oldest first. Zero disables retention.
type Cleanup struct {
	target     Target
	storage    domain.Storage
	logger     Logger
	maxBackups int
}

func NewCleanup(target Target, storage domain.Storage, logger Logger, maxBackups int) *Cleanup {
	return &Cleanup{
		target:     target,
		storage:    storage,
		logger:     logger,
		maxBackups: maxBackups,
	}
}

func (uc *Cleanup) Execute(ctx context.Context) error {
	if uc.maxBackups == 0 {
		uc.logger.Infof("[%s] Max backups set to 0, skipping cleanup", uc.target.BackupName)
		return nil
	}

	archives, err := uc.storage.ListMatching(ctx, uc.target.BackupName, uc.target.RemoteDir)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}

	surplus := Surplus(archives, uc.maxBackups)
	if len(surplus) == 0 {
		uc.logger.Infof("[%s] No backups to be deleted, skipping cleanup", uc.target.BackupName)
		return nil
	}
	uc.logger.Infof("[%s] Backups to be deleted:\n%s", uc.target.BackupName, bulletList(surplus))

	if err := uc.storage.DeleteMany(ctx, surplus, uc.target.RemoteDir); err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	uc.logger.Infof("[%s] Deleted %d old backup(s)", uc.target.BackupName, len(surplus))
	return nil
}

// Surplus returns the oldest archives beyond the newest maxBackups.
func Surplus(archives []string, maxBackups int) []string {
	if maxBackups <= 0 {
		return nil
	}

	sorted := domain.SortArchives(archives)
	if len(sorted) <= maxBackups {
		return nil
	}
	return sorted[:len(sorted)-maxBackups]
}
