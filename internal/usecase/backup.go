package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/semmidev/tarvault/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Target identifies where the archives of one backup live.
type Target struct {
	BackupName string
	RemoteDir  string
	// WorkDir holds transient archives and receives restored files.
	WorkDir string
}

type Backup struct {
	target   Target
	patterns []string
	storage  domain.Storage
	archiver domain.Archiver
	expander domain.PathExpander
	cleanup  domain.Executor
	logger   Logger
	now      func() time.Time

	lastArchive string
}

func NewBackup(
	target Target,
	patterns []string,
	storage domain.Storage,
	archiver domain.Archiver,
	expander domain.PathExpander,
	cleanup domain.Executor,
	logger Logger,
) *Backup {
	return &Backup{
		target:   target,
		patterns: patterns,
		storage:  storage,
		archiver: archiver,
		expander: expander,
		cleanup:  cleanup,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to name archives.
func (uc *Backup) WithClock(now func() time.Time) *Backup {
	uc.now = now
	return uc
}

// LastArchive returns the name of the archive uploaded by the latest
// successful Execute.
func (uc *Backup) LastArchive() string {
	return uc.lastArchive
}

func (uc *Backup) Execute(ctx context.Context) error {
	start := uc.now()
	uc.lastArchive = ""
	filename := domain.ArchiveFilename(uc.target.BackupName, start)

	uc.logger.Infof("[%s] Backing up files...", uc.target.BackupName)
	files, err := uc.expander.Expand(uc.patterns)
	if err != nil {
		return fmt.Errorf("expand patterns: %w", err)
	}
	if len(files) == 0 {
		uc.logger.Infof("[%s] No files to be backed up, skipping", uc.target.BackupName)
		return nil
	}
	uc.logger.Infof("[%s] Files to be backed up:\n%s", uc.target.BackupName, bulletList(files))

	archivePath := filepath.Join(uc.target.WorkDir, filename)
	if err := uc.archiver.Create(ctx, archivePath, files); err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	uc.logger.Infof("[%s] Archive created: %s", uc.target.BackupName, filename)

	if err := uc.storage.Upload(ctx, archivePath, uc.target.RemoteDir); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	uc.logger.Infof("[%s] Archive uploaded to %s", uc.target.BackupName, uc.target.RemoteDir)

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("remove local archive: %w", err)
	}
	uc.lastArchive = filename

	if err := uc.cleanup.Execute(ctx); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		uc.target.BackupName, uc.now().Sub(start).Round(time.Second), filename)
	return nil
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
