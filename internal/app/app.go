package app

import (
	"context"
	"fmt"

	"github.com/semmidev/tarvault/internal/adapter/archiver"
	"github.com/semmidev/tarvault/internal/adapter/expander"
	"github.com/semmidev/tarvault/internal/adapter/notifier"
	"github.com/semmidev/tarvault/internal/adapter/storage"
	"github.com/semmidev/tarvault/internal/config"
	"github.com/semmidev/tarvault/internal/domain"
	"github.com/semmidev/tarvault/internal/infrastructure/logger"
	"github.com/semmidev/tarvault/internal/infrastructure/scheduler"
	"github.com/semmidev/tarvault/internal/usecase"
)

const (
	CommandBackup   = "backup"
	CommandRestore  = "restore"
	CommandSchedule = "schedule"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	storage   domain.Storage
	notifier  domain.Notifier
	backupUC  *usecase.Backup
	restoreUC *usecase.Restore
}

type Option func(*options)

type options struct {
	storage  domain.Storage
	notifier domain.Notifier
	logger   *logger.Logger
}

// WithStorage replaces the adapter selected by BACKUP_METHOD.
func WithStorage(s domain.Storage) Option {
	return func(o *options) { o.storage = s }
}

func WithNotifier(n domain.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		if log, err = logger.New(cfg.App.LogLevel, cfg.App.LogFile); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	log = log.WithBackup(cfg.Backup.Name)

	stor := o.storage
	if stor == nil {
		var err error
		if stor, err = newStorage(cfg, log); err != nil {
			return nil, err
		}
	}

	notif := o.notifier
	if notif == nil && cfg.NotificationsEnabled() {
		var err error
		if notif, err = notifier.NewTelegram(&cfg.Telegram); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		log.Infof("✓ Telegram notifications enabled")
	}

	target := usecase.Target{
		BackupName: cfg.Backup.Name,
		RemoteDir:  cfg.Backup.RemoteDir,
		WorkDir:    cfg.App.WorkDir,
	}
	arch := archiver.NewTarGz()
	cleanupUC := usecase.NewCleanup(target, stor, log, cfg.Backup.MaxBackups)

	return &App{
		config:    cfg,
		logger:    log,
		storage:   stor,
		notifier:  notif,
		backupUC:  usecase.NewBackup(target, cfg.GlobPatterns(), stor, arch, expander.NewGlob(), cleanupUC, log),
		restoreUC: usecase.NewRestore(target, stor, arch, log),
	}, nil
}

func newStorage(cfg *config.Config, log *logger.Logger) (domain.Storage, error) {
	switch cfg.Backup.Method {
	case config.MethodRclone:
		s, err := storage.NewRclone(&cfg.Rclone, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rclone storage: %w", err)
		}
		log.Infof("✓ rclone storage enabled (remote dir: %s)", cfg.Backup.RemoteDir)
		return s, nil

	case config.MethodWebDAV:
		log.Infof("✓ WebDAV storage enabled (%s)", cfg.WebDAV.URL)
		return storage.NewWebDAV(&cfg.WebDAV, log), nil

	default:
		return nil, fmt.Errorf("%w: unknown backup method %q", domain.ErrConfiguration, cfg.Backup.Method)
	}
}

func (a *App) Backup(ctx context.Context) error {
	err := a.backupUC.Execute(ctx)
	a.notify(ctx, domain.Run{
		Command:    CommandBackup,
		BackupName: a.config.Backup.Name,
		Archive:    a.backupUC.LastArchive(),
		Err:        err,
	})
	return err
}

func (a *App) Restore(ctx context.Context) error {
	err := a.restoreUC.Execute(ctx)
	a.notify(ctx, domain.Run{
		Command:    CommandRestore,
		BackupName: a.config.Backup.Name,
		Archive:    a.restoreUC.LastArchive(),
		Err:        err,
	})
	return err
}

// Schedule runs Backup on the configured cron spec until ctx is done.
func (a *App) Schedule(ctx context.Context) error {
	sched := scheduler.New(func(name string, err error) {
		a.logger.Errorf("Scheduled %s failed: %v", name, err)
	})

	if err := sched.AddJob(CommandBackup, a.config.Backup.Schedule, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled backup ===")
		return a.Backup(ctx)
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	sched.Start()
	a.logger.Infof("Scheduler started: %s", a.config.Backup.Schedule)

	<-ctx.Done()
	a.logger.Infof("Stopping scheduler...")
	sched.Stop()
	return nil
}

func (a *App) notify(ctx context.Context, run domain.Run) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, run); err != nil {
		a.logger.Warnf("Notification failed: %v", err)
	}
}

func (a *App) Shutdown() {
	a.logger.Close()
}
