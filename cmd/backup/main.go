package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semmidev/tarvault/internal/app"
	"github.com/semmidev/tarvault/internal/config"
)

var errUsage = errors.New("a command is required")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envFile string

	root := &cobra.Command{
		Use:           "tarvault",
		Short:         "Archive files to an rclone or WebDAV remote and restore them",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Usage()
				return fmt.Errorf("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errUsage
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment when present")

	run := func(command string, action func(*app.App, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   command,
			Short: shortHelp[command],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.LoadEnvFile(envFile); err != nil {
					return err
				}
				cfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := validateFor(command, cfg); err != nil {
					return err
				}

				application, err := app.New(cfg)
				if err != nil {
					return fmt.Errorf("initialize app: %w", err)
				}
				defer application.Shutdown()

				return action(application, cmd.Context())
			},
		}
	}

	root.AddCommand(
		run(app.CommandBackup, (*app.App).Backup),
		run(app.CommandRestore, (*app.App).Restore),
		run(app.CommandSchedule, func(a *app.App, ctx context.Context) error {
			ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return a.Schedule(ctx)
		}),
	)
	return root
}

var shortHelp = map[string]string{
	app.CommandBackup:   "Archive the configured files, upload them and prune old backups",
	app.CommandRestore:  "Download the latest backup and extract it into the working directory",
	app.CommandSchedule: "Run backups on BACKUP_SCHEDULE until interrupted",
}

func validateFor(command string, cfg *config.Config) error {
	switch command {
	case app.CommandBackup:
		return cfg.ValidateForBackup()
	case app.CommandSchedule:
		return cfg.ValidateForSchedule()
	}
	return nil
}
