package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/semmidev/tarvault/internal/config"
	"github.com/semmidev/tarvault/internal/domain"
)

// rclone exit codes, see https://rclone.org/docs/#exit-code
const (
	rcloneExitDirNotFound  = 3
	rcloneExitFileNotFound = 4
)

// Runner executes a command and returns its standard output. Failures
// should keep the *exec.ExitError reachable through errors.As.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Debugf(template string, args ...interface{})
}

type RcloneStorage struct {
	binary        string
	remote        string
	configContent string
	configDir     string
	run           Runner
	logger        Logger

	initOnce   sync.Once
	initErr    error
	configPath string
}

type RcloneOption func(*RcloneStorage)

func WithRcloneRunner(run Runner) RcloneOption {
	return func(r *RcloneStorage) {
		r.run = run
	}
}

func NewRclone(cfg *config.RcloneConfig, logger Logger, opts ...RcloneOption) (*RcloneStorage, error) {
	configDir := cfg.ConfigDir
	if configDir == "" {
		userDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		configDir = filepath.Join(userDir, "rclone")
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "rclone"
	}

	r := &RcloneStorage{
		binary:        binary,
		remote:        cfg.Remote,
		configContent: cfg.ConfigContent,
		configDir:     configDir,
		run:           runCommand,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return output, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// ensureConfig writes the configured rclone.conf once per process, before
// the first remote call.
func (r *RcloneStorage) ensureConfig() error {
	r.initOnce.Do(func() {
		if r.configContent == "" {
			r.logger.Infof("No rclone config content found, using rclone defaults")
			return
		}

		if err := os.MkdirAll(r.configDir, 0700); err != nil {
			r.initErr = fmt.Errorf("failed to create rclone config directory: %w", err)
			return
		}
		configPath := filepath.Join(r.configDir, "rclone.conf")
		if err := os.WriteFile(configPath, []byte(r.configContent), 0600); err != nil {
			r.initErr = fmt.Errorf("failed to write rclone config: %w", err)
			return
		}
		r.configPath = configPath
		r.logger.Infof("rclone config written to %s", configPath)
	})
	return r.initErr
}

func (r *RcloneStorage) exec(ctx context.Context, subcommand string, args ...string) ([]byte, error) {
	if err := r.ensureConfig(); err != nil {
		return nil, err
	}

	full := []string{subcommand}
	if r.configPath != "" {
		full = append(full, "--config", r.configPath)
	}
	full = append(full, args...)

	r.logger.Debugf("Running: %s %s", r.binary, strings.Join(full, " "))
	output, err := r.run(ctx, r.binary, full...)
	if err != nil {
		return output, fmt.Errorf("rclone %s failed: %w", subcommand, err)
	}
	return output, nil
}

// remotePath joins the remote profile, remoteDir and the optional name.
func (r *RcloneStorage) remotePath(remoteDir string, name string) string {
	p := remoteDir
	if name != "" {
		p = path.Join(remoteDir, name)
	}
	if r.remote == "" {
		return p
	}
	return r.remote + ":" + p
}

func (r *RcloneStorage) Upload(ctx context.Context, localPath string, remoteDir string) error {
	name := filepath.Base(localPath)
	if _, err := r.exec(ctx, "copy", localPath, r.remotePath(remoteDir, "")); err != nil {
		return domain.NewTransferError("upload", name, err)
	}
	return nil
}

func (r *RcloneStorage) Download(ctx context.Context, filename string, remoteDir string, localDir string) (string, error) {
	localPath := filepath.Join(localDir, filename)
	if _, err := r.exec(ctx, "copyto", r.remotePath(remoteDir, filename), localPath); err != nil {
		if code := exitCode(err); code == rcloneExitDirNotFound || code == rcloneExitFileNotFound {
			return "", fmt.Errorf("download %s: %w", filename, domain.ErrNotFound)
		}
		return "", domain.NewTransferError("download", filename, err)
	}
	return localPath, nil
}

// DeleteMany removes all files with a single filtered rclone delete, so the
// batch either succeeds or is reported as failed as a whole.
func (r *RcloneStorage) DeleteMany(ctx context.Context, filenames []string, remoteDir string) error {
	if len(filenames) == 0 {
		return nil
	}

	args := []string{"--max-depth", "1"}
	for _, name := range filenames {
		args = append(args, "--include", "/"+escapeFilter(name))
	}
	args = append(args, r.remotePath(remoteDir, ""))

	if _, err := r.exec(ctx, "delete", args...); err != nil {
		return domain.NewTransferError("delete", strings.Join(filenames, ", "), err)
	}
	return nil
}

type lsjsonEntry struct {
	Name  string `json:"Name"`
	IsDir bool   `json:"IsDir"`
}

func (r *RcloneStorage) ListMatching(ctx context.Context, backupName string, remoteDir string) ([]string, error) {
	output, err := r.exec(ctx, "lsjson",
		"--files-only",
		"--max-depth", "1",
		"--include", escapeFilter(backupName)+"-*"+domain.ArchiveExtension,
		r.remotePath(remoteDir, ""),
	)
	if err != nil {
		if exitCode(err) == rcloneExitDirNotFound {
			return []string{}, nil
		}
		return nil, domain.NewTransferError("list", remoteDir, err)
	}

	var entries []lsjsonEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, domain.NewTransferError("list", remoteDir, fmt.Errorf("failed to decode lsjson output: %w", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir {
			names = append(names, entry.Name)
		}
	}
	return domain.FilterMatching(names, backupName), nil
}

type exitCoder interface {
	ExitCode() int
}

func exitCode(err error) int {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

// escapeFilter quotes rclone filter glob metacharacters.
func escapeFilter(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\\', '*', '?', '[', ']', '{', '}':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
