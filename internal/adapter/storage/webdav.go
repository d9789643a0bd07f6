package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/studio-b12/gowebdav"
	"go.uber.org/multierr"

	"github.com/semmidev/tarvault/internal/config"
	"github.com/semmidev/tarvault/internal/domain"
)

// WebDAVStorage talks to a WebDAV server through gowebdav. The client has no
// context support, so ctx does not cancel in-flight requests.
type WebDAVStorage struct {
	client *gowebdav.Client
	logger Logger
}

func NewWebDAV(cfg *config.WebDAVConfig, logger Logger) *WebDAVStorage {
	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &WebDAVStorage{client: client, logger: logger}
}

func (w *WebDAVStorage) Upload(ctx context.Context, localPath string, remoteDir string) error {
	name := filepath.Base(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := w.client.MkdirAll(remoteDir, 0755); err != nil {
		return domain.NewTransferError("upload", name, fmt.Errorf("failed to create %s: %w", remoteDir, err))
	}

	w.logger.Debugf("PUT %s", path.Join(remoteDir, name))
	if err := w.client.WriteStream(path.Join(remoteDir, name), file, 0644); err != nil {
		return domain.NewTransferError("upload", name, err)
	}
	return nil
}

func (w *WebDAVStorage) Download(ctx context.Context, filename string, remoteDir string, localDir string) (string, error) {
	stream, err := w.client.ReadStream(path.Join(remoteDir, filename))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return "", fmt.Errorf("download %s: %w", filename, domain.ErrNotFound)
		}
		return "", domain.NewTransferError("download", filename, err)
	}
	defer stream.Close()

	localPath := filepath.Join(localDir, filename)
	if err := writeLocal(localPath, stream); err != nil {
		return "", domain.NewTransferError("download", filename, err)
	}
	return localPath, nil
}

func writeLocal(localPath string, r io.Reader) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(localPath)
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("failed to close %s: %w", localPath, err)
	}
	return nil
}

// DeleteMany issues one DELETE per file concurrently. Every failure is
// collected; the files that were removed stay removed.
func (w *WebDAVStorage) DeleteMany(ctx context.Context, filenames []string, remoteDir string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	for _, name := range filenames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			w.logger.Debugf("DELETE %s", path.Join(remoteDir, name))
			if err := w.client.Remove(path.Join(remoteDir, name)); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}(name)
	}

	wg.Wait()

	if errs != nil {
		return domain.NewTransferError("delete", remoteDir, errs)
	}
	return nil
}

func (w *WebDAVStorage) ListMatching(ctx context.Context, backupName string, remoteDir string) ([]string, error) {
	entries, err := w.client.ReadDir(remoteDir)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return []string{}, nil
		}
		return nil, domain.NewTransferError("list", remoteDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return domain.FilterMatching(names, backupName), nil
}
