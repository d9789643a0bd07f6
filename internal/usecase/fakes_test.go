package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/semmidev/tarvault/internal/domain"
)

var nopLogger = zap.NewNop().Sugar()

// memStorage keeps remote directories in memory.
type memStorage struct {
	mu      sync.Mutex
	dirs    map[string]map[string][]byte
	calls   []string
	deleted []string

	uploadErr error
	listErr   error
	deleteErr error
}

func newMemStorage() *memStorage {
	return &memStorage{dirs: make(map[string]map[string][]byte)}
}

func (m *memStorage) put(remoteDir string, names ...string) {
	if m.dirs[remoteDir] == nil {
		m.dirs[remoteDir] = make(map[string][]byte)
	}
	for _, name := range names {
		m.dirs[remoteDir][name] = []byte(name)
	}
}

func (m *memStorage) names(remoteDir string) []string {
	var names []string
	for name := range m.dirs[remoteDir] {
		names = append(names, name)
	}
	return domain.SortArchives(names)
}

func (m *memStorage) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *memStorage) Upload(ctx context.Context, localPath string, remoteDir string) error {
	m.record("upload")
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.put(remoteDir)
	m.dirs[remoteDir][filepath.Base(localPath)] = data
	return nil
}

func (m *memStorage) Download(ctx context.Context, filename string, remoteDir string, localDir string) (string, error) {
	m.record("download")
	data, ok := m.dirs[remoteDir][filename]
	if !ok {
		return "", domain.ErrNotFound
	}
	localPath := filepath.Join(localDir, filename)
	return localPath, os.WriteFile(localPath, data, 0644)
}

func (m *memStorage) DeleteMany(ctx context.Context, filenames []string, remoteDir string) error {
	m.record("delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, name := range filenames {
		delete(m.dirs[remoteDir], name)
		m.deleted = append(m.deleted, name)
	}
	return nil
}

func (m *memStorage) ListMatching(ctx context.Context, backupName string, remoteDir string) ([]string, error) {
	m.record("list")
	if m.listErr != nil {
		return nil, m.listErr
	}
	var names []string
	for name := range m.dirs[remoteDir] {
		names = append(names, name)
	}
	return domain.FilterMatching(names, backupName), nil
}

// fakeArchiver writes the file list as the archive body and on extract
// writes a marker file.
type fakeArchiver struct {
	created   []string
	extracted []string
	createErr error
}

func (a *fakeArchiver) Create(ctx context.Context, archivePath string, files []string) error {
	if a.createErr != nil {
		return a.createErr
	}
	a.created = append(a.created, files...)
	return os.WriteFile(archivePath, []byte("archive"), 0644)
}

func (a *fakeArchiver) Extract(ctx context.Context, archivePath string, destDir string) error {
	if _, err := os.Stat(archivePath); err != nil {
		return err
	}
	a.extracted = append(a.extracted, filepath.Base(archivePath))
	return os.WriteFile(filepath.Join(destDir, "restored.txt"), []byte("ok"), 0644)
}

type fakeExpander struct {
	files []string
	err   error
}

func (e *fakeExpander) Expand(patterns []string) ([]string, error) {
	return e.files, e.err
}

type countingExecutor struct {
	runs int
	err  error
}

func (c *countingExecutor) Execute(ctx context.Context) error {
	c.runs++
	return c.err
}

var errBoom = errors.New("boom")
