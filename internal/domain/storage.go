package domain

import "context"

// Storage is the contract every remote backend satisfies. Remote directories
// may hold archives of other backups and unrelated files.
type Storage interface {
	// Upload copies the local archive into remoteDir, creating it if needed.
	// The local file is never modified.
	Upload(ctx context.Context, localPath string, remoteDir string) error

	// Download fetches filename from remoteDir into localDir under the same
	// name and returns the local path. A missing archive yields ErrNotFound.
	Download(ctx context.Context, filename string, remoteDir string, localDir string) (string, error)

	// DeleteMany removes the named archives. Any failed deletion is reported,
	// files already removed stay removed.
	DeleteMany(ctx context.Context, filenames []string, remoteDir string) error

	// ListMatching returns the archives of backupName in remoteDir, in no
	// particular order. A missing directory yields an empty result.
	ListMatching(ctx context.Context, backupName string, remoteDir string) ([]string, error)
}
