package domain

import "context"

type Archiver interface {
	Create(ctx context.Context, archivePath string, files []string) error
	Extract(ctx context.Context, archivePath string, destDir string) error
}

type PathExpander interface {
	Expand(patterns []string) ([]string, error)
}
