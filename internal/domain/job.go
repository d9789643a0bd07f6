package domain

import "context"

type Executor interface {
	Execute(ctx context.Context) error
}

// Run describes the outcome of one backup or restore invocation.
type Run struct {
	Command    string
	BackupName string
	Archive    string
	Err        error
}

type Notifier interface {
	Notify(ctx context.Context, run Run) error
}
