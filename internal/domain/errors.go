package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrNoBackupFound = errors.New("no backups found")
	ErrNotFound      = errors.New("remote file not found")
	ErrTransfer      = errors.New("transfer failed")
)

// TransferError reports a failed remote operation.
type TransferError struct {
	Op   string
	Name string
	Err  error
}

func NewTransferError(op, name string, err error) *TransferError {
	return &TransferError{Op: op, Name: name, Err: err}
}

func (e *TransferError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrTransfer
}
