package store

import "fmt"

// StorageError indicates the local cache store could not be opened, read
// or written. Recovery is an explicit clear/reinit, never automatic.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache store unavailable at %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SyncError indicates a refresh snapshot is incomplete or inconsistent.
// The refresh aborts and the prior cache contents are left untouched.
type SyncError struct {
	Reason string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("refresh snapshot rejected: %s", e.Reason)
}

// LockedError indicates a refresh is already in flight against this store.
// The caller should retry later rather than immediately.
type LockedError struct {
	LockPath string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("another refresh is in progress (lock file %s)", e.LockPath)
}
