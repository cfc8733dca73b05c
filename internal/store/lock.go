package store

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// A refresh holds an exclusive lock file next to the store for its full
// duration. A second refresh attempt fails fast with LockedError instead
// of interleaving writes. Lock files older than lockStaleAfter are treated
// as abandoned by a crashed process and replaced.
const lockStaleAfter = 10 * time.Minute

type refreshLock struct {
	path string
}

func acquireRefreshLock(storePath string) (*refreshLock, error) {
	path := storePath + ".lock"

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintln(f, strconv.Itoa(os.Getpid()))
			_ = f.Close()

			return &refreshLock{path: path}, nil
		}

		if !os.IsExist(err) {
			return nil, &StorageError{Path: path, Err: err}
		}

		info, statErr := os.Stat(path)
		if statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			_ = os.Remove(path)
			continue
		}

		return nil, &LockedError{LockPath: path}
	}

	return nil, &LockedError{LockPath: path}
}

// release removes the lock file. Safe to call more than once.
func (l *refreshLock) release() {
	_ = os.Remove(l.path)
}
