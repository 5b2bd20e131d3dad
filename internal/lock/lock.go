// Package lock provides the single-instance marker for sync runs.
//
// The lock is a zero-byte file whose existence means a sync is in progress.
// Exclusion is purely by presence, so it works across processes. There is
// no liveness check: a process killed while holding the lock leaves the
// marker behind, and it must be removed with Break (taskstodo unlock).
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Filename is the name of the lock marker inside the data directory.
const Filename = "lock"

// ErrAlreadyRunning is returned by Acquire when the marker already exists.
var ErrAlreadyRunning = errors.New("an existing instance is already running or lock was not released")

// Lock is a filesystem marker lock.
type Lock struct {
	fs   afero.Fs
	path string
}

// New creates a Lock at path.
func New(fs afero.Fs, path string) *Lock {
	return &Lock{fs: fs, path: path}
}

// Path returns the marker path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire creates the marker, failing with ErrAlreadyRunning if it exists.
func (l *Lock) Acquire() error {
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w (%s)", ErrAlreadyRunning, l.path)
		}
		return fmt.Errorf("failed to create lock: %w", err)
	}
	return f.Close()
}

// Release removes the marker. A missing marker is not an error.
func (l *Lock) Release() error {
	err := l.fs.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Held reports whether the marker exists.
func (l *Lock) Held() (bool, error) {
	return afero.Exists(l.fs, l.path)
}

// Break removes a marker left behind by a process that did not exit cleanly.
// It reports whether a marker was present.
func (l *Lock) Break() (bool, error) {
	held, err := l.Held()
	if err != nil || !held {
		return false, err
	}
	return true, l.Release()
}
