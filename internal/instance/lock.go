// Package instance guards the cache against concurrent daemons and
// migrations with an advisory file lock.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock
var ErrLocked = errors.New("another adsb_speech process holds the lock")

// Lock is a held instance lock
type Lock struct {
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{lock: l}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.lock.Path()
}

// Release drops the lock
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
