//go:build unix

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock holds an flock(2) on a lock file next to the state file. The kernel
// releases it when the owning process exits.
type Lock struct {
	file *os.File
}

// TryLock takes an exclusive non-blocking flock on statePath + ".lock".
// Returns ErrAlreadyRunning if another process already holds it.
func TryLock(statePath string) (*Lock, error) {
	if _, err := lockKey(statePath); err != nil {
		return nil, fmt.Errorf("singleinstance: %w", err)
	}
	lockPath := statePath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("singleinstance: create lock dir: %w", err)
	}
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("singleinstance: open %q: %w", lockPath, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("singleinstance: flock %q: %w", lockPath, err)
	}
	return &Lock{file: file}, nil
}

// Release unlocks and closes the lock file. Safe to call on nil receiver and
// idempotent. The lock file itself is left in place; removing it would race
// with a concurrent TryLock that already opened it.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(unlockErr, closeErr)
}
