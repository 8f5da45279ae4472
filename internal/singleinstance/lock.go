// Package singleinstance keeps one splitrelay process per state file, so two
// timers never interleave writes to the same store.
package singleinstance

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// lockKey derives a stable, name-safe key for statePath. Two spellings of the
// same path map to the same key once made absolute.
func lockKey(statePath string) (string, error) {
	if statePath == "" {
		return "", errors.New("state path is required")
	}
	abs, err := filepath.Abs(statePath)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:8]), nil
}
