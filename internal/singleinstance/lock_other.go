//go:build !windows && !unix

package singleinstance

import "fmt"

// Lock is a no-op on platforms without a supported locking primitive.
type Lock struct{}

// TryLock validates statePath and always succeeds.
func TryLock(statePath string) (*Lock, error) {
	if _, err := lockKey(statePath); err != nil {
		return nil, fmt.Errorf("singleinstance: %w", err)
	}
	return &Lock{}, nil
}

// Release is a no-op.
func (l *Lock) Release() error { return nil }
