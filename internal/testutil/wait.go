package testutil

import (
	"testing"
	"time"
)

// WaitFor polls fn every 10ms until it returns true, failing the test with msg
// when timeout expires first.
func WaitFor(t *testing.T, timeout time.Duration, msg string, fn func() bool) {
	t.Helper()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if fn() {
			return
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			t.Fatalf("timed out after %v: %s", timeout, msg)
		}
	}
}
