package sessionlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// newTestCallback returns a callback that appends captured entries to a slice,
// and a function to retrieve the captured entries.
func newTestCallback() (EntryCallback, func() []Entry) {
	var mu sync.Mutex
	var entries []Entry

	cb := func(e Entry) {
		mu.Lock()
		defer mu.Unlock()
		entries = append(entries, e)
	}

	get := func() []Entry {
		mu.Lock()
		defer mu.Unlock()
		copied := make([]Entry, len(entries))
		copy(copied, entries)
		return copied
	}

	return cb, get
}

func TestTeeHandler_CallsCallbackAtOrAboveThreshold(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(l *slog.Logger)
		wantLevel slog.Level
		wantMsg   string
		wantCalls int
	}{
		{
			name:      "error",
			logFunc:   func(l *slog.Logger) { l.Error("[DEBUG-WS] listener failed") },
			wantLevel: slog.LevelError,
			wantMsg:   "[DEBUG-WS] listener failed",
			wantCalls: 1,
		},
		{
			name:      "warn",
			logFunc:   func(l *slog.Logger) { l.Warn("[WARN-CONFIG] unknown comparison") },
			wantLevel: slog.LevelWarn,
			wantMsg:   "[WARN-CONFIG] unknown comparison",
			wantCalls: 1,
		},
		{
			name:      "info ignored",
			logFunc:   func(l *slog.Logger) { l.Info("split") },
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			cb, getEntries := newTestCallback()

			tt.logFunc(slog.New(NewTeeHandler(base, slog.LevelWarn, cb)))

			entries := getEntries()
			if len(entries) != tt.wantCalls {
				t.Fatalf("callback entries = %d, want %d", len(entries), tt.wantCalls)
			}
			if tt.wantCalls == 0 {
				return
			}
			entry := entries[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry.Level, tt.wantLevel)
			}
			if entry.Message != tt.wantMsg {
				t.Errorf("msg = %q, want %q", entry.Message, tt.wantMsg)
			}
			if entry.Time.IsZero() {
				t.Error("timestamp is zero, expected a valid time")
			}
		})
	}
}

func TestTeeHandler_DelegatesToBase(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewTeeHandler(base, slog.LevelWarn, nil))

	logger.Info("info message")
	logger.Warn("warn message")
	logger.Debug("debug message")

	out := buf.String()
	for _, want := range []string{"info message", "warn message"} {
		if !strings.Contains(out, want) {
			t.Errorf("base output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "debug message") {
		t.Errorf("base output %q should not contain debug record", out)
	}
}

func TestTeeHandler_TeesEvenWhenBaseDisabled(t *testing.T) {
	cb, getEntries := newTestCallback()
	logger := slog.New(NewTeeHandler(slog.DiscardHandler, slog.LevelWarn, cb))

	logger.Warn("status only")
	logger.Info("dropped")

	entries := getEntries()
	if len(entries) != 1 || entries[0].Message != "status only" {
		t.Fatalf("entries = %+v, want one status entry", entries)
	}
}

func TestTeeHandler_RendersAttrsAndGroups(t *testing.T) {
	cb, getEntries := newTestCallback()
	logger := slog.New(NewTeeHandler(slog.NewTextHandler(io.Discard, nil), slog.LevelWarn, cb))

	logger.With("path", "config.yaml").WithGroup("store").WithGroup("sqlite").Warn("save failed", "error", "disk full")

	entries := getEntries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Group != "store.sqlite" {
		t.Errorf("group = %q, want store.sqlite", entry.Group)
	}
	if entry.Attrs != "path=config.yaml error=disk full" {
		t.Errorf("attrs = %q", entry.Attrs)
	}
	if got, want := entry.String(), "WARN store.sqlite: save failed path=config.yaml error=disk full"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// errorHandler is a mock [slog.Handler] that always returns a predetermined error
// from Handle. Used to verify TeeHandler behavior when the base handler fails.
type errorHandler struct{ err error }

func (h *errorHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h *errorHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h *errorHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h *errorHandler) WithGroup(string) slog.Handler             { return h }

func TestTeeHandler_BaseHandlerError(t *testing.T) {
	tests := []struct {
		name    string
		baseErr error
	}{
		{
			name:    "io error",
			baseErr: errors.New("disk full"),
		},
		{
			name:    "wrapped error",
			baseErr: fmt.Errorf("write log: %w", errors.New("no space left on device")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, getEntries := newTestCallback()
			handler := NewTeeHandler(&errorHandler{err: tt.baseErr}, slog.LevelWarn, cb)

			record := slog.NewRecord(time.Now(), slog.LevelError, "critical failure", 0)
			err := handler.Handle(context.Background(), record)

			if !errors.Is(err, tt.baseErr) {
				t.Errorf("error = %v, want %v", err, tt.baseErr)
			}
			if entries := getEntries(); len(entries) != 1 {
				t.Fatalf("callback entries = %d, want 1 even when base errors", len(entries))
			}
		})
	}
}

func TestTeeHandler_WithGroupEmpty(t *testing.T) {
	h := NewTeeHandler(slog.NewTextHandler(io.Discard, nil), slog.LevelInfo, nil)
	if h.WithGroup("") != h {
		t.Error("WithGroup(\"\") should return the receiver unchanged")
	}
	if h.WithAttrs(nil) != h {
		t.Error("WithAttrs(nil) should return the receiver unchanged")
	}
}

func TestTeeHandler_CallbackPanic_WritesToStderr(t *testing.T) {
	origStderr := os.Stderr
	readPipe, writePipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	os.Stderr = writePipe
	t.Cleanup(func() {
		os.Stderr = origStderr
		_ = readPipe.Close()
		_ = writePipe.Close()
	})

	h := NewTeeHandler(slog.NewTextHandler(io.Discard, nil), slog.LevelInfo, func(Entry) {
		panic("stderr panic test")
	})
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	if handleErr := h.Handle(context.Background(), record); handleErr != nil {
		t.Fatalf("Handle() error = %v, want nil", handleErr)
	}
	_ = writePipe.Close()

	stderrBytes, readErr := io.ReadAll(readPipe)
	if readErr != nil {
		t.Fatalf("io.ReadAll(stderr) error = %v", readErr)
	}
	if !strings.Contains(string(stderrBytes), "[session-log] callback panicked: stderr panic test") {
		t.Fatalf("stderr output = %q, want panic diagnostic prefix", stderrBytes)
	}
}
