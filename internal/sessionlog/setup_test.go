package sessionlog

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesToLogFile(t *testing.T) {
	tests := []struct {
		name       string
		clear      bool
		wantPrefix bool
	}{
		{name: "append keeps previous content", clear: false, wantPrefix: true},
		{name: "clear truncates", clear: true, wantPrefix: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logs", "splitrelay.log")
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			if err := os.WriteFile(path, []byte("previous run\n"), 0o600); err != nil {
				t.Fatalf("seed log: %v", err)
			}

			logger, closer, err := Setup(Options{Path: path, Level: slog.LevelInfo, Clear: tt.clear})
			if err != nil {
				t.Fatalf("Setup() error = %v", err)
			}
			logger.Info("session started")
			logger.Debug("hidden")
			if err := closer.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			out := string(raw)
			if strings.HasPrefix(out, "previous run") != tt.wantPrefix {
				t.Fatalf("log = %q, want previous content kept = %v", out, tt.wantPrefix)
			}
			if !strings.Contains(out, "session started") || strings.Contains(out, "hidden") {
				t.Fatalf("log = %q", out)
			}
		})
	}
}

func TestSetupFallbackAndTee(t *testing.T) {
	var buf bytes.Buffer
	recent := NewRecent(4)
	logger, closer, err := Setup(Options{
		Level:    slog.LevelError,
		Fallback: &buf,
		Tee:      recent.Add,
		TeeLevel: slog.LevelWarn,
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()

	logger.Warn("shown on status line")
	if buf.Len() != 0 {
		t.Fatalf("fallback got %q, want nothing below error", buf.String())
	}
	if latest, ok := recent.Latest(); !ok || latest.Message != "shown on status line" {
		t.Fatalf("Latest() = %+v, %v", latest, ok)
	}
}

func TestSetupDiscardsWithoutPathOrFallback(t *testing.T) {
	logger, closer, err := Setup(Options{Level: slog.LevelDebug})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatal("logger without sink should be disabled")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestSetupFallsBackWhenLogFileUnusable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	var buf bytes.Buffer
	recent := NewRecent(4)
	logger, closer, err := Setup(Options{
		Path:     filepath.Join(blocker, "splitrelay.log"),
		Level:    slog.LevelInfo,
		Fallback: &buf,
		Tee:      recent.Add,
		TeeLevel: slog.LevelWarn,
	})
	if err == nil {
		t.Fatal("Setup() expected error for log path under a regular file")
	}
	if logger == nil || closer == nil {
		t.Fatalf("Setup() logger = %v, closer = %v, want usable fallbacks", logger, closer)
	}
	if closeErr := closer.Close(); closeErr != nil {
		t.Fatalf("Close() error = %v", closeErr)
	}

	logger.Warn("still logging")
	if !strings.Contains(buf.String(), "still logging") {
		t.Fatalf("fallback = %q, want record", buf.String())
	}
	if latest, ok := recent.Latest(); !ok || latest.Message != "still logging" {
		t.Fatalf("Latest() = %+v, %v", latest, ok)
	}

	t.Run("without fallback", func(t *testing.T) {
		logger, _, err := Setup(Options{Path: filepath.Join(blocker, "splitrelay.log")})
		if err == nil {
			t.Fatal("Setup() expected error")
		}
		logger.Error("dropped")
	})
}
