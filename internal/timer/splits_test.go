package timer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"splitrelay/internal/testutil"
)

func TestSaveLoadRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	run := threeSegmentRun()
	run.Attempts = 42
	run.Segments[0].PersonalBest = Time{Real: 12*time.Second + 345*time.Millisecond, Game: 11 * time.Second}
	run.Segments[0].BestSegment = Time{Real: 12 * time.Second}

	if err := SaveRun(path, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "12.345s") {
		t.Fatalf("durations not written as strings:\n%s", raw)
	}

	loaded, err := LoadRun(path)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if loaded.Game != run.Game || loaded.Attempts != 42 || len(loaded.Segments) != 3 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.Segments[0] != run.Segments[0] || loaded.Segments[2] != run.Segments[2] {
		t.Fatalf("segments = %+v, want %+v", loaded.Segments, run.Segments)
	}
}

func TestLoadRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no segments", content: "game: X\nsegments: []\n"},
		{name: "bad duration", content: "segments:\n  - name: A\n    personal_best:\n      real: soon\n"},
		{name: "invalid yaml", content: "segments: [\n"},
		{name: "negative attempts", content: "attempts: -1\nsegments:\n  - name: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRun(path); err == nil {
				t.Fatal("LoadRun() expected error")
			}
		})
	}
}

func TestLoadRunOrDefault(t *testing.T) {
	logBuf := testutil.CaptureLogBuffer(t, slog.LevelWarn)

	if run := LoadRunOrDefault(""); run.Game != "Game" || run.Segments[0].Name != "Time" {
		t.Fatalf("empty path run = %+v", run)
	}
	if run := LoadRunOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); run.Category != "Category" {
		t.Fatalf("missing file run = %+v", run)
	}
	if strings.Contains(logBuf.String(), "[WARN-CONFIG]") {
		t.Fatalf("missing file logged a warning:\n%s", logBuf.String())
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("segments: {"), 0o600); err != nil {
		t.Fatal(err)
	}
	if run := LoadRunOrDefault(path); len(run.Segments) != 1 {
		t.Fatalf("broken file run = %+v", run)
	}
	if !strings.Contains(logBuf.String(), "[WARN-CONFIG] failed to load splits") {
		t.Fatalf("broken file not logged:\n%s", logBuf.String())
	}
}
