package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.yaml.in/yaml/v3"
)

const (
	maxLayoutFileBytes   = 256 * 1024
	defaultVisibleSplits = 10
	maxVisibleSplits     = 100
)

// Settings is the user-editable layout file.
type Settings struct {
	Title           string `yaml:"title"`
	VisibleSplits   int    `yaml:"visible_splits"`
	ShowDelta       bool   `yaml:"show_delta"`
	ShowBestSegment bool   `yaml:"show_best_segment"`
	ShowComparison  bool   `yaml:"show_comparison"`
}

// DefaultSettings is used when no layout file is configured.
func DefaultSettings() Settings {
	return Settings{
		VisibleSplits:  defaultVisibleSplits,
		ShowDelta:      true,
		ShowComparison: true,
	}
}

// Load reads a layout file. Missing keys keep their defaults.
func Load(path string) (Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("layout: load: %w", err)
	}
	if info.Size() > maxLayoutFileBytes {
		return DefaultSettings(), fmt.Errorf("layout: load: file exceeds %d bytes", maxLayoutFileBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("layout: load: %w", err)
	}
	settings := DefaultSettings()
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("layout: parse %q: %w", path, err)
	}
	if settings.VisibleSplits <= 0 || settings.VisibleSplits > maxVisibleSplits {
		slog.Warn("[WARN-CONFIG] layout visible_splits out of range, using default",
			"path", path, "value", settings.VisibleSplits, "default", defaultVisibleSplits)
		settings.VisibleSplits = defaultVisibleSplits
	}
	return settings, nil
}

// LoadOrDefault reads the layout file at path, falling back to
// DefaultSettings when path is empty or the file cannot be used.
func LoadOrDefault(path string) Settings {
	if path == "" {
		return DefaultSettings()
	}
	settings, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("[DEBUG-LAYOUT] layout file not found, using default layout", "path", path)
		} else {
			slog.Warn("[WARN-CONFIG] failed to load layout, using default", "path", path, "error", err)
		}
		return DefaultSettings()
	}
	return settings
}
