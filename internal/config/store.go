package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"splitrelay/internal/timer"
)

// Store owns the config file path and is the single writer of the file.
// Readers take immutable snapshots; every mutation is persisted before it is
// visible through Snapshot.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  Config
}

// NewStore wraps an already loaded cfg that lives at path.
func NewStore(path string, cfg Config) *Store {
	return &Store{path: path, cfg: Clone(cfg)}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a deep copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.cfg)
}

// Replace installs cfg without writing it. Used after an external reload.
func (s *Store) Replace(cfg Config) {
	s.mu.Lock()
	s.cfg = Clone(cfg)
	s.mu.Unlock()
}

// SetComparison records name as the start-up comparison and saves the file.
// Unknown comparison names are rejected without touching the file.
func (s *Store) SetComparison(name string) error {
	known := false
	for _, comparison := range timer.Comparisons {
		if comparison == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: set comparison %q: %w", name, timer.ErrUnknownComparison)
	}
	return s.update(func(cfg *Config) {
		cfg.General.Comparison = name
	})
}

// SetSplitsPath records the splits file path and saves the file.
func (s *Store) SetSplitsPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config: splits path required")
	}
	return s.update(func(cfg *Config) {
		cfg.General.Splits = path
	})
}

// SetLayoutPath records the layout file path and saves the file.
func (s *Store) SetLayoutPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config: layout path required")
	}
	return s.update(func(cfg *Config) {
		cfg.General.Layout = path
	})
}

func (s *Store) update(mutate func(cfg *Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Clone(s.cfg)
	mutate(&next)
	saved, err := Save(s.path, next)
	if err != nil {
		slog.Warn("[WARN-CONFIG] failed to save config", "path", s.path, "error", err)
		return err
	}
	s.cfg = saved
	return nil
}
