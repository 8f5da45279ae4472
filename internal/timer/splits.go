package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"splitrelay/internal/atomicfile"
)

const maxSplitsFileBytes = 1 << 20 // 1MB

// splitsFile is the on-disk layout of a run. Durations are written as Go
// duration strings ("1m23.456s") so the file stays hand-editable.
type splitsFile struct {
	Game     string         `yaml:"game"`
	Category string         `yaml:"category"`
	Attempts int            `yaml:"attempts"`
	Segments []segmentEntry `yaml:"segments"`
}

type segmentEntry struct {
	Name         string    `yaml:"name"`
	PersonalBest timeEntry `yaml:"personal_best,omitempty"`
	BestSegment  timeEntry `yaml:"best_segment,omitempty"`
}

type timeEntry struct {
	Real string `yaml:"real,omitempty"`
	Game string `yaml:"game,omitempty"`
}

func (e timeEntry) IsZero() bool { return e.Real == "" && e.Game == "" }

func encodeTime(t Time) timeEntry {
	var e timeEntry
	if t.Real != 0 {
		e.Real = t.Real.String()
	}
	if t.Game != 0 {
		e.Game = t.Game.String()
	}
	return e
}

func decodeTime(e timeEntry) (Time, error) {
	var t Time
	var err error
	if e.Real != "" {
		if t.Real, err = time.ParseDuration(e.Real); err != nil {
			return Time{}, err
		}
	}
	if e.Game != "" {
		if t.Game, err = time.ParseDuration(e.Game); err != nil {
			return Time{}, err
		}
	}
	return t, nil
}

// LoadRun reads a splits file.
func LoadRun(path string) (Run, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Run{}, fmt.Errorf("timer: load splits: %w", err)
	}
	if info.Size() > maxSplitsFileBytes {
		return Run{}, fmt.Errorf("timer: load splits: file exceeds %d bytes", maxSplitsFileBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("timer: load splits: %w", err)
	}

	var file splitsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Run{}, fmt.Errorf("timer: parse splits %q: %w", path, err)
	}
	if len(file.Segments) == 0 {
		return Run{}, fmt.Errorf("timer: parse splits %q: %w", path, ErrEmptyRun)
	}
	if file.Attempts < 0 {
		return Run{}, fmt.Errorf("timer: parse splits %q: negative attempt count", path)
	}

	run := Run{
		Game:     file.Game,
		Category: file.Category,
		Attempts: file.Attempts,
		Segments: make([]Segment, len(file.Segments)),
	}
	for i, entry := range file.Segments {
		pb, err := decodeTime(entry.PersonalBest)
		if err != nil {
			return Run{}, fmt.Errorf("timer: parse splits %q: segment %d personal_best: %w", path, i, err)
		}
		best, err := decodeTime(entry.BestSegment)
		if err != nil {
			return Run{}, fmt.Errorf("timer: parse splits %q: segment %d best_segment: %w", path, i, err)
		}
		run.Segments[i] = Segment{Name: entry.Name, PersonalBest: pb, BestSegment: best}
	}
	return run, nil
}

// LoadRunOrDefault reads the splits file at path, falling back to DefaultRun
// when path is empty or the file cannot be used.
func LoadRunOrDefault(path string) Run {
	if path == "" {
		return DefaultRun()
	}
	run, err := LoadRun(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("[WARN-CONFIG] failed to load splits, using default run", "path", path, "error", err)
		} else {
			slog.Info("[DEBUG-TIMER] splits file not found, using default run", "path", path)
		}
		return DefaultRun()
	}
	return run
}

// SaveRun writes run to path atomically.
func SaveRun(path string, run Run) error {
	if path == "" {
		return errors.New("timer: save splits: path required")
	}
	file := splitsFile{
		Game:     run.Game,
		Category: run.Category,
		Attempts: run.Attempts,
		Segments: make([]segmentEntry, len(run.Segments)),
	}
	for i, seg := range run.Segments {
		file.Segments[i] = segmentEntry{
			Name:         seg.Name,
			PersonalBest: encodeTime(seg.PersonalBest),
			BestSegment:  encodeTime(seg.BestSegment),
		}
	}
	raw, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("timer: save splits: marshal: %w", err)
	}
	if err := atomicfile.Write(path, raw, 0o644); err != nil {
		return fmt.Errorf("timer: save splits: %w", err)
	}
	slog.Debug("[DEBUG-TIMER] splits saved", "path", path)
	return nil
}
