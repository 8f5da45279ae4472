// Package statestore keeps the timer state and attempt history in SQLite so an
// attempt in progress survives a restart.
package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"splitrelay/internal/timer"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS timer_state (
	run_key    TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_key    TEXT    NOT NULL,
	number     INTEGER NOT NULL,
	started_at TEXT    NOT NULL,
	ended_at   TEXT    NOT NULL,
	completed  INTEGER NOT NULL,
	real_ms    INTEGER NOT NULL,
	game_ms    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_run_key ON attempts(run_key, id DESC);
`

// Store is an open state database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the state database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("statestore: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("statestore: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statestore: open %q: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps the PRAGMAs
	// below in effect for every statement.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	slog.Debug("[DEBUG-STORE] state store opened", "path", path)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("statestore: %s: %w", pragma, err)
		}
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("statestore: read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("statestore: schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("statestore: create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("statestore: write schema version: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("statestore: close: %w", err)
	}
	return nil
}

// Session scopes the store to one run. runKey identifies the run, normally
// the splits file path.
func (s *Store) Session(runKey string) *Session {
	return &Session{store: s, runKey: runKey}
}

// Session reads and writes the state of one run. It implements
// timer.Persister.
type Session struct {
	store  *Store
	runKey string
}

var _ timer.Persister = (*Session)(nil)

// SaveState replaces the stored state of the run.
func (s *Session) SaveState(ctx context.Context, st timer.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("statestore: marshal state: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO timer_state (run_key, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(run_key) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		s.runKey, string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("statestore: save state: %w", err)
	}
	return nil
}

// LoadState returns the stored state of the run. ok is false when nothing has
// been stored yet.
func (s *Session) LoadState(ctx context.Context) (st timer.State, ok bool, err error) {
	var raw string
	err = s.store.db.QueryRowContext(ctx,
		"SELECT state FROM timer_state WHERE run_key = ?", s.runKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return timer.State{}, false, nil
	}
	if err != nil {
		return timer.State{}, false, fmt.Errorf("statestore: load state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return timer.State{}, false, fmt.Errorf("statestore: decode state: %w", err)
	}
	return st, true, nil
}

// RecordAttempt appends a finished attempt to the history.
func (s *Session) RecordAttempt(ctx context.Context, attempt timer.Attempt) error {
	completed := 0
	if attempt.Completed {
		completed = 1
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO attempts (run_key, number, started_at, ended_at, completed, real_ms, game_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runKey,
		attempt.Number,
		attempt.StartedAt.UTC().Format(time.RFC3339Nano),
		attempt.EndedAt.UTC().Format(time.RFC3339Nano),
		completed,
		attempt.Final.Real.Milliseconds(),
		attempt.Final.Game.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("statestore: record attempt: %w", err)
	}
	return nil
}

// Attempts returns up to limit attempts of the run, newest first.
func (s *Session) Attempts(ctx context.Context, limit int) ([]timer.Attempt, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT number, started_at, ended_at, completed, real_ms, game_ms
		FROM attempts WHERE run_key = ? ORDER BY id DESC LIMIT ?`,
		s.runKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("statestore: query attempts: %w", err)
	}
	defer rows.Close()

	var out []timer.Attempt
	for rows.Next() {
		var (
			attempt        timer.Attempt
			started, ended string
			completed      int
			realMS, gameMS int64
		)
		if err := rows.Scan(&attempt.Number, &started, &ended, &completed, &realMS, &gameMS); err != nil {
			return nil, fmt.Errorf("statestore: scan attempt: %w", err)
		}
		if attempt.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("statestore: parse started_at: %w", err)
		}
		if attempt.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("statestore: parse ended_at: %w", err)
		}
		attempt.Completed = completed != 0
		attempt.Final = timer.Time{
			Real: time.Duration(realMS) * time.Millisecond,
			Game: time.Duration(gameMS) * time.Millisecond,
		}
		out = append(out, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statestore: iterate attempts: %w", err)
	}
	return out, nil
}
