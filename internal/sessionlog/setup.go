package sessionlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Options configure the session logger.
type Options struct {
	// Path is the log file. Empty writes to Fallback instead.
	Path string
	// Level is the minimum level written to the log file or Fallback.
	Level slog.Level
	// Clear truncates the log file instead of appending.
	Clear bool
	// Fallback receives logs when Path is empty or cannot be opened.
	// Nil discards them.
	Fallback io.Writer
	// Tee receives records at TeeLevel and above. May be nil.
	Tee      EntryCallback
	TeeLevel slog.Level
}

// Setup builds the session logger. The returned closer releases the log
// file; it is a no-op when no file was opened.
//
// When the log file cannot be opened Setup still returns a usable logger
// writing to Fallback (or nowhere) together with the open error.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		base    slog.Handler
		closer  io.Closer = nopCloser{}
		openErr error
	)
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	if opts.Path != "" {
		file, err := openLogFile(opts.Path, opts.Clear)
		if err == nil {
			base = slog.NewTextHandler(file, handlerOpts)
			closer = file
		}
		openErr = err
	}
	if base == nil {
		if opts.Fallback != nil {
			base = slog.NewTextHandler(opts.Fallback, handlerOpts)
		} else {
			base = slog.DiscardHandler
		}
	}

	if opts.Tee == nil {
		return slog.New(base), closer, openErr
	}
	return slog.New(NewTeeHandler(base, opts.TeeLevel, opts.Tee)), closer, openErr
}

func openLogFile(path string, clear bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sessionlog: create log dir: %w", err)
	}
	flags := os.O_CREATE | os.O_WRONLY
	if clear {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("sessionlog: open log file %q: permission denied: %w", path, err)
		}
		return nil, fmt.Errorf("sessionlog: open log file %q: %w", path, err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
