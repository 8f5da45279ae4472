package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"splitrelay/internal/workerutil"
)

// defaultWatchDebounce coalesces the burst of events that editors and
// atomic temp+rename saves produce for one logical write.
const defaultWatchDebounce = 150 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(Config)

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Watch starts watching the directory of path and calls onChange with the
// reloaded config after each settled change to the file. Parse failures are
// logged and skipped so that a half-written file never replaces a good
// config. onChange runs on the watcher goroutine.
func Watch(ctx context.Context, path string, onChange func(Config)) (*Watcher, error) {
	return watchWithDebounce(ctx, path, defaultWatchDebounce, onChange)
}

func watchWithDebounce(ctx context.Context, path string, debounce time.Duration, onChange func(Config)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("config: watch %q: nil callback", path)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}
	// Watch the directory, not the file: atomic saves replace the inode.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		fs:       fsw,
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		cancel:   cancel,
	}
	workerutil.RunWithPanicRecovery(watchCtx, "config-watcher", &w.wg, w.loop, workerutil.RecoveryOptions{
		MaxRetries: 3,
	})
	return w, nil
}

// Close stops the watcher and waits for the loop goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("[WARN-CONFIG] config watcher error", "path", w.path, "error", err)
		case <-timerC:
			timerC = nil
			if !pending {
				continue
			}
			pending = false
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("[WARN-CONFIG] config reload failed, keeping current config", "path", w.path, "error", err)
		return
	}
	slog.Debug("[DEBUG-CONFIG] config reloaded", "path", w.path)
	w.onChange(cfg)
}
