package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"splitrelay/internal/config"
	"splitrelay/internal/dispatch"
	"splitrelay/internal/layout"
	"splitrelay/internal/notifier"
	"splitrelay/internal/statestore"
	"splitrelay/internal/timer"
)

// defaultRunKey keys the stored state of the built-in default run.
const defaultRunKey = "default"

// loadStartupConfig reads (creating if needed) the config file. Failures are
// non-fatal: the defaults are returned and the problem is recorded as a
// startup warning.
func (a *App) loadStartupConfig() config.Config {
	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addPendingConfigLoadWarning(message)
	}
	cfg, err := config.EnsureFile(a.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
		a.addPendingConfigLoadWarning(
			"Failed to load config file at startup. Running with defaults. Error: " + err.Error(),
		)
	}
	return cfg
}

// startup brings up the backend services and the first session. Only a
// session that cannot be built is fatal; the state store, the notifier and
// the config watcher degrade to disabled with a warning.
func (a *App) startup(ctx context.Context, cfg config.Config) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.store = config.NewStore(a.configPath, cfg)

	for _, message := range a.consumePendingConfigLoadWarnings() {
		slog.Warn("[WARN-CONFIG] " + message)
	}

	statePath := config.ResolvePath(a.configPath, cfg.General.StateFile)
	if statePath != "" {
		db, err := statestore.Open(a.ctx, statePath)
		if err != nil {
			slog.Warn("[DEBUG-STORE] state store unavailable, timer state will not survive a restart",
				"path", statePath, "error", err)
		} else {
			a.db = db
		}
	}

	hub, err := notifier.New(notifier.Options{Addr: cfg.Connections.WebSocketAddr})
	if err != nil {
		slog.Warn("[DEBUG-WS] notifier failed to start, state changes will not be broadcast",
			"addr", cfg.Connections.WebSocketAddr, "error", err)
	} else {
		a.hub = hub
	}

	a.sessionMu.Lock()
	sess, err := a.startSessionLocked(cfg)
	a.sessionMu.Unlock()
	if err != nil {
		a.shutdown()
		return fmt.Errorf("start session: %w", err)
	}

	watcher, err := config.Watch(a.ctx, a.configPath, a.onConfigChange)
	if err != nil {
		slog.Warn("[WARN-CONFIG] config watcher unavailable, edits apply on restart", "path", a.configPath, "error", err)
	} else {
		a.watcher = watcher
	}

	a.broadcast(initEvent, sess)
	return nil
}

// startSessionLocked builds a session from cfg, publishes it, and moves the
// global hotkey registrations over to it. Caller must hold sessionMu.
func (a *App) startSessionLocked(cfg config.Config) (*session, error) {
	splitsPath := config.ResolvePath(a.configPath, cfg.General.Splits)
	layoutPath := config.ResolvePath(a.configPath, cfg.General.Layout)

	t, err := timer.New(timer.LoadRunOrDefault(splitsPath), a.clock)
	if err != nil {
		return nil, err
	}
	t.SetTimingMethod(cfg.TimingMethod())
	if err := t.SetCurrentComparison(cfg.General.Comparison); err != nil {
		slog.Warn("[WARN-CONFIG] configured comparison unavailable, keeping default",
			"comparison", cfg.General.Comparison, "error", err)
	}

	var persist timer.Persister
	if a.db != nil {
		stored := a.db.Session(runKey(splitsPath))
		a.restoreState(t, stored, splitsPath)
		persist = stored
	}

	sess := &session{
		cfg:        cfg,
		splitsPath: splitsPath,
		layoutPath: layoutPath,
		shared:     timer.NewShared(t, persist),
		layout:     layout.New(layout.LoadOrDefault(layoutPath)),
	}
	sess.dispatcher = a.newDispatcher(sess)
	a.current.Store(sess)
	a.applyGlobalHotkeys(sess)

	slog.Info("[DEBUG-APP] session started",
		"splits", splitsPath, "layout", layoutPath, "mode", cfg.Mode().String())
	return sess, nil
}

func (a *App) restoreState(t *timer.Timer, stored *statestore.Session, splitsPath string) {
	ctx, cancel := context.WithTimeout(a.ctx, stateLoadTimeout)
	defer cancel()

	st, ok, err := stored.LoadState(ctx)
	if err != nil {
		slog.Warn("[DEBUG-STORE] failed to load stored timer state", "splits", splitsPath, "error", err)
		return
	}
	if !ok {
		return
	}
	if err := t.ReplaceState(st); err != nil {
		slog.Warn("[DEBUG-STORE] stored timer state does not match the run, starting fresh",
			"splits", splitsPath, "error", err)
		return
	}
	slog.Info("[DEBUG-STORE] restored timer state", "splits", splitsPath, "phase", st.Phase.String())
}

// newDispatcher builds the action table and dispatcher for sess.
func (a *App) newDispatcher(sess *session) *dispatch.Dispatcher {
	table := dispatch.BuildTable(sess.cfg.Mode(), sess.cfg.Binding)
	return dispatch.NewDispatcher(table, a.effects(sess), func(action dispatch.Action) {
		a.broadcast(action.String(), sess)
	})
}

// applyGlobalHotkeys registers the primary set for Global mode and drops any
// registration otherwise.
func (a *App) applyGlobalHotkeys(sess *session) {
	if sess.cfg.Mode() != dispatch.ModeGlobal {
		if err := a.hotkeys.Stop(); err != nil {
			slog.Warn("[DEBUG-HOTKEY] failed to unregister global hotkeys", "error", err)
		}
		return
	}
	regs := sess.dispatcher.GlobalRegistrations(sess.cfg.Binding)
	if err := a.hotkeys.Start(regs); err != nil {
		slog.Warn("[DEBUG-HOTKEY] failed to register global hotkeys", "error", err)
		return
	}
	slog.Info("[DEBUG-HOTKEY] global hotkeys registered", "count", len(regs))
}

// onConfigChange applies an edited config file. A change to the bindings or
// the dispatch mode rebuilds the dispatch layer around the running timer;
// everything else applies on the next start.
func (a *App) onConfigChange(cfg config.Config) {
	if a.shuttingDown.Load() {
		return
	}
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	a.store.Replace(cfg)
	cur := a.currentSession()
	if cur == nil {
		return
	}
	if cur.cfg.SameDispatch(cfg) {
		slog.Debug("[DEBUG-CONFIG] config changed, applies on restart", "path", a.configPath)
		return
	}

	next := &session{
		cfg:        cfg,
		splitsPath: cur.splitsPath,
		layoutPath: cur.layoutPath,
		shared:     cur.shared,
		layout:     cur.layout,
	}
	next.dispatcher = a.newDispatcher(next)
	a.current.Store(next)
	a.applyGlobalHotkeys(next)
	slog.Info("[DEBUG-CONFIG] hotkey bindings reloaded", "mode", cfg.Mode().String())
}

// restartSession replaces the running session with one built from the
// current config, then notifies subscribers under event.
func (a *App) restartSession(event string) {
	a.sessionMu.Lock()
	sess, err := a.startSessionLocked(a.store.Snapshot())
	a.sessionMu.Unlock()
	if err != nil {
		slog.Warn("[DEBUG-APP] failed to restart session, keeping the current one", "error", err)
		return
	}
	a.broadcast(event, sess)
}

// shutdown stops every backend service. Safe to call more than once.
func (a *App) shutdown() {
	if !a.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if err := a.hotkeys.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop hotkeys: %w", err))
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close config watcher: %w", err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close state store: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("[DEBUG-APP] shutdown finished with errors", "error", err)
	}
}

// runKey identifies a run in the state store.
func runKey(splitsPath string) string {
	if splitsPath == "" {
		return defaultRunKey
	}
	return filepath.Clean(splitsPath)
}
