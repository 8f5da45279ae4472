package main

import (
	"log/slog"
	"path/filepath"

	"splitrelay/internal/dispatch"
	"splitrelay/internal/layout"
	"splitrelay/internal/timer"
)

var (
	splitsFileFilters = []string{"yaml", "yml"}
	layoutFileFilters = []string{"yaml", "yml"}
)

// effects binds every action to sess. Timer transitions go through the
// shared write path, so each one is persisted before the next is accepted.
func (a *App) effects(sess *session) dispatch.Effects {
	return dispatch.Effects{
		dispatch.Split: func() { sess.shared.Mutate((*timer.Timer).SplitOrStart) },
		dispatch.Reset: func() {
			sess.shared.Mutate(func(t *timer.Timer) { t.Reset(true) })
		},
		dispatch.Undo:               func() { sess.shared.Mutate((*timer.Timer).UndoSplit) },
		dispatch.Skip:               func() { sess.shared.Mutate((*timer.Timer).SkipSplit) },
		dispatch.Pause:              func() { sess.shared.Mutate((*timer.Timer).TogglePause) },
		dispatch.UndoAllPauses:      func() { sess.shared.Mutate((*timer.Timer).UndoAllPauses) },
		dispatch.ToggleTimingMethod: func() { sess.shared.Mutate((*timer.Timer).ToggleTimingMethod) },
		dispatch.PreviousComparison: func() {
			a.switchComparison(sess, (*timer.Timer).SwitchToPreviousComparison)
		},
		dispatch.NextComparison: func() {
			a.switchComparison(sess, (*timer.Timer).SwitchToNextComparison)
		},
		dispatch.HideComparison:   func() { hideComparison(sess) },
		dispatch.SaveSplits:       func() { saveSplits(sess) },
		dispatch.OpenSplits:       a.openSplits,
		dispatch.OpenLayout:       a.openLayout,
		dispatch.Quit:             a.quit,
		dispatch.LayoutScrollUp:   sess.layout.ScrollUp,
		dispatch.LayoutScrollDown: sess.layout.ScrollDown,
	}
}

// switchComparison cycles the comparison and records the new one as the
// start-up comparison.
func (a *App) switchComparison(sess *session, step func(*timer.Timer)) {
	var name string
	sess.shared.Mutate(func(t *timer.Timer) {
		step(t)
		name = t.CurrentComparison()
	})
	if err := a.store.SetComparison(name); err != nil {
		slog.Warn("[WARN-CONFIG] failed to persist comparison", "comparison", name, "error", err)
	}
}

// hideComparison switches to the empty comparison for this session only.
func hideComparison(sess *session) {
	err := sess.shared.MutateErr(func(t *timer.Timer) error {
		return t.SetCurrentComparison(timer.NoComparison)
	})
	if err != nil {
		slog.Warn("[DEBUG-APP] failed to hide comparison", "error", err)
	}
}

func saveSplits(sess *session) {
	if sess.splitsPath == "" {
		slog.Info("[DEBUG-APP] no splits file configured, nothing saved")
		return
	}
	var run timer.Run
	sess.shared.Read(func(r timer.Reader) { run = r.Run() })
	if err := timer.SaveRun(sess.splitsPath, run); err != nil {
		slog.Warn("[DEBUG-APP] failed to save splits", "path", sess.splitsPath, "error", err)
		return
	}
	slog.Info("[DEBUG-APP] splits saved", "path", sess.splitsPath)
}

// openSplits asks for a splits file and restarts the session with it. The
// running attempt is dropped with the old timer.
func (a *App) openSplits() {
	path, ok := a.pickPath("Open splits", splitsFileFilters)
	if !ok {
		return
	}
	if err := a.store.SetSplitsPath(path); err != nil {
		slog.Warn("[WARN-CONFIG] failed to record splits path", "path", path, "error", err)
		return
	}
	a.restartSession(dispatch.OpenSplits.String())
}

// openLayout asks for a layout file and swaps it into the running session.
func (a *App) openLayout() {
	path, ok := a.pickPath("Open layout", layoutFileFilters)
	if !ok {
		return
	}
	if err := a.store.SetLayoutPath(path); err != nil {
		slog.Warn("[WARN-CONFIG] failed to record layout path", "path", path, "error", err)
		return
	}

	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	cur := a.currentSession()
	if cur == nil {
		return
	}
	next := *cur
	next.layoutPath = path
	next.layout = layout.New(layout.LoadOrDefault(path))
	// The dispatcher's scroll effects are bound to the layout.
	next.dispatcher = a.newDispatcher(&next)
	a.current.Store(&next)
	a.applyGlobalHotkeys(&next)
	slog.Info("[DEBUG-APP] layout opened", "path", path)
}

// pickPath runs the file picker and returns an absolute path.
func (a *App) pickPath(title string, filters []string) (string, bool) {
	path, ok := a.picker.PickFile(a.ctx, title, filters)
	if !ok || path == "" {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		slog.Warn("[DEBUG-APP] failed to resolve picked path", "path", path, "error", err)
		return "", false
	}
	return abs, true
}

func (a *App) quit() {
	if a.quitFn != nil {
		a.quitFn()
	}
}
