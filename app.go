package main

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"splitrelay/internal/config"
	"splitrelay/internal/dispatch"
	"splitrelay/internal/hotkeys"
	"splitrelay/internal/layout"
	"splitrelay/internal/notifier"
	"splitrelay/internal/statestore"
	"splitrelay/internal/timer"
)

// App wires one running splitrelay process: the timer session, the action
// dispatcher, global hotkeys, the state broadcast hub and the window.
type App struct {
	configPath string
	store      *config.Store
	clock      func() time.Time

	// current is the active session. Sessions are immutable once published;
	// restarts build a new one and swap the pointer.
	current atomic.Pointer[session]
	// sessionMu serializes session swaps (open splits/layout, config reload).
	// Lock ordering (outer -> inner):
	//   sessionMu -> hotkeys.Manager
	sessionMu sync.Mutex

	// Backend services. Set once in startup before any reader goroutine
	// starts; hub and db are nil when they failed to start.
	db      *statestore.Store
	hub     *notifier.Notifier
	hotkeys *hotkeys.Manager
	watcher *config.Watcher
	picker  Picker
	quitFn  func()

	ctx          context.Context
	cancel       context.CancelFunc
	shuttingDown atomic.Bool

	startupWarnMu      sync.Mutex
	configLoadWarnings []string
}

// session is the immutable per-session value handed to the dispatcher and
// the render loop. cfg is the configuration the session was built from.
type session struct {
	cfg        config.Config
	splitsPath string
	layoutPath string
	shared     *timer.Shared
	layout     *layout.Layout
	dispatcher *dispatch.Dispatcher
}

type appOptions struct {
	ConfigPath string
	// Clock overrides the timer clock in tests.
	Clock func() time.Time
}

// NewApp creates an app that has not started yet.
func NewApp(opts appOptions) *App {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &App{
		configPath: opts.ConfigPath,
		clock:      clock,
		hotkeys:    hotkeys.NewManager(),
		picker:     noPicker{},
	}
}

func (a *App) currentSession() *session {
	return a.current.Load()
}

func (a *App) addPendingConfigLoadWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.configLoadWarnings = append(a.configLoadWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumePendingConfigLoadWarnings() []string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	out := a.configLoadWarnings
	a.configLoadWarnings = nil
	return out
}

// stateLoadTimeout bounds reading the stored state at session start.
const stateLoadTimeout = 2 * time.Second

// Frame renders the current session under the timer read lock.
func (a *App) Frame() layout.RenderableState {
	sess := a.currentSession()
	if sess == nil {
		return layout.RenderableState{}
	}
	var state layout.RenderableState
	sess.shared.Read(func(r timer.Reader) {
		state = sess.layout.UpdateState(r.Snapshot())
	})
	return state
}

// HandleKey resolves a focused-window key press through the session's table.
func (a *App) HandleKey(ev hotkeys.WindowKeyEvent) {
	sess := a.currentSession()
	if sess == nil {
		return
	}
	sess.dispatcher.HandleKeyPress(hotkeys.FromWindowEvent(ev))
}

// Scroll moves the split list, for the mouse wheel.
func (a *App) Scroll(up bool) {
	sess := a.currentSession()
	if sess == nil {
		return
	}
	if up {
		sess.layout.ScrollUp()
	} else {
		sess.layout.ScrollDown()
	}
}
