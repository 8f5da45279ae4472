package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"splitrelay/internal/hotkeys"
	"splitrelay/internal/sessionlog"
	"splitrelay/internal/workerutil"
)

// keyQueueSize bounds key presses waiting for the dispatcher. A full queue
// drops presses instead of stalling the UI loop.
const keyQueueSize = 64

// Options configure the window.
type Options struct {
	Backend Backend
	// Status is the log tee shown on the status line. May be nil.
	Status *sessionlog.Recent
	// DigitsAsNumpad reports digit-row presses as Numpad keys.
	DigitsAsNumpad bool
	// RefreshInterval is the redraw period. Zero selects ~30 fps.
	RefreshInterval time.Duration
	// Input and Output override the terminal. Nil uses stdin/stdout.
	Input  io.Reader
	Output io.Writer
}

// UI runs the bubbletea program and the key dispatch goroutine.
type UI struct {
	opts Options
	keys chan hotkeys.WindowKeyEvent

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	started atomic.Bool
}

// New returns a window that has not started yet.
func New(opts Options) *UI {
	return &UI{
		opts: opts,
		keys: make(chan hotkeys.WindowKeyEvent, keyQueueSize),
		done: make(chan struct{}),
	}
}

// Run shows the window until the user quits, Quit is called, or ctx is
// cancelled. A UI runs at most once.
func (u *UI) Run(ctx context.Context) error {
	if u.opts.Backend == nil {
		return errors.New("tui: backend is required")
	}
	if !u.started.CompareAndSwap(false, true) {
		return errors.New("tui: already started")
	}

	programOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	if u.opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(u.opts.Input))
	}
	if u.opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(u.opts.Output))
	}
	m := newModel(u.opts.Backend, u.opts.Status, u.enqueue, u.opts.DigitsAsNumpad, u.opts.RefreshInterval)
	program := tea.NewProgram(m, programOpts...)

	u.mu.Lock()
	u.program = program
	u.mu.Unlock()

	dispatchCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	workerutil.RunWithPanicRecovery(dispatchCtx, "tui-dispatch", &wg, u.dispatchLoop, workerutil.RecoveryOptions{
		MaxRetries: 3,
	})

	_, err := program.Run()
	close(u.done)
	cancel()
	wg.Wait()

	if err != nil && ctx.Err() != nil {
		// Cancellation is a normal shutdown path.
		slog.Debug("[DEBUG-TUI] program stopped by context", "error", err)
		return nil
	}
	return err
}

// Quit ends the UI loop. Safe to call from any goroutine, before or after Run.
func (u *UI) Quit() {
	u.send(tea.QuitMsg{})
}

// Refresh redraws the window immediately instead of waiting for the next tick.
func (u *UI) Refresh() {
	u.send(refreshMsg{})
}

// PickFile opens the path prompt and blocks until the user confirms a path,
// cancels, the window closes, or ctx is done. filters are accepted file
// extensions without the dot; empty accepts any path.
func (u *UI) PickFile(ctx context.Context, title string, filters []string) (string, bool) {
	reply := make(chan pickResult, 1)
	if !u.send(promptRequestMsg{title: title, filters: filters, reply: reply}) {
		return "", false
	}
	select {
	case res := <-reply:
		return res.path, res.ok
	case <-ctx.Done():
		u.send(promptCancelMsg{reply: reply})
		return "", false
	case <-u.done:
		return "", false
	}
}

func (u *UI) send(msg tea.Msg) bool {
	select {
	case <-u.done:
		return false
	default:
	}
	u.mu.Lock()
	program := u.program
	u.mu.Unlock()
	if program == nil {
		return false
	}
	// Send returns without delivering once the program has exited.
	program.Send(msg)
	return true
}

// enqueue hands a key press to the dispatch goroutine. Called on the UI loop.
func (u *UI) enqueue(ev hotkeys.WindowKeyEvent) {
	select {
	case u.keys <- ev:
	default:
		slog.Warn("[DEBUG-TUI] key queue full, dropping key press", "code", ev.Code)
	}
}

// dispatchLoop runs actions one at a time in key order, off the UI loop, so
// an action that opens a prompt can wait for the UI to answer it.
func (u *UI) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-u.keys:
			u.opts.Backend.HandleKey(ev)
			u.Refresh()
		}
	}
}
