// Package tui is the terminal window: it renders the timer from read-locked
// snapshots, turns terminal key events into window key events for the
// dispatcher, and hosts the path prompt used to open splits and layouts.
package tui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"splitrelay/internal/hotkeys"
	"splitrelay/internal/layout"
	"splitrelay/internal/sessionlog"
)

const (
	defaultRefreshInterval = 33 * time.Millisecond
	statusTTL              = 8 * time.Second
)

// Backend is the application side of the window.
type Backend interface {
	// Frame returns the state to draw. It is called on the UI loop.
	Frame() layout.RenderableState
	// HandleKey dispatches a key press. It runs on the dispatch goroutine
	// and may block, e.g. while a file prompt is open.
	HandleKey(ev hotkeys.WindowKeyEvent)
	// Scroll moves the split list by one row.
	Scroll(up bool)
}

type tickMsg time.Time

type refreshMsg struct{}

type pickResult struct {
	path string
	ok   bool
}

type promptRequestMsg struct {
	title   string
	filters []string
	reply   chan<- pickResult
}

type promptCancelMsg struct {
	reply chan<- pickResult
}

type promptState struct {
	title   string
	filters []string
	reply   chan<- pickResult
	input   textinput.Model
	err     string
}

type model struct {
	backend        Backend
	status         *sessionlog.Recent
	enqueue        func(hotkeys.WindowKeyEvent)
	digitsAsNumpad bool
	refresh        time.Duration
	now            func() time.Time

	frame  layout.RenderableState
	width  int
	height int
	prompt *promptState
}

func newModel(backend Backend, status *sessionlog.Recent, enqueue func(hotkeys.WindowKeyEvent), digitsAsNumpad bool, refresh time.Duration) model {
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	return model{
		backend:        backend,
		status:         status,
		enqueue:        enqueue,
		digitsAsNumpad: digitsAsNumpad,
		refresh:        refresh,
		now:            time.Now,
		frame:          backend.Frame(),
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.prompt != nil {
			m.prompt.input.Width = m.promptInputWidth()
		}

	case tickMsg:
		m.frame = m.backend.Frame()
		return m, m.tick()

	case refreshMsg:
		m.frame = m.backend.Frame()

	case promptRequestMsg:
		if m.prompt != nil {
			// One prompt at a time; the dispatcher serializes actions so this
			// only happens when a stale request races a cancel.
			msg.reply <- pickResult{}
			return m, nil
		}
		input := textinput.New()
		input.Placeholder = "path/to/file"
		input.CharLimit = 4096
		input.Width = m.promptInputWidth()
		input.Focus()
		m.prompt = &promptState{
			title:   msg.title,
			filters: msg.filters,
			reply:   msg.reply,
			input:   input,
		}
		return m, textinput.Blink

	case promptCancelMsg:
		if m.prompt != nil && m.prompt.reply == msg.reply {
			m.prompt = nil
		}

	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if ev, ok := KeyEvent(msg, m.digitsAsNumpad); ok {
			m.enqueue(ev)
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.backend.Scroll(true)
			m.frame = m.backend.Frame()
		case tea.MouseButtonWheelDown:
			m.backend.Scroll(false)
			m.frame = m.backend.Frame()
		}
	}
	return m, nil
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt.reply <- pickResult{}
		m.prompt = nil
		return m, nil

	case tea.KeyEnter:
		path := strings.TrimSpace(m.prompt.input.Value())
		if err := validatePick(path, m.prompt.filters); err != "" {
			m.prompt.err = err
			return m, nil
		}
		m.prompt.reply <- pickResult{path: path, ok: true}
		m.prompt = nil
		return m, nil
	}

	m.prompt.err = ""
	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

// validatePick returns a user-facing error for path, or "" when it is
// acceptable. filters are extensions without the dot.
func validatePick(path string, filters []string) string {
	if path == "" {
		return "Path cannot be empty"
	}
	if len(filters) == 0 {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if slices.Contains(filters, ext) {
		return ""
	}
	return fmt.Sprintf("Expected a .%s file", strings.Join(filters, " / ."))
}

func (m model) promptInputWidth() int {
	if m.width <= 0 {
		return 48
	}
	return max(16, m.width-8)
}

func (m model) View() string {
	sections := []string{renderFrame(m.frame, m.width)}

	if m.prompt != nil {
		var b strings.Builder
		b.WriteString(titleStyle.Render(m.prompt.title))
		b.WriteByte('\n')
		b.WriteString(m.prompt.input.View())
		if len(m.prompt.filters) > 0 {
			b.WriteByte('\n')
			b.WriteString(subtleStyle.Render("." + strings.Join(m.prompt.filters, " .") + " · enter to open · esc to cancel"))
		}
		if m.prompt.err != "" {
			b.WriteByte('\n')
			b.WriteString(statusStyle.Render(m.prompt.err))
		}
		sections = append(sections, promptStyle.Render(b.String()))
	}

	if line := m.statusLine(); line != "" {
		sections = append(sections, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) statusLine() string {
	if m.status == nil {
		return ""
	}
	entry, ok := m.status.Latest()
	if !ok || m.now().Sub(entry.Time) > statusTTL {
		return ""
	}
	text := entry.String()
	if m.width > 0 {
		text = truncate(text, m.width)
	}
	return statusStyle.Render(text)
}
