package tui

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"splitrelay/internal/hotkeys"
	"splitrelay/internal/layout"
	"splitrelay/internal/sessionlog"
	"splitrelay/internal/timer"
)

type fakeBackend struct {
	mu      sync.Mutex
	frames  int
	scrolls []bool
	keys    []hotkeys.WindowKeyEvent
}

func (b *fakeBackend) Frame() layout.RenderableState {
	b.mu.Lock()
	b.frames++
	b.mu.Unlock()
	return layout.RenderableState{
		Title:        "Celeste - Any%",
		Attempts:     12,
		Timer:        "1:02.34",
		Phase:        timer.Running,
		Comparison:   timer.PersonalBest,
		TimingMethod: timer.RealTime,
		TotalSplits:  2,
		Settings:     layout.DefaultSettings(),
		Rows: []layout.Row{
			{Name: "Forsaken City", Split: "0:45.10", Delta: "-1.2", DeltaSign: -1},
			{Name: "Old Site", Split: "-", Comparison: "2:10.00", Current: true},
		},
	}
}

func (b *fakeBackend) HandleKey(ev hotkeys.WindowKeyEvent) {
	b.mu.Lock()
	b.keys = append(b.keys, ev)
	b.mu.Unlock()
}

func (b *fakeBackend) Scroll(up bool) {
	b.mu.Lock()
	b.scrolls = append(b.scrolls, up)
	b.mu.Unlock()
}

type keyRecorder struct {
	events []hotkeys.WindowKeyEvent
}

func (r *keyRecorder) enqueue(ev hotkeys.WindowKeyEvent) {
	r.events = append(r.events, ev)
}

func newTestModel(t *testing.T) (model, *fakeBackend, *keyRecorder) {
	t.Helper()
	backend := &fakeBackend{}
	rec := &keyRecorder{}
	return newModel(backend, nil, rec.enqueue, true, time.Second), backend, rec
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm, cmd
}

func TestModelEnqueuesWindowKeyEvents(t *testing.T) {
	m, _, rec := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("paste"), Paste: true})

	want := []hotkeys.WindowKeyEvent{
		{Code: "KeyS", Ctrl: true},
		{Code: "Numpad1"},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %+v, want %+v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("events[%d] = %+v, want %+v", i, rec.events[i], want[i])
		}
	}
}

func TestModelCtrlCQuits(t *testing.T) {
	m, _, rec := newTestModel(t)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Ctrl+C returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("Ctrl+C command did not produce QuitMsg")
	}
	if len(rec.events) != 0 {
		t.Fatalf("Ctrl+C was dispatched: %+v", rec.events)
	}
}

func TestModelMouseWheelScrolls(t *testing.T) {
	m, backend, _ := newTestModel(t)

	m, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	m, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	_, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonWheelDown})

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.scrolls) != 2 || !backend.scrolls[0] || backend.scrolls[1] {
		t.Fatalf("scrolls = %v, want [true false]", backend.scrolls)
	}
}

func TestModelTickRefreshesFrame(t *testing.T) {
	m, backend, _ := newTestModel(t)
	backend.mu.Lock()
	before := backend.frames
	backend.mu.Unlock()

	_, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick did not schedule the next tick")
	}
	backend.mu.Lock()
	after := backend.frames
	backend.mu.Unlock()
	if after != before+1 {
		t.Fatalf("frames = %d, want %d", after, before+1)
	}
}

func TestModelPromptFlow(t *testing.T) {
	tests := []struct {
		name     string
		filters  []string
		typed    string
		finalKey tea.KeyType
		wantPath string
		wantOK   bool
		wantOpen bool
	}{
		{name: "confirm", filters: []string{"yaml", "yml"}, typed: "runs/any.yaml", finalKey: tea.KeyEnter, wantPath: "runs/any.yaml", wantOK: true},
		{name: "cancel", filters: []string{"yaml"}, typed: "runs/any.yaml", finalKey: tea.KeyEsc},
		{name: "wrong extension keeps prompt open", filters: []string{"yaml"}, typed: "runs/any.lss", finalKey: tea.KeyEnter, wantOpen: true},
		{name: "empty keeps prompt open", finalKey: tea.KeyEnter, wantOpen: true},
		{name: "no filter accepts any", typed: "notes.txt", finalKey: tea.KeyEnter, wantPath: "notes.txt", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, rec := newTestModel(t)
			reply := make(chan pickResult, 1)

			m, _ = update(t, m, promptRequestMsg{title: "Open splits", filters: tt.filters, reply: reply})
			if m.prompt == nil {
				t.Fatal("prompt not opened")
			}
			if tt.typed != "" {
				m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tt.typed)})
			}
			m, _ = update(t, m, tea.KeyMsg{Type: tt.finalKey})

			if len(rec.events) != 0 {
				t.Fatalf("prompt keys leaked to dispatcher: %+v", rec.events)
			}
			if tt.wantOpen {
				if m.prompt == nil || m.prompt.err == "" {
					t.Fatal("prompt should stay open with an error")
				}
				if !strings.Contains(m.View(), m.prompt.err) {
					t.Fatalf("View() does not show prompt error %q", m.prompt.err)
				}
				return
			}
			if m.prompt != nil {
				t.Fatal("prompt should be closed")
			}
			select {
			case res := <-reply:
				if res.path != tt.wantPath || res.ok != tt.wantOK {
					t.Fatalf("reply = %+v, want {%q %v}", res, tt.wantPath, tt.wantOK)
				}
			default:
				t.Fatal("no reply sent")
			}
		})
	}
}

func TestModelPromptCancelAndOverlap(t *testing.T) {
	m, _, _ := newTestModel(t)
	first := make(chan pickResult, 1)
	second := make(chan pickResult, 1)

	m, _ = update(t, m, promptRequestMsg{title: "Open splits", reply: first})
	m, _ = update(t, m, promptRequestMsg{title: "Open layout", reply: second})
	select {
	case res := <-second:
		if res.ok {
			t.Fatalf("overlapping prompt reply = %+v, want cancelled", res)
		}
	default:
		t.Fatal("overlapping prompt got no reply")
	}

	// A cancel for another prompt must not close the open one.
	m, _ = update(t, m, promptCancelMsg{reply: second})
	if m.prompt == nil {
		t.Fatal("unrelated cancel closed the prompt")
	}
	m, _ = update(t, m, promptCancelMsg{reply: first})
	if m.prompt != nil {
		t.Fatal("cancel did not close the prompt")
	}
}

func TestValidatePick(t *testing.T) {
	tests := []struct {
		path    string
		filters []string
		wantErr bool
	}{
		{path: "", wantErr: true},
		{path: "a.yaml", filters: []string{"yaml"}},
		{path: "A.YAML", filters: []string{"yaml"}},
		{path: "a.yml", filters: []string{"yaml", "yml"}},
		{path: "a.json", filters: []string{"yaml"}, wantErr: true},
		{path: "noext", filters: []string{"yaml"}, wantErr: true},
		{path: "anything"},
	}
	for _, tt := range tests {
		if got := validatePick(tt.path, tt.filters); (got != "") != tt.wantErr {
			t.Errorf("validatePick(%q, %v) = %q, wantErr %v", tt.path, tt.filters, got, tt.wantErr)
		}
	}
}

func TestModelViewRendersFrameAndStatus(t *testing.T) {
	backend := &fakeBackend{}
	status := sessionlog.NewRecent(4)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	m := newModel(backend, status, func(hotkeys.WindowKeyEvent) {}, false, time.Second)
	m.now = func() time.Time { return now }

	view := m.View()
	for _, want := range []string{"Celeste - Any%", "#12", "Forsaken City", "Old Site", "1:02.34", "-1.2", "2:10.00", "Personal Best"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	status.Add(sessionlog.Entry{Time: now.Add(-time.Second), Level: slog.LevelWarn, Message: "[WARN-CONFIG] config reload failed"})
	if !strings.Contains(m.View(), "config reload failed") {
		t.Fatal("View() does not show recent warning")
	}

	m.now = func() time.Time { return now.Add(statusTTL + 2*time.Second) }
	if strings.Contains(m.View(), "config reload failed") {
		t.Fatal("View() still shows expired warning")
	}
}

func TestUIBeforeRun(t *testing.T) {
	ui := New(Options{Backend: &fakeBackend{}})
	// Not running: every call returns immediately.
	ui.Quit()
	ui.Refresh()
	if path, ok := ui.PickFile(context.Background(), "Open splits", nil); ok || path != "" {
		t.Fatalf("PickFile() = %q, %v; want cancelled", path, ok)
	}
}

func TestUIRunRequiresBackend(t *testing.T) {
	if err := New(Options{}).Run(t.Context()); err == nil {
		t.Fatal("Run() expected error without backend")
	}
}

func TestUIEnqueueDropsWhenFull(t *testing.T) {
	ui := New(Options{Backend: &fakeBackend{}})
	for range keyQueueSize + 5 {
		ui.enqueue(hotkeys.WindowKeyEvent{Code: "Numpad1"})
	}
	if got := len(ui.keys); got != keyQueueSize {
		t.Fatalf("queued = %d, want %d", got, keyQueueSize)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Forsaken City", 20, "Forsaken City"},
		{"Forsaken City", 8, "Forsake…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
