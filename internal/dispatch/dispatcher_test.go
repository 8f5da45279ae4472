package dispatch

import (
	"sync"
	"testing"

	"splitrelay/internal/hotkeys"
)

type recorder struct {
	mu        sync.Mutex
	performed []Action
	notified  []Action
}

func (r *recorder) effects() Effects {
	effects := make(Effects)
	for _, a := range AllActions() {
		effects[a] = func() {
			r.mu.Lock()
			r.performed = append(r.performed, a)
			r.mu.Unlock()
		}
	}
	return effects
}

func (r *recorder) notify(a Action) {
	r.mu.Lock()
	r.notified = append(r.notified, a)
	r.mu.Unlock()
}

func TestHandleKeyPressSaveSplitsScenario(t *testing.T) {
	rec := &recorder{}
	table := BuildTable(ModeGlobal, lookupFrom(map[Action]string{SaveSplits: "Ctrl+S"}))
	d := NewDispatcher(table, rec.effects(), rec.notify)

	got, ok := d.HandleKeyPress(hotkeys.FromWindowEvent(hotkeys.WindowKeyEvent{Code: "KeyS", Ctrl: true}))
	if !ok || got != SaveSplits {
		t.Fatalf("Ctrl+S resolved to %v, %v; want SaveSplits", got, ok)
	}
	if _, ok := d.HandleKeyPress(hotkeys.FromWindowEvent(hotkeys.WindowKeyEvent{Code: "KeyS"})); ok {
		t.Fatal("bare S resolved to an action")
	}
	if _, ok := d.HandleKeyPress(hotkeys.FromWindowEvent(hotkeys.WindowKeyEvent{Code: "KeyS", Ctrl: true, Shift: true})); ok {
		t.Fatal("Ctrl+Shift+S resolved to an action")
	}

	if len(rec.performed) != 1 || rec.performed[0] != SaveSplits {
		t.Fatalf("performed = %v, want [save_splits]", rec.performed)
	}
	if len(rec.notified) != 0 {
		t.Fatalf("SaveSplits notified subscribers: %v", rec.notified)
	}
}

func TestHandleKeyPressUnboundIsNoop(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(BuildTable(ModeLocal, nil), rec.effects(), rec.notify)

	for _, spec := range []string{"F12", "Ctrl+Numpad1", "Meta+Space"} {
		if _, ok := d.HandleKeyPress(hotkeys.MustParse(spec)); ok {
			t.Fatalf("%s resolved to an action", spec)
		}
	}
	if _, ok := d.HandleKeyPress(hotkeys.Hotkey{}); ok {
		t.Fatal("unidentified key resolved to an action")
	}
	if len(rec.performed) != 0 || len(rec.notified) != 0 {
		t.Fatalf("unbound keys had effects: performed=%v notified=%v", rec.performed, rec.notified)
	}
}

func TestWindowEventsByMode(t *testing.T) {
	for _, mode := range []Mode{ModeLocal, ModeGlobal} {
		t.Run(mode.String(), func(t *testing.T) {
			rec := &recorder{}
			d := NewDispatcher(BuildTable(mode, nil), rec.effects(), rec.notify)
			for _, a := range PrimaryActions {
				got, ok := d.HandleKeyPress(hotkeys.MustParse(DefaultBinding(a)))
				if mode == ModeGlobal && ok {
					t.Fatalf("global mode resolved window event to %v", got)
				}
				if mode == ModeLocal && (!ok || got != a) {
					t.Fatalf("local mode resolved %s to %v, %v; want %v", DefaultBinding(a), got, ok, a)
				}
			}
			if mode == ModeLocal && len(rec.notified) != len(PrimaryActions) {
				t.Fatalf("notified %d times, want %d", len(rec.notified), len(PrimaryActions))
			}
		})
	}
}

func TestPerformNotifiesAfterEffect(t *testing.T) {
	var order []string
	effects := Effects{
		Split:          func() { order = append(order, "effect") },
		LayoutScrollUp: func() { order = append(order, "scroll") },
	}
	d := NewDispatcher(BuildTable(ModeLocal, nil), effects, func(a Action) {
		order = append(order, "notify:"+a.String())
	})

	d.Perform(Split)
	d.Perform(LayoutScrollUp)
	d.Perform(Reset) // no effect bound

	want := []string{"effect", "notify:split", "scroll"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestGlobalRegistrationsPerform(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(BuildTable(ModeGlobal, nil), rec.effects(), rec.notify)

	regs := d.GlobalRegistrations(nil)
	if len(regs) != len(PrimaryActions) {
		t.Fatalf("len(regs) = %d, want %d", len(regs), len(PrimaryActions))
	}
	for _, reg := range regs {
		reg.OnTrigger()
	}
	if len(rec.performed) != len(PrimaryActions) {
		t.Fatalf("performed = %v", rec.performed)
	}
	for i, a := range PrimaryActions {
		if rec.performed[i] != a || rec.notified[i] != a {
			t.Fatalf("registration %d ran %v/%v, want %v", i, rec.performed[i], rec.notified[i], a)
		}
	}
}
