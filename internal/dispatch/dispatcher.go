package dispatch

import (
	"log/slog"

	"splitrelay/internal/hotkeys"
)

// Effects binds each action to the function that performs it against the
// timer, layout and config collaborators.
type Effects map[Action]func()

// Dispatcher resolves key presses through a Table and runs the bound effect.
// It holds no mutable state and may be called from several goroutines; the
// effects synchronize on the shared timer themselves.
type Dispatcher struct {
	table   *Table
	effects Effects
	notify  func(Action)
}

// NewDispatcher returns a Dispatcher. notify runs after every action that
// changes timer-observable state and may be nil.
func NewDispatcher(table *Table, effects Effects, notify func(Action)) *Dispatcher {
	return &Dispatcher{table: table, effects: effects, notify: notify}
}

// Table returns the action table the dispatcher resolves against.
func (d *Dispatcher) Table() *Table { return d.table }

// HandleKeyPress runs the action bound to hk, if any, before returning.
// Unbound hotkeys are ignored.
func (d *Dispatcher) HandleKeyPress(hk hotkeys.Hotkey) (Action, bool) {
	action, ok := d.table.Lookup(hk)
	if !ok {
		return 0, false
	}
	slog.Debug("[DEBUG-DISPATCH] key press resolved", "hotkey", hk.String(), "action", action.String())
	d.Perform(action)
	return action, true
}

// Perform runs the effect for action and notifies subscribers when the action
// changes timer state. Global hotkey callbacks call this directly, bypassing
// the table.
func (d *Dispatcher) Perform(action Action) {
	effect := d.effects[action]
	if effect == nil {
		slog.Debug("[DEBUG-DISPATCH] no effect bound", "action", action.String())
		return
	}
	effect()
	if action.ChangesTimer() && d.notify != nil {
		d.notify(action)
	}
}

// GlobalRegistrations returns OS hotkey registrations that run the primary
// actions through Perform.
func (d *Dispatcher) GlobalRegistrations(lookup BindingLookup) []hotkeys.Registration {
	entries := GlobalBindings(lookup)
	regs := make([]hotkeys.Registration, 0, len(entries))
	for _, entry := range entries {
		action := entry.Action
		regs = append(regs, hotkeys.Registration{
			Hotkey:    entry.Hotkey,
			OnTrigger: func() { d.Perform(action) },
		})
	}
	return regs
}
