package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Registration binds one global hotkey to the function invoked when the OS
// reports it.
type Registration struct {
	Hotkey    Hotkey
	OnTrigger func()
}

// validateRegistrations converts every registration to its platform binding
// and rejects duplicates and nil callbacks.
func validateRegistrations(regs []Registration) ([]Binding, error) {
	bindings := make([]Binding, 0, len(regs))
	seen := make(map[Hotkey]struct{}, len(regs))
	for _, reg := range regs {
		if reg.OnTrigger == nil {
			return nil, fmt.Errorf("hotkeys: onTrigger callback is required for %s", reg.Hotkey)
		}
		if _, dup := seen[reg.Hotkey]; dup {
			return nil, fmt.Errorf("hotkeys: %s registered twice", reg.Hotkey)
		}
		seen[reg.Hotkey] = struct{}{}
		binding, err := reg.Hotkey.Binding()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	if len(bindings) == 0 {
		return nil, errors.New("hotkeys: no registrations")
	}
	return bindings, nil
}

// trigger runs a callback on the hotkey thread. A panicking callback must not
// take the message loop down with it.
func trigger(hk Hotkey, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] global hotkey callback recovered",
				"hotkey", hk.String(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
