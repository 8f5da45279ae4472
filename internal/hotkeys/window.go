package hotkeys

// WindowKeyEvent is a key press reported by the focused window. Code carries
// the physical key name ("KeyS", "Numpad1"); the booleans report which
// modifiers were held.
type WindowKeyEvent struct {
	Code  string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// FromWindowEvent converts a window key event into a Hotkey. Codes outside the
// key table resolve to KeyUnidentified, which no table binds.
func FromWindowEvent(ev WindowKeyEvent) Hotkey {
	key, _ := LookupKey(ev.Code)
	var mods Modifiers
	if ev.Ctrl {
		mods |= ModCtrl
	}
	if ev.Alt {
		mods |= ModAlt
	}
	if ev.Shift {
		mods |= ModShift
	}
	if ev.Meta {
		mods |= ModMeta
	}
	return Hotkey{Key: key, Modifiers: mods}
}
