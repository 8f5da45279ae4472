package tui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"splitrelay/internal/hotkeys"
)

// specialKeys maps the non-rune key types that carry no modifier.
// Enter, Tab, Escape and Backspace share values with Ctrl+M, Ctrl+I, Ctrl+[
// and DEL, so they are resolved before the Ctrl+letter range.
var specialKeys = map[tea.KeyType]hotkeys.WindowKeyEvent{
	tea.KeyEnter:     {Code: "Enter"},
	tea.KeyTab:       {Code: "Tab"},
	tea.KeyShiftTab:  {Code: "Tab", Shift: true},
	tea.KeyEsc:       {Code: "Escape"},
	tea.KeyBackspace: {Code: "Backspace"},
	tea.KeySpace:     {Code: "Space"},

	tea.KeyUp:    {Code: "ArrowUp"},
	tea.KeyDown:  {Code: "ArrowDown"},
	tea.KeyLeft:  {Code: "ArrowLeft"},
	tea.KeyRight: {Code: "ArrowRight"},

	tea.KeyShiftUp:    {Code: "ArrowUp", Shift: true},
	tea.KeyShiftDown:  {Code: "ArrowDown", Shift: true},
	tea.KeyShiftLeft:  {Code: "ArrowLeft", Shift: true},
	tea.KeyShiftRight: {Code: "ArrowRight", Shift: true},

	tea.KeyCtrlUp:    {Code: "ArrowUp", Ctrl: true},
	tea.KeyCtrlDown:  {Code: "ArrowDown", Ctrl: true},
	tea.KeyCtrlLeft:  {Code: "ArrowLeft", Ctrl: true},
	tea.KeyCtrlRight: {Code: "ArrowRight", Ctrl: true},

	tea.KeyHome:       {Code: "Home"},
	tea.KeyEnd:        {Code: "End"},
	tea.KeyPgUp:       {Code: "PageUp"},
	tea.KeyPgDown:     {Code: "PageDown"},
	tea.KeyCtrlPgUp:   {Code: "PageUp", Ctrl: true},
	tea.KeyCtrlPgDown: {Code: "PageDown", Ctrl: true},
	tea.KeyDelete:     {Code: "Delete"},
	tea.KeyInsert:     {Code: "Insert"},

	tea.KeyF1:  {Code: "F1"},
	tea.KeyF2:  {Code: "F2"},
	tea.KeyF3:  {Code: "F3"},
	tea.KeyF4:  {Code: "F4"},
	tea.KeyF5:  {Code: "F5"},
	tea.KeyF6:  {Code: "F6"},
	tea.KeyF7:  {Code: "F7"},
	tea.KeyF8:  {Code: "F8"},
	tea.KeyF9:  {Code: "F9"},
	tea.KeyF10: {Code: "F10"},
	tea.KeyF11: {Code: "F11"},
	tea.KeyF12: {Code: "F12"},
}

// punctuationKeys maps US-layout punctuation runes to their physical key.
// The second field reports whether Shift produces the rune.
var punctuationKeys = map[rune]struct {
	code  string
	shift bool
}{
	'`': {"Backquote", false}, '~': {"Backquote", true},
	'\\': {"Backslash", false}, '|': {"Backslash", true},
	'[': {"BracketLeft", false}, '{': {"BracketLeft", true},
	']': {"BracketRight", false}, '}': {"BracketRight", true},
	',': {"Comma", false}, '<': {"Comma", true},
	'=': {"Equal", false}, '+': {"Equal", true},
	'-': {"Minus", false}, '_': {"Minus", true},
	'.': {"Period", false}, '>': {"Period", true},
	'\'': {"Quote", false}, '"': {"Quote", true},
	';': {"Semicolon", false}, ':': {"Semicolon", true},
	'/': {"Slash", false}, '?': {"Slash", true},
	'!': {"Digit1", true}, '@': {"Digit2", true}, '#': {"Digit3", true},
	'$': {"Digit4", true}, '%': {"Digit5", true}, '^': {"Digit6", true},
	'&': {"Digit7", true}, '*': {"Digit8", true}, '(': {"Digit9", true},
	')': {"Digit0", true},
}

// KeyEvent converts a terminal key message into a window key event.
//
// Terminals do not report the numeric keypad separately from the digit row;
// when digitsAsNumpad is set, plain digits are reported as Numpad keys so the
// default bindings work from the terminal. ok is false for messages that do
// not describe a single key (pastes, multi-rune input).
func KeyEvent(msg tea.KeyMsg, digitsAsNumpad bool) (ev hotkeys.WindowKeyEvent, ok bool) {
	if msg.Paste {
		return hotkeys.WindowKeyEvent{}, false
	}

	if special, found := specialKeys[msg.Type]; found {
		ev = special
	} else if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		ev = hotkeys.WindowKeyEvent{
			Code: "Key" + string(rune('A'+int(msg.Type-tea.KeyCtrlA))),
			Ctrl: true,
		}
	} else if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		ev, ok = runeEvent(msg.Runes[0], digitsAsNumpad)
		if !ok {
			return hotkeys.WindowKeyEvent{}, false
		}
	} else {
		return hotkeys.WindowKeyEvent{}, false
	}

	if msg.Alt {
		ev.Alt = true
	}
	return ev, true
}

func runeEvent(r rune, digitsAsNumpad bool) (hotkeys.WindowKeyEvent, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return hotkeys.WindowKeyEvent{Code: "Key" + string(unicode.ToUpper(r))}, true
	case r >= 'A' && r <= 'Z':
		return hotkeys.WindowKeyEvent{Code: "Key" + string(r), Shift: true}, true
	case r >= '0' && r <= '9':
		if digitsAsNumpad {
			return hotkeys.WindowKeyEvent{Code: "Numpad" + string(r)}, true
		}
		return hotkeys.WindowKeyEvent{Code: "Digit" + string(r)}, true
	case r == ' ':
		return hotkeys.WindowKeyEvent{Code: "Space"}, true
	}
	if p, found := punctuationKeys[r]; found {
		return hotkeys.WindowKeyEvent{Code: p.code, Shift: p.shift}, true
	}
	return hotkeys.WindowKeyEvent{}, false
}
