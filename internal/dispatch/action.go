// Package dispatch resolves hotkeys into timer actions and runs their effects.
//
// A Table is built once per session from the configured bindings and the
// dispatch mode, and is never mutated afterwards, so it can be shared across
// goroutines without locking. A new configuration produces a new Table.
package dispatch

import "fmt"

// Action is one of the high-level operations a hotkey can trigger.
type Action uint8

const (
	Split Action = iota
	Reset
	Undo
	Skip
	Pause
	UndoAllPauses
	PreviousComparison
	NextComparison
	ToggleTimingMethod
	HideComparison
	OpenSplits
	SaveSplits
	OpenLayout
	Quit
	LayoutScrollUp
	LayoutScrollDown

	actionCount
)

// actionNames doubles as the configuration key and the broadcast event name.
var actionNames = [actionCount]string{
	Split:              "split",
	Reset:              "reset",
	Undo:               "undo",
	Skip:               "skip",
	Pause:              "pause",
	UndoAllPauses:      "undo_all_pauses",
	PreviousComparison: "previous_comparison",
	NextComparison:     "next_comparison",
	ToggleTimingMethod: "toggle_timing_method",
	HideComparison:     "hide_comparison",
	OpenSplits:         "open_splits",
	SaveSplits:         "save_splits",
	OpenLayout:         "open_layout",
	Quit:               "quit",
	LayoutScrollUp:     "layout_scroll_up",
	LayoutScrollDown:   "layout_scroll_down",
}

// PrimaryActions are the timer controls. Global mode hands these to the OS
// hotkey mechanism; Local mode resolves them from window key events.
var PrimaryActions = []Action{
	Split,
	Reset,
	Undo,
	Skip,
	Pause,
	UndoAllPauses,
	PreviousComparison,
	NextComparison,
	ToggleTimingMethod,
}

// SecondaryActions are always resolved from window key events, in insertion
// order.
var SecondaryActions = []Action{
	OpenSplits,
	SaveSplits,
	Quit,
	HideComparison,
	OpenLayout,
	LayoutScrollUp,
	LayoutScrollDown,
}

// AllActions returns every action in declaration order.
func AllActions() []Action {
	all := make([]Action, 0, actionCount)
	for a := range actionCount {
		all = append(all, a)
	}
	return all
}

func (a Action) String() string {
	if a >= actionCount {
		return fmt.Sprintf("action(%d)", uint8(a))
	}
	return actionNames[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if a >= actionCount {
		return nil, fmt.Errorf("dispatch: unknown action %d", uint8(a))
	}
	return []byte(actionNames[a]), nil
}

// ParseAction returns the action named by its configuration key.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return Action(a), true
		}
	}
	return 0, false
}

// IsPrimary reports whether a belongs to the primary set.
func (a Action) IsPrimary() bool {
	return a <= ToggleTimingMethod
}

// ChangesTimer reports whether performing a changes timer-observable state and
// therefore must be followed by a state-change notification. OpenSplits
// replaces the timer only once the new file is chosen; the session restart
// notifies on its own.
func (a Action) ChangesTimer() bool {
	return a.IsPrimary() || a == HideComparison
}

// defaultBindings are used when the configuration has no usable entry.
var defaultBindings = [actionCount]string{
	Split:              "Numpad1",
	Reset:              "Numpad3",
	Undo:               "Numpad8",
	Skip:               "Numpad2",
	Pause:              "Numpad5",
	UndoAllPauses:      "Numpad7",
	PreviousComparison: "Numpad4",
	NextComparison:     "Numpad6",
	ToggleTimingMethod: "Numpad9",
	HideComparison:     "ArrowDown",
	OpenSplits:         "Ctrl+O",
	SaveSplits:         "Ctrl+S",
	OpenLayout:         "Ctrl+L",
	Quit:               "Ctrl+Q",
	LayoutScrollUp:     "PageUp",
	LayoutScrollDown:   "PageDown",
}

// DefaultBinding returns the built-in hotkey string for a.
func DefaultBinding(a Action) string {
	if a >= actionCount {
		return ""
	}
	return defaultBindings[a]
}
