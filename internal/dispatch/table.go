package dispatch

import (
	"log/slog"

	"splitrelay/internal/hotkeys"
)

// BindingLookup returns the configured hotkey string for an action, or "" when
// the configuration has no entry for it.
type BindingLookup func(Action) string

// Entry is one resolved binding.
type Entry struct {
	Hotkey hotkeys.Hotkey
	Action Action
}

// Table maps hotkeys to actions. It is read-only once built.
type Table struct {
	mode    Mode
	index   map[hotkeys.Hotkey]int
	entries []Entry
}

// BuildTable resolves the window-dispatch table for mode.
//
// The secondary actions are inserted first, then (Local mode only) the primary
// actions. When two bindings normalize to the same hotkey, the later insertion
// takes the key over. Unparseable bindings fall back to the action's default.
func BuildTable(mode Mode, lookup BindingLookup) *Table {
	t := &Table{
		mode:    mode,
		index:   make(map[hotkeys.Hotkey]int, int(actionCount)),
		entries: make([]Entry, 0, int(actionCount)),
	}
	for _, a := range SecondaryActions {
		t.insert(ResolveBinding(a, lookup), a)
	}
	if mode == ModeLocal {
		for _, a := range PrimaryActions {
			t.insert(ResolveBinding(a, lookup), a)
		}
	}
	return t
}

func (t *Table) insert(hk hotkeys.Hotkey, a Action) {
	if i, exists := t.index[hk]; exists {
		slog.Debug("[DEBUG-DISPATCH] binding overrides earlier action",
			"hotkey", hk.String(), "previous", t.entries[i].Action.String(), "action", a.String())
		t.entries[i].Action = a
		return
	}
	t.index[hk] = len(t.entries)
	t.entries = append(t.entries, Entry{Hotkey: hk, Action: a})
}

// Mode returns the dispatch mode the table was built for.
func (t *Table) Mode() Mode { return t.mode }

// Lookup returns the action bound to hk.
func (t *Table) Lookup(hk hotkeys.Hotkey) (Action, bool) {
	i, ok := t.index[hk]
	if !ok {
		return 0, false
	}
	return t.entries[i].Action, true
}

// Len returns the number of bound hotkeys.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the bindings in first-insertion order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// GlobalBindings resolves the primary actions for OS registration, applying
// the same later-wins rule as BuildTable so no hotkey is registered twice.
func GlobalBindings(lookup BindingLookup) []Entry {
	t := &Table{
		mode:  ModeGlobal,
		index: make(map[hotkeys.Hotkey]int, len(PrimaryActions)),
	}
	for _, a := range PrimaryActions {
		t.insert(ResolveBinding(a, lookup), a)
	}
	return t.entries
}

// ResolveBinding returns the configured hotkey for a, or its default when the
// configuration is empty or unparseable.
func ResolveBinding(a Action, lookup BindingLookup) hotkeys.Hotkey {
	if lookup != nil {
		if raw := lookup(a); raw != "" {
			hk, err := hotkeys.Parse(raw)
			if err == nil {
				return hk
			}
			slog.Warn("[WARN-CONFIG] invalid hotkey binding, using default",
				"action", a.String(), "value", raw, "default", DefaultBinding(a), "error", err)
		}
	}
	return hotkeys.MustParse(DefaultBinding(a))
}
