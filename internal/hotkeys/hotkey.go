// Package hotkeys normalizes keyboard chords into a canonical Hotkey value and
// registers OS-level global hotkeys.
//
// A Hotkey can be built from three sources that all converge on the same
// comparable value: a configuration string (Parse), a Win32 global hotkey
// registration (FromPlatform), and a focused-window key event
// (FromWindowEvent).
package hotkeys

import (
	"fmt"
	"strings"
)

// Modifiers is the set of held modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// modifierOrder fixes the formatting order; parsing accepts any order.
var modifierOrder = []struct {
	mod  Modifiers
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModMeta, "Meta"},
}

// Has reports whether all modifiers in m2 are present in m.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

// String joins the modifier names with "+", e.g. "Ctrl+Shift".
func (m Modifiers) String() string {
	names := make([]string, 0, len(modifierOrder))
	for _, entry := range modifierOrder {
		if m.Has(entry.mod) {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, "+")
}

// Hotkey is a physical key plus the set of modifiers held with it.
// The zero value is an unidentified key that no table binds.
type Hotkey struct {
	Key       KeyCode
	Modifiers Modifiers
}

// New returns a Hotkey for key with the given modifiers.
func New(key KeyCode, mods Modifiers) Hotkey {
	return Hotkey{Key: key, Modifiers: mods & (ModCtrl | ModAlt | ModShift | ModMeta)}
}

// String formats h so that Parse(h.String()) == h for every valid key.
func (h Hotkey) String() string {
	if h.Modifiers == 0 {
		return h.Key.String()
	}
	return h.Modifiers.String() + "+" + h.Key.String()
}

// MarshalText implements encoding.TextMarshaler.
func (h Hotkey) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hotkey) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseError reports the token of a hotkey string that could not be resolved.
type ParseError struct {
	Input string
	Token string
	// Modifier is true when Token appeared in the modifier prefix.
	Modifier bool
}

func (e *ParseError) Error() string {
	kind := "key"
	if e.Modifier {
		kind = "modifier"
	}
	return fmt.Sprintf("hotkeys: unknown %s %q in hotkey %q", kind, e.Token, e.Input)
}

// Parse parses a hotkey like "Ctrl+Shift+Numpad1" or "ArrowDown".
//
// The last "+"-separated token is the base key; every token before it must be
// one of Ctrl, Alt, Meta or Shift. Matching is case-sensitive and modifier
// order is irrelevant.
func Parse(s string) (Hotkey, error) {
	raw := strings.TrimSpace(s)

	keyToken := raw
	var mods Modifiers
	if idx := strings.LastIndex(raw, "+"); idx >= 0 {
		keyToken = strings.TrimSpace(raw[idx+1:])
		for _, token := range strings.Split(raw[:idx], "+") {
			token = strings.TrimSpace(token)
			mod, ok := lookupModifier(token)
			if !ok {
				return Hotkey{}, &ParseError{Input: s, Token: token, Modifier: true}
			}
			mods |= mod
		}
	}

	key, ok := LookupKey(keyToken)
	if !ok {
		return Hotkey{}, &ParseError{Input: s, Token: keyToken}
	}
	return Hotkey{Key: key, Modifiers: mods}, nil
}

// MustParse is Parse for compile-time constant bindings. It panics on error.
func MustParse(s string) Hotkey {
	h, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return h
}

func lookupModifier(token string) (Modifiers, bool) {
	for _, entry := range modifierOrder {
		if entry.name == token {
			return entry.mod, true
		}
	}
	return 0, false
}
