package hotkeys

import (
	"errors"
	"testing"
)

func TestParseSuccess(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Hotkey
	}{
		{name: "bare numpad key", input: "Numpad1", want: Hotkey{Key: KeyNumpad1}},
		{name: "ctrl letter alias", input: "Ctrl+S", want: Hotkey{Key: KeyS, Modifiers: ModCtrl}},
		{name: "ctrl letter code", input: "Ctrl+KeyS", want: Hotkey{Key: KeyS, Modifiers: ModCtrl}},
		{name: "digit alias", input: "Alt+3", want: Hotkey{Key: KeyDigit3, Modifiers: ModAlt}},
		{name: "digit code", input: "Alt+Digit3", want: Hotkey{Key: KeyDigit3, Modifiers: ModAlt}},
		{name: "all modifiers", input: "Ctrl+Alt+Shift+Meta+F5", want: Hotkey{Key: KeyF5, Modifiers: ModCtrl | ModAlt | ModShift | ModMeta}},
		{name: "modifier order irrelevant", input: "Shift+Ctrl+ArrowUp", want: Hotkey{Key: KeyArrowUp, Modifiers: ModCtrl | ModShift}},
		{name: "repeated modifier", input: "Ctrl+Ctrl+Space", want: Hotkey{Key: KeySpace, Modifiers: ModCtrl}},
		{name: "surrounding whitespace", input: "  Ctrl + PageDown ", want: Hotkey{Key: KeyPageDown, Modifiers: ModCtrl}},
		{name: "numpad operator", input: "NumpadAdd", want: Hotkey{Key: KeyNumpadAdd}},
		{name: "legacy subtract spelling", input: "NumpadSubstract", want: Hotkey{Key: KeyNumpadSubtract}},
		{name: "navigation key", input: "Meta+Home", want: Hotkey{Key: KeyHome, Modifiers: ModMeta}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantToken    string
		wantModifier bool
	}{
		{name: "empty", input: "", wantToken: ""},
		{name: "unknown key", input: "Ctrl+Banana", wantToken: "Banana"},
		{name: "lower-case key", input: "s", wantToken: "s"},
		{name: "lower-case modifier", input: "ctrl+S", wantToken: "ctrl", wantModifier: true},
		{name: "modifier alias not accepted", input: "Control+S", wantToken: "Control", wantModifier: true},
		{name: "missing key", input: "Ctrl+", wantToken: ""},
		{name: "empty modifier", input: "+S", wantToken: "", wantModifier: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error = %T, want *ParseError", tt.input, err)
			}
			if parseErr.Token != tt.wantToken {
				t.Fatalf("ParseError.Token = %q, want %q", parseErr.Token, tt.wantToken)
			}
			if parseErr.Modifier != tt.wantModifier {
				t.Fatalf("ParseError.Modifier = %v, want %v", parseErr.Modifier, tt.wantModifier)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	modifierSets := []Modifiers{0, ModCtrl, ModAlt | ModShift, ModCtrl | ModAlt | ModShift | ModMeta}
	for code := KeyUnidentified + 1; code < keyCount; code++ {
		for _, mods := range modifierSets {
			original := New(code, mods)
			formatted := original.String()
			reparsed, err := Parse(formatted)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", formatted, err)
			}
			if reparsed != original {
				t.Fatalf("round trip of %q = %+v, want %+v", formatted, reparsed, original)
			}
		}
	}
}

func TestConstructorsConverge(t *testing.T) {
	tests := []struct {
		input   string
		binding Binding
		event   WindowKeyEvent
	}{
		{
			input:   "Ctrl+S",
			binding: NewBinding(ModControlFlag, 'S'),
			event:   WindowKeyEvent{Code: "KeyS", Ctrl: true},
		},
		{
			input:   "Numpad1",
			binding: NewBinding(0, 0x61),
			event:   WindowKeyEvent{Code: "Numpad1"},
		},
		{
			input:   "Shift+Alt+ArrowDown",
			binding: NewBinding(ModShiftFlag|ModAltFlag|ModNoRepeatFlag, 0x28),
			event:   WindowKeyEvent{Code: "ArrowDown", Alt: true, Shift: true},
		},
		{
			input:   "Meta+Digit0",
			binding: NewBinding(ModWinFlag, '0'),
			event:   WindowKeyEvent{Code: "Digit0", Meta: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parsed := MustParse(tt.input)
			fromPlatform := FromPlatform(tt.binding)
			fromWindow := FromWindowEvent(tt.event)
			if parsed != fromPlatform || parsed != fromWindow {
				t.Fatalf("constructors diverge: parsed=%+v platform=%+v window=%+v", parsed, fromPlatform, fromWindow)
			}

			// Equal values must land in the same map slot.
			set := map[Hotkey]int{parsed: 1}
			set[fromPlatform]++
			set[fromWindow]++
			if len(set) != 1 || set[parsed] != 3 {
				t.Fatalf("hotkeys hashed into %d slots: %v", len(set), set)
			}
		})
	}
}

func TestBindingRoundTrip(t *testing.T) {
	for code := KeyUnidentified + 1; code < keyCount; code++ {
		hk := New(code, ModCtrl|ModShift)
		binding, err := hk.Binding()
		if code == KeyNumpadEnter {
			if err == nil {
				t.Fatal("NumpadEnter.Binding() expected error")
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s.Binding() error = %v", hk, err)
		}
		if got := FromPlatform(binding); got != hk {
			t.Fatalf("FromPlatform(%s.Binding()) = %+v, want %+v", hk, got, hk)
		}
	}
}

func TestFromWindowEventUnknownCode(t *testing.T) {
	got := FromWindowEvent(WindowKeyEvent{Code: "IntlRo", Ctrl: true})
	if got.Key != KeyUnidentified {
		t.Fatalf("Key = %v, want KeyUnidentified", got.Key)
	}
	if got.Key.Valid() {
		t.Fatal("KeyUnidentified.Valid() = true")
	}
}

func TestFromPlatformUnknownVKey(t *testing.T) {
	got := FromPlatform(NewBinding(ModControlFlag, 0xFF))
	if got.Key != KeyUnidentified {
		t.Fatalf("Key = %v, want KeyUnidentified", got.Key)
	}
}

func TestUnmarshalText(t *testing.T) {
	var hk Hotkey
	if err := hk.UnmarshalText([]byte("Ctrl+O")); err != nil {
		t.Fatalf("UnmarshalText error = %v", err)
	}
	if hk != (Hotkey{Key: KeyO, Modifiers: ModCtrl}) {
		t.Fatalf("UnmarshalText = %+v", hk)
	}
	text, err := hk.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error = %v", err)
	}
	if string(text) != "Ctrl+KeyO" {
		t.Fatalf("MarshalText = %q, want %q", text, "Ctrl+KeyO")
	}
}
