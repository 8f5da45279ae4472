package hotkeys

import "fmt"

// Modifier represents a Win32 hotkey modifier bitmask.
type Modifier uint32

// VKey represents a Win32 virtual-key code.
type VKey uint32

// Win32 RegisterHotKey modifier flags.
const (
	ModAltFlag      Modifier = 0x0001
	ModControlFlag  Modifier = 0x0002
	ModShiftFlag    Modifier = 0x0004
	ModWinFlag      Modifier = 0x0008
	ModNoRepeatFlag Modifier = 0x4000
)

// Binding describes a chord as the OS global hotkey mechanism sees it.
// Construct via NewBinding or Hotkey.Binding.
type Binding struct {
	modifiers Modifier
	key       VKey
}

// NewBinding returns a Binding for a raw Win32 modifier mask and key code, as
// delivered by a WM_HOTKEY message.
func NewBinding(mods Modifier, key VKey) Binding {
	return Binding{modifiers: mods &^ ModNoRepeatFlag, key: key}
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// Binding converts h into its Win32 form. Keys without a virtual-key code
// (NumpadEnter) cannot be registered globally.
func (h Hotkey) Binding() (Binding, error) {
	vk := h.Key.VKey()
	if vk == 0 {
		return Binding{}, fmt.Errorf("hotkeys: key %s has no virtual-key code", h.Key)
	}
	var mods Modifier
	if h.Modifiers.Has(ModCtrl) {
		mods |= ModControlFlag
	}
	if h.Modifiers.Has(ModAlt) {
		mods |= ModAltFlag
	}
	if h.Modifiers.Has(ModShift) {
		mods |= ModShiftFlag
	}
	if h.Modifiers.Has(ModMeta) {
		mods |= ModWinFlag
	}
	return Binding{modifiers: mods, key: vk}, nil
}

// FromPlatform converts a Win32 binding back into a Hotkey. Unknown virtual-key
// codes resolve to KeyUnidentified.
func FromPlatform(b Binding) Hotkey {
	var mods Modifiers
	if b.modifiers&ModControlFlag != 0 {
		mods |= ModCtrl
	}
	if b.modifiers&ModAltFlag != 0 {
		mods |= ModAlt
	}
	if b.modifiers&ModShiftFlag != 0 {
		mods |= ModShift
	}
	if b.modifiers&ModWinFlag != 0 {
		mods |= ModMeta
	}
	return Hotkey{Key: keyByVKey[b.key], Modifiers: mods}
}
