package dispatch

// Mode selects where primary actions are resolved. Exactly one mode is active
// per session.
type Mode uint8

const (
	// ModeLocal resolves every action from window key events.
	ModeLocal Mode = iota
	// ModeGlobal registers the primary actions with the OS and resolves only
	// the secondary actions from window key events.
	ModeGlobal
)

// ModeFor maps the use_global_hotkeys configuration flag to a Mode.
func ModeFor(useGlobalHotkeys bool) Mode {
	if useGlobalHotkeys {
		return ModeGlobal
	}
	return ModeLocal
}

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeGlobal:
		return "global"
	default:
		return "unknown"
	}
}
