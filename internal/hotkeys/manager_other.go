//go:build !windows

package hotkeys

import (
	"log/slog"
	"sync"
)

// Manager manages the set of global hotkey registrations.
type Manager struct {
	mu     sync.Mutex
	active []Hotkey
}

// NewManager creates a new hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start validates the registrations. On non-Windows targets no OS-level
// hotkey is registered and the callbacks never fire; Local dispatch mode is
// the supported input path there.
func (m *Manager) Start(regs []Registration) error {
	if _, err := validateRegistrations(regs); err != nil {
		return err
	}

	slog.Warn("[DEBUG-HOTKEY] global hotkeys are not supported on this platform; bindings validated but will never fire",
		"count", len(regs))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = m.active[:0]
	for _, reg := range regs {
		m.active = append(m.active, reg.Hotkey)
	}
	return nil
}

// Stop drops the active registrations.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	return nil
}

// ActiveBindings returns the hotkeys currently registered.
func (m *Manager) ActiveBindings() []Hotkey {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Hotkey, len(m.active))
	copy(out, m.active)
	return out
}
