//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32DLL = syscall.NewLazyDLL("user32.dll")
	kernelDLL = syscall.NewLazyDLL("kernel32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procGetCurrentThreadID = kernelDLL.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	// maxHotkeyID is the upper bound for application-defined hotkey IDs (Win32).
	maxHotkeyID int32 = 0xBFFF

	stopTimeout = 2 * time.Second
)

var nextHotkeyID int32 = 0x4000

// activeLoop holds the state of a running registration loop.
// When non-nil in Manager, a message loop goroutine owns the registrations.
type activeLoop struct {
	threadID uint32
	doneCh   chan struct{}
	hotkeys  []Hotkey
}

// point mirrors the Win32 POINT struct.
type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct (tagMSG from winuser.h).
// Field order and types must not be changed.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

// registered is one RegisterHotKey call owned by the loop thread.
type registered struct {
	id      int32
	binding Binding
	reg     Registration
}

// Manager manages the set of global hotkey registrations. All registrations
// live on one locked OS thread because Win32 delivers WM_HOTKEY to the thread
// that registered the key.
type Manager struct {
	mu     sync.Mutex
	active *activeLoop
}

// NewManager creates a new hotkey manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start registers every hotkey in regs, replacing any previous set. Callbacks
// run synchronously on the hotkey thread in press order.
func (m *Manager) Start(regs []Registration) error {
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	if err := kernelDLL.Load(); err != nil {
		return fmt.Errorf("kernel32.dll is unavailable: %w", err)
	}

	bindings, err := validateRegistrations(regs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stopLocked(); err != nil {
		return err
	}

	entries := make([]registered, 0, len(regs))
	for i, reg := range regs {
		id := atomic.AddInt32(&nextHotkeyID, 1)
		if id < 0 || id > maxHotkeyID {
			return fmt.Errorf("hotkey ID range exhausted (ID=%d)", id)
		}
		entries = append(entries, registered{id: id, binding: bindings[i], reg: reg})
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})

	go runHotkeyLoop(entries, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return ready.err
	}
	if ready.threadID == 0 {
		return errors.New("hotkey loop started but returned invalid thread ID 0")
	}

	hotkeys := make([]Hotkey, 0, len(regs))
	for _, reg := range regs {
		hotkeys = append(hotkeys, reg.Hotkey)
	}
	m.active = &activeLoop{
		threadID: ready.threadID,
		doneCh:   doneCh,
		hotkeys:  hotkeys,
	}
	return nil
}

// Stop unregisters all global hotkeys.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// ActiveBindings returns the hotkeys currently registered.
func (m *Manager) ActiveBindings() []Hotkey {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	out := make([]Hotkey, len(m.active.hotkeys))
	copy(out, m.active.hotkeys)
	return out
}

func (m *Manager) stopLocked() error {
	if m.active == nil {
		return nil
	}

	loop := m.active
	m.active = nil

	// Registrations are owned by the loop thread and released there on exit.
	stopErr := postQuit(loop.threadID)

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-loop.doneCh:
	case <-timer.C:
		slog.Warn("[DEBUG-HOTKEY] message loop stop timed out, goroutine/thread may leak",
			"threadID", loop.threadID)
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey message loop stop timed out (threadID=%d)", loop.threadID))
	}
	return stopErr
}

func runHotkeyLoop(entries []registered, readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID, err := getCurrentThreadID()
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	// PeekMessageW forces Windows to create the thread message queue so that
	// PostThreadMessageW in Stop() can deliver WM_QUIT.
	var qmsg winMsg
	ret, _, peekErr := procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)
	if ret == 0 && peekErr != syscall.Errno(0) {
		slog.Warn("[DEBUG-HOTKEY] PeekMessageW for queue init returned error", "error", peekErr)
	}

	byID := make(map[int32]registered, len(entries))
	byHotkey := make(map[Hotkey]registered, len(entries))
	defer func() {
		for id := range byID {
			if err := unregisterHotKey(id); err != nil {
				slog.Error("[DEBUG-HOTKEY] unregisterHotKey on loop exit failed (resource leak)",
					"error", err, "hotkeyID", id)
			}
		}
	}()

	for _, entry := range entries {
		mods := uint32(entry.binding.Modifiers() | ModNoRepeatFlag)
		if err := registerHotKey(entry.id, mods, uint32(entry.binding.Key())); err != nil {
			readyCh <- loopReady{err: fmt.Errorf("register hotkey %q failed: %w", entry.reg.Hotkey.String(), err)}
			return
		}
		byID[entry.id] = entry
		byHotkey[entry.reg.Hotkey] = entry
	}

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[DEBUG-HOTKEY] GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			slog.Info("[DEBUG-HOTKEY] message loop received WM_QUIT, exiting normally")
			return
		}

		if msg.message == wmHotkey {
			// lParam carries the modifiers in the low word and the
			// virtual-key code in the high word.
			hk := FromPlatform(NewBinding(Modifier(msg.lParam&0xFFFF), VKey((msg.lParam>>16)&0xFFFF)))
			entry, ok := byHotkey[hk]
			if !ok {
				entry, ok = byID[int32(msg.wParam)]
			}
			if ok {
				trigger(entry.reg.Hotkey, entry.reg.OnTrigger)
			}
			continue
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func registerHotKey(hotkeyID int32, modifiers uint32, key uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(hotkeyID), uintptr(modifiers), uintptr(key))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}

func getCurrentThreadID() (uint32, error) {
	tid, _, err := procGetCurrentThreadID.Call()
	if tid == 0 {
		return 0, fmt.Errorf("GetCurrentThreadId returned 0: %w", err)
	}
	return uint32(tid), nil
}
