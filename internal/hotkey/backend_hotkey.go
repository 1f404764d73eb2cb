package hotkey

import (
	"fmt"
	"log"
	"sync"

	"golang.design/x/hotkey"
)

// HotkeyBackend registers one key combination with golang.design/x/hotkey and
// reports it as the primary trigger: pressing the combination holds the trigger,
// releasing it lets go. Escape, space and the chord are not seen in this mode.
type HotkeyBackend struct {
	mu            sync.Mutex
	combo         string
	primary       Trigger
	displayServer DisplayServer
	hk            *hotkey.Hotkey
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// NewHotkeyBackend creates a backend for combo (e.g. "ctrl+alt+space").
func NewHotkeyBackend(ds DisplayServer, combo string, primary Trigger) *HotkeyBackend {
	return &HotkeyBackend{combo: combo, primary: primary, displayServer: ds}
}

// Name returns the name of this backend.
func (b *HotkeyBackend) Name() string {
	return "Registered hotkey (golang.design/x/hotkey)"
}

// IsAvailable checks if this backend can be used on the current system.
func (b *HotkeyBackend) IsAvailable() bool {
	switch b.displayServer {
	case DisplayServerQuartz, DisplayServerWindows, DisplayServerX11:
		return b.combo != ""
	case DisplayServerWayland:
		// golang.design/x/hotkey does NOT support Wayland
		log.Println("Hotkey backend: Not available on Wayland")
		return false
	default:
		log.Println("Hotkey backend: Unknown display server, assuming unavailable")
		return false
	}
}

// CanSuppress is false: the combination is consumed by the OS registration, but no
// other key can be swallowed.
func (b *HotkeyBackend) CanSuppress() bool {
	return false
}

// Install registers the combination and converts its key events for h.
func (b *HotkeyBackend) Install(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hk != nil {
		log.Printf("Hotkey backend: '%s' already registered", b.combo)
		return nil
	}

	modifiers, key, err := parseHotkey(b.combo)
	if err != nil {
		return fmt.Errorf("failed to parse hotkey '%s': %w", b.combo, err)
	}

	hk := hotkey.New(modifiers, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("%w: failed to register hotkey '%s': %v", ErrTapUnavailable, b.combo, err)
	}

	b.hk = hk
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.startEventConverter(h)

	log.Printf("Hotkey backend: Successfully registered hotkey '%s'", b.combo)
	return nil
}

// startEventConverter turns Keydown/Keyup of the combination into trigger
// FlagsChanged events.
func (b *HotkeyBackend) startEventConverter(h Handler) {
	hk, stopCh, doneCh := b.hk, b.stopCh, b.doneCh
	held := Event{Kind: FlagsChanged, KeyCode: b.primary.KeyCode, Flags: FlagCommand | b.primary.DeviceFlag}
	released := Event{Kind: FlagsChanged, KeyCode: b.primary.KeyCode}

	go func() {
		defer close(doneCh)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("RECOVERED FROM PANIC IN HOTKEY CONVERTER (%s): %v", b.combo, r)
			}
		}()

		for {
			select {
			case <-stopCh:
				return
			case <-hk.Keydown():
				h(held)
			case <-hk.Keyup():
				h(released)
			}
		}
	}()
}

// Close unregisters the hotkey and cleans up resources.
func (b *HotkeyBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hk == nil {
		return nil
	}

	// Signal the converter goroutine to stop
	close(b.stopCh)
	<-b.doneCh

	err := b.hk.Unregister()
	b.hk = nil
	if err != nil {
		return fmt.Errorf("failed to unregister hotkey '%s': %w", b.combo, err)
	}
	log.Printf("Hotkey backend: Unregistered hotkey '%s'", b.combo)
	return nil
}
