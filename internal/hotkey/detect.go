package hotkey

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
)

// DisplayServer represents the type of display server in use
type DisplayServer int

const (
	DisplayServerUnknown DisplayServer = iota
	DisplayServerQuartz
	DisplayServerWindows
	DisplayServerX11
	DisplayServerWayland
)

func (ds DisplayServer) String() string {
	switch ds {
	case DisplayServerQuartz:
		return "Quartz"
	case DisplayServerWindows:
		return "Windows"
	case DisplayServerX11:
		return "X11"
	case DisplayServerWayland:
		return "Wayland"
	default:
		return "Unknown"
	}
}

// DetectDisplayServer determines which display server is currently in use.
// This function is safe to call on any platform.
func DetectDisplayServer() DisplayServer {
	return detectDisplayServer(runtime.GOOS, os.Getenv)
}

func detectDisplayServer(goos string, getenv func(string) string) DisplayServer {
	switch goos {
	case "darwin":
		return DisplayServerQuartz
	case "windows":
		return DisplayServerWindows
	}

	// Check Wayland first (more specific)
	if getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if getenv("DISPLAY") != "" {
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// Backend names accepted by SelectBackend.
const (
	BackendAuto   = "auto"
	BackendTap    = "tap"
	BackendHook   = "hook"
	BackendHotkey = "hotkey"
)

// SelectOptions carries the settings the backends need.
type SelectOptions struct {
	Backend string  // one of the Backend* names; empty means auto
	Combo   string  // key combination for the hotkey backend, e.g. "ctrl+alt+space"
	Primary Trigger // trigger the hotkey backend reports as held
}

// autoOrder lists the backends "auto" considers, most capable first.
var autoOrder = []string{BackendTap, BackendHook, BackendHotkey}

// SelectBackend returns the requested backend, or for "auto" the first available
// backend that can swallow keys. Observe-only backends (hook, hotkey) are used only
// when requested by name.
func SelectBackend(opts SelectOptions) (Backend, error) {
	ds := DetectDisplayServer()
	log.Printf("Detected display server: %s", ds)

	b, err := pickBackend(opts.Backend, map[string]func() Backend{
		BackendTap:    func() Backend { return NewTapBackend() },
		BackendHook:   func() Backend { return NewHookBackend(ds) },
		BackendHotkey: func() Backend { return NewHotkeyBackend(ds, opts.Combo, opts.Primary) },
	})
	if err != nil {
		return nil, fmt.Errorf("no hotkey backend for %s: %w", ds, err)
	}
	log.Printf("Selected backend: %s for %s", b.Name(), ds)
	return b, nil
}

func pickBackend(requested string, candidates map[string]func() Backend) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(requested))
	if name == "" {
		name = BackendAuto
	}

	if name != BackendAuto {
		newBackend, ok := candidates[name]
		if !ok {
			return nil, fmt.Errorf("unknown hotkey backend '%s'", requested)
		}
		b := newBackend()
		if !b.IsAvailable() {
			return nil, fmt.Errorf("%s: %w", b.Name(), ErrBackendNotAvailable)
		}
		if !b.CanSuppress() {
			log.Printf("Warning: %s cannot swallow keys; the trigger key reaches other applications", b.Name())
		}
		return b, nil
	}

	var observeOnly []string
	for _, name := range autoOrder {
		newBackend, ok := candidates[name]
		if !ok {
			continue
		}
		b := newBackend()
		if !b.IsAvailable() {
			continue
		}
		if !b.CanSuppress() {
			observeOnly = append(observeOnly, name)
			continue
		}
		return b, nil
	}
	if len(observeOnly) > 0 {
		return nil, fmt.Errorf("%w: only observe-only backends available (%s), set trigger.backend to one of them to accept that",
			ErrBackendNotAvailable, strings.Join(observeOnly, ", "))
	}
	return nil, ErrBackendNotAvailable
}
