package hotkey

import (
	"fmt"
	"log"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// DefaultHookStartTimeout bounds the wait for the hook to report that it is running.
const DefaultHookStartTimeout = 3 * time.Second

// libuiohook virtual key codes for the keys the gesture cares about.
const (
	uioEscape    = 0x0001
	uioTab       = 0x000F
	uioSpace     = 0x0039
	uioMetaLeft  = 0x0E5B
	uioMetaRight = 0x0E5C
)

// libuiohook modifier mask bits.
const (
	uioMaskShiftL = 1 << 0
	uioMaskCtrlL  = 1 << 1
	uioMaskMetaL  = 1 << 2
	uioMaskAltL   = 1 << 3
	uioMaskShiftR = 1 << 4
	uioMaskCtrlR  = 1 << 5
	uioMaskMetaR  = 1 << 6
	uioMaskAltR   = 1 << 7
)

// hookKeyBase moves unmapped libuiohook codes out of the virtual key code range.
const hookKeyBase = 0x10000

var hookKeyCodes = map[uint16]int64{
	uioEscape:    KeyEscape,
	uioTab:       KeyTab,
	uioSpace:     KeySpace,
	uioMetaLeft:  KeyLeftCommand,
	uioMetaRight: KeyRightCommand,
}

var hookMaskFlags = []struct {
	mask  uint16
	flags Flags
}{
	{uioMaskShiftL, FlagShift | FlagLeftShift},
	{uioMaskShiftR, FlagShift | FlagRightShift},
	{uioMaskCtrlL, FlagControl | FlagLeftControl},
	{uioMaskCtrlR, FlagControl | FlagRightControl},
	{uioMaskAltL, FlagOption | FlagLeftOption},
	{uioMaskAltR, FlagOption | FlagRightOption},
	{uioMaskMetaL, FlagCommand | FlagLeftCommand},
	{uioMaskMetaR, FlagCommand | FlagRightCommand},
}

// HookBackend observes global input through robotn/gohook (libuiohook). It cannot
// swallow or rewrite events, so decisions are computed and then ignored.
type HookBackend struct {
	mu            sync.Mutex
	displayServer DisplayServer
	startTimeout  time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewHookBackend creates a gohook backend for the given display server.
func NewHookBackend(ds DisplayServer) *HookBackend {
	return &HookBackend{displayServer: ds, startTimeout: DefaultHookStartTimeout}
}

// Name returns the name of this backend.
func (b *HookBackend) Name() string {
	return "Input hook (robotn/gohook)"
}

// IsAvailable checks if this backend can be used on the current system.
func (b *HookBackend) IsAvailable() bool {
	switch b.displayServer {
	case DisplayServerQuartz, DisplayServerWindows, DisplayServerX11:
		return true
	case DisplayServerWayland:
		// libuiohook needs X11 or XWayland with global grabs, which Wayland refuses
		log.Println("Hook backend: Not available on Wayland")
		return false
	default:
		return false
	}
}

// CanSuppress is false: libuiohook only observes.
func (b *HookBackend) CanSuppress() bool {
	return false
}

// Install starts the hook and feeds translated events to h.
func (b *HookBackend) Install(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		return fmt.Errorf("input hook already installed")
	}

	events := hook.Start()
	timer := time.NewTimer(b.startTimeout)
	defer timer.Stop()

wait:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: input hook stopped during start", ErrTapUnavailable)
			}
			if ev.Kind == hook.HookEnabled {
				break wait
			}
		case <-timer.C:
			hook.End()
			return fmt.Errorf("%w: input hook did not start within %s", ErrTapUnavailable, b.startTimeout)
		}
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.loop(events, h, b.stop, b.done)

	log.Println("Hook backend: installed (observe only, keys cannot be swallowed)")
	return nil
}

func (b *HookBackend) loop(events chan hook.Event, h Handler, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("RECOVERED FROM PANIC IN HOOK LOOP: %v", r)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if translated, ok := translateHookEvent(ev); ok {
				h(translated)
			}
		}
	}
}

// Close ends the hook.
func (b *HookBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop == nil {
		return nil
	}
	close(b.stop)
	hook.End()
	<-b.done
	b.stop, b.done = nil, nil
	log.Println("Hook backend: removed")
	return nil
}

// translateHookEvent maps libuiohook events onto the tap event model. Presses of a
// command key become FlagsChanged with the key's device bit set, releases clear it.
// Other key presses become KeyDown. Typed (character) events are dropped.
func translateHookEvent(ev hook.Event) (Event, bool) {
	code, known := hookKeyCodes[ev.Keycode]
	if !known {
		code = hookKeyBase + int64(ev.Keycode)
	}
	flags := maskFlags(ev.Mask)

	switch ev.Kind {
	case hook.KeyHold:
		switch ev.Keycode {
		case uioMetaLeft:
			return Event{Kind: FlagsChanged, KeyCode: code, Flags: flags | FlagCommand | FlagLeftCommand}, true
		case uioMetaRight:
			return Event{Kind: FlagsChanged, KeyCode: code, Flags: flags | FlagCommand | FlagRightCommand}, true
		}
		return Event{Kind: KeyDown, KeyCode: code, Flags: flags}, true

	case hook.KeyUp:
		var cleared Flags
		switch ev.Keycode {
		case uioMetaLeft:
			cleared = FlagLeftCommand
		case uioMetaRight:
			cleared = FlagRightCommand
		default:
			return Event{}, false
		}
		flags &^= cleared
		if flags&(FlagLeftCommand|FlagRightCommand) == 0 {
			flags &^= FlagCommand
		}
		return Event{Kind: FlagsChanged, KeyCode: code, Flags: flags}, true
	}
	return Event{}, false
}

func maskFlags(mask uint16) Flags {
	var f Flags
	for _, m := range hookMaskFlags {
		if mask&m.mask != 0 {
			f |= m.flags
		}
	}
	return f
}
