//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <stdint.h>

int ffTapTrusted(void);
int ffTapCreate(void);
void ffTapRun(void);
void ffTapStop(void);
*/
import "C"

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// The CGEventTap callback has no user pointer on the Go side, so the handler of the
// single installed tap lives here.
var tapHandler atomic.Pointer[Handler]

//export goTapEvent
func goTapEvent(kind C.int, keycode C.int64_t, flags C.uint64_t, out *C.uint64_t) (verdict C.int) {
	defer func() {
		if r := recover(); r != nil {
			verdict = C.int(Pass)
		}
	}()

	h := tapHandler.Load()
	if h == nil {
		return C.int(Pass)
	}
	ev := Event{KeyCode: int64(keycode), Flags: Flags(flags)}
	switch kind {
	case 12: // kCGEventFlagsChanged
		ev.Kind = FlagsChanged
	case 10: // kCGEventKeyDown
		ev.Kind = KeyDown
	default:
		return C.int(Pass)
	}

	d := (*h)(ev)
	if d.Kind == PassModified {
		*out = C.uint64_t(d.Flags)
	}
	return C.int(d.Kind)
}

// TapBackend intercepts keyboard events with a CGEventTap. It is the only backend
// that can swallow keys and rewrite modifier flags.
type TapBackend struct {
	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewTapBackend creates an event tap backend.
func NewTapBackend() *TapBackend {
	return &TapBackend{}
}

// Name returns the name of this backend.
func (b *TapBackend) Name() string {
	return "Quartz event tap"
}

// IsAvailable is always true on macOS. Missing permissions surface from Install.
func (b *TapBackend) IsAvailable() bool {
	return true
}

// CanSuppress is always true for the event tap.
func (b *TapBackend) CanSuppress() bool {
	return true
}

// Install creates the tap and runs its run loop on a dedicated OS thread.
func (b *TapBackend) Install(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("event tap already installed")
	}

	if C.ffTapTrusted() == 0 {
		log.Println("Event tap: process is not trusted for accessibility, the tap will likely fail")
	}

	tapHandler.Store(&h)
	created := make(chan bool, 1)
	b.stopped = make(chan struct{})

	go func(stopped chan struct{}) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(stopped)

		if C.ffTapCreate() == 0 {
			created <- false
			return
		}
		created <- true
		C.ffTapRun()
	}(b.stopped)

	if !<-created {
		tapHandler.Store(nil)
		return fmt.Errorf("%w: CGEventTapCreate returned NULL (grant Accessibility access in System Settings)", ErrTapUnavailable)
	}
	b.running = true
	log.Println("Event tap: installed")
	return nil
}

// Close stops the run loop and releases the tap.
func (b *TapBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	C.ffTapStop()
	<-b.stopped
	tapHandler.Store(nil)
	b.running = false
	log.Println("Event tap: removed")
	return nil
}
