package hotkey

import "errors"

var (
	// ErrBackendNotAvailable is returned when a backend cannot be used on the current system.
	ErrBackendNotAvailable = errors.New("backend not available on this system")
	// ErrTapUnavailable is returned when the event interceptor could not be installed,
	// usually because the process lacks the accessibility permission.
	ErrTapUnavailable = errors.New("keyboard event interceptor could not be installed")
)

// Handler decides the fate of one intercepted event. It runs on the backend's event
// thread and must return quickly.
type Handler func(Event) Decision

// Backend abstracts the different ways of observing global keyboard input. Only some
// backends can apply a Decision; the others observe and ignore it.
type Backend interface {
	// Install starts delivering events to h. It fails with ErrTapUnavailable when the
	// OS refuses the interceptor.
	Install(h Handler) error

	// Close stops event delivery and releases OS resources.
	Close() error

	// Name returns a human-readable name for this backend (for logging).
	Name() string

	// IsAvailable returns true if this backend can be used on the current system.
	IsAvailable() bool

	// CanSuppress reports whether Suppress and PassModified decisions take effect.
	CanSuppress() bool
}
