//go:build !darwin

package hotkey

// TapBackend stub for platforms without Quartz event taps.
type TapBackend struct{}

// NewTapBackend creates a stub that is never available.
func NewTapBackend() *TapBackend {
	return &TapBackend{}
}

// Name returns the name of this backend.
func (b *TapBackend) Name() string {
	return "Quartz event tap (macOS only)"
}

// IsAvailable always returns false off macOS.
func (b *TapBackend) IsAvailable() bool {
	return false
}

// CanSuppress is true for the real tap; the stub mirrors it.
func (b *TapBackend) CanSuppress() bool {
	return true
}

// Install always fails off macOS.
func (b *TapBackend) Install(h Handler) error {
	return ErrBackendNotAvailable
}

// Close is a no-op.
func (b *TapBackend) Close() error {
	return nil
}
