package hotkey

import "fmt"

// Kind is the type of a raw keyboard event.
type Kind uint8

const (
	FlagsChanged Kind = iota + 1
	KeyDown
)

func (k Kind) String() string {
	switch k {
	case FlagsChanged:
		return "flags-changed"
	case KeyDown:
		return "key-down"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Flags uses the CGEventFlags bit layout: generic modifier bits in the high word and
// per-device bits (left/right) in the low byte.
type Flags uint64

const (
	FlagLeftControl  Flags = 0x01
	FlagLeftShift    Flags = 0x02
	FlagRightShift   Flags = 0x04
	FlagLeftCommand  Flags = 0x08
	FlagRightCommand Flags = 0x10
	FlagLeftOption   Flags = 0x20
	FlagRightOption  Flags = 0x40
	FlagRightControl Flags = 0x2000

	FlagAlphaShift Flags = 1 << 16
	FlagShift      Flags = 1 << 17
	FlagControl    Flags = 1 << 18
	FlagOption     Flags = 1 << 19
	FlagCommand    Flags = 1 << 20
)

// Virtual key codes (macOS kVK_* values).
const (
	KeyTab          int64 = 48
	KeySpace        int64 = 49
	KeyEscape       int64 = 53
	KeyRightCommand int64 = 54
	KeyLeftCommand  int64 = 55
)

// Event is an OS independent view of one intercepted keyboard event.
type Event struct {
	Kind    Kind
	KeyCode int64
	Flags   Flags
}

func (e Event) String() string {
	return fmt.Sprintf("%s key=%d flags=%#x", e.Kind, e.KeyCode, uint64(e.Flags))
}
