package hotkey

import (
	"sync/atomic"

	"github.com/TanaroSch/fast-forward/internal/intent"
)

// Trigger is a modifier key that opens the switcher while held.
type Trigger struct {
	KeyCode    int64
	DeviceFlag Flags // set in Event.Flags while this particular key is down
}

// Triggers configures the gesture recognised by Step.
type Triggers struct {
	Primary Trigger

	// Alternate arms a chord: Alternate held, then ChordKey pressed.
	Alternate        Trigger
	AlternateEnabled bool
	ChordKey         int64

	// StripMask is removed from key-down flags while the gesture is active.
	StripMask Flags
}

// DefaultTriggers uses right command as the trigger and left command+tab as the
// optional chord.
func DefaultTriggers(alternate bool) Triggers {
	return Triggers{
		Primary:          Trigger{KeyCode: KeyRightCommand, DeviceFlag: FlagRightCommand},
		Alternate:        Trigger{KeyCode: KeyLeftCommand, DeviceFlag: FlagLeftCommand},
		AlternateEnabled: alternate,
		ChordKey:         KeyTab,
		StripMask:        FlagCommand | FlagLeftCommand | FlagRightCommand,
	}
}

// State holds the gesture latches.
type State struct {
	Primary bool // primary trigger held
	Chord   bool // alternate chord active
	Escape  bool // escape pressed during this gesture
	Space   bool // space pressed during this gesture
}

// Active reports whether the switcher gesture is in progress.
func (s State) Active() bool {
	return s.Primary || s.Chord
}

const (
	bitPrimary uint32 = 1 << iota
	bitChord
	bitEscape
	bitSpace
)

func (s State) pack() uint32 {
	var v uint32
	if s.Primary {
		v |= bitPrimary
	}
	if s.Chord {
		v |= bitChord
	}
	if s.Escape {
		v |= bitEscape
	}
	if s.Space {
		v |= bitSpace
	}
	return v
}

func unpack(v uint32) State {
	return State{
		Primary: v&bitPrimary != 0,
		Chord:   v&bitChord != 0,
		Escape:  v&bitEscape != 0,
		Space:   v&bitSpace != 0,
	}
}

// DecisionKind says what happens to an intercepted event.
type DecisionKind uint8

const (
	Pass         DecisionKind = iota // deliver unchanged
	PassModified                     // deliver with Decision.Flags
	Suppress                         // drop
)

// Decision is the verdict for one event.
type Decision struct {
	Kind  DecisionKind
	Flags Flags
}

var (
	pass     = Decision{Kind: Pass}
	suppress = Decision{Kind: Suppress}
)

// Step is the gesture state machine. It is pure: the same inputs always give the
// same outputs and nothing outside the return values is touched.
func Step(s State, ev Event, t Triggers) (State, Decision, []intent.Intent) {
	switch ev.Kind {
	case FlagsChanged:
		return stepFlags(s, ev, t)
	case KeyDown:
		return stepKeyDown(s, ev, t)
	}
	return s, pass, nil
}

func stepFlags(s State, ev Event, t Triggers) (State, Decision, []intent.Intent) {
	switch {
	case ev.KeyCode == t.Primary.KeyCode:
		down := ev.Flags&t.Primary.DeviceFlag != 0
		if down == s.Primary {
			return s, pass, nil
		}
		s.Primary = down
		if s.Chord {
			// The chord already owns the window.
			return s, pass, nil
		}
		if down {
			s.Escape, s.Space = false, false
			return s, pass, []intent.Intent{intent.ShowWindow{Offset: 0}}
		}
		return s, pass, []intent.Intent{hideWindow(s)}

	case t.AlternateEnabled && s.Chord && ev.KeyCode == t.Alternate.KeyCode:
		if ev.Flags&t.Alternate.DeviceFlag != 0 {
			return s, pass, nil
		}
		s.Chord = false
		if s.Primary {
			return s, pass, nil
		}
		return s, pass, []intent.Intent{hideWindow(s)}
	}
	return s, pass, nil
}

func stepKeyDown(s State, ev Event, t Triggers) (State, Decision, []intent.Intent) {
	if ev.KeyCode == t.Primary.KeyCode {
		return s, suppress, nil
	}

	if !s.Active() {
		if t.AlternateEnabled && ev.KeyCode == t.ChordKey && ev.Flags&t.Alternate.DeviceFlag != 0 {
			s.Chord = true
			s.Escape, s.Space = false, false
			return s, suppress, []intent.Intent{intent.ShowWindow{Offset: 1}}
		}
		return s, pass, nil
	}

	switch ev.KeyCode {
	case KeyEscape:
		s.Escape = true
		return s, suppress, []intent.Intent{intent.QuitApplication{}}
	case KeySpace:
		s.Space = true
		return s, suppress, []intent.Intent{intent.HideApplication{}}
	}
	s.Escape, s.Space = false, false
	return s, Decision{Kind: PassModified, Flags: ev.Flags &^ t.StripMask}, nil
}

func hideWindow(s State) intent.Intent {
	return intent.HideWindow{AutoActivate: !s.Escape && !s.Space}
}

// Capture applies Step to live events. Its state never leaves the package; other
// components learn about the gesture only through emitted intents.
type Capture struct {
	state    atomic.Uint32
	triggers Triggers
	sink     intent.Sink
}

// NewCapture creates a capture that emits intents into sink. sink must not block.
func NewCapture(t Triggers, sink intent.Sink) *Capture {
	return &Capture{triggers: t, sink: sink}
}

// Handle runs on the OS event thread. Any panic is contained and the event passes
// through unchanged.
func (c *Capture) Handle(ev Event) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = pass
		}
	}()

	next, d, intents := Step(unpack(c.state.Load()), ev, c.triggers)
	c.state.Store(next.pack())
	for _, in := range intents {
		c.sink(in)
	}
	return d
}

func (c *Capture) current() State {
	return unpack(c.state.Load())
}
