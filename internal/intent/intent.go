// Package intent defines the requests that flow through the command bus.
package intent

import (
	"github.com/TanaroSch/fast-forward/internal/apps"
	"github.com/TanaroSch/fast-forward/internal/ipc"
)

// Intent is a request produced by the hotkey capture, the tray, the socket client or
// the UI. It is consumed exactly once by the bus consumer.
type Intent interface {
	isIntent()
}

// Hotkey intents.
type (
	// ShowWindow opens the switcher with the entry at Offset selected.
	ShowWindow struct{ Offset int }
	// HideWindow closes the switcher, activating the selection when AutoActivate is set.
	HideWindow struct{ AutoActivate bool }
	// HideApplication hides the selected application.
	HideApplication struct{}
	// QuitApplication terminates the selected application.
	QuitApplication struct{}
)

// Tray intents.
type (
	OpenSettings struct{}
	OpenAbout    struct{}
	Quit         struct{}
)

// Socket carries a message decoded from the helper.
type Socket struct {
	Message ipc.Message
}

// UI intents.
type (
	SetQuery struct{ Query string }
	Navigate struct{ Index apps.IndexType }
	Perform  struct{ Action apps.Action }
)

func (ShowWindow) isIntent()      {}
func (HideWindow) isIntent()      {}
func (HideApplication) isIntent() {}
func (QuitApplication) isIntent() {}
func (OpenSettings) isIntent()    {}
func (OpenAbout) isIntent()       {}
func (Quit) isIntent()            {}
func (Socket) isIntent()          {}
func (SetQuery) isIntent()        {}
func (Navigate) isIntent()        {}
func (Perform) isIntent()         {}

// Sink accepts intents without blocking. It reports false when the intent was dropped.
type Sink func(Intent) bool
