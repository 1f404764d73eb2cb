package apps

import "strings"

// Entry is one running or launchable application as reported by the helper.
// Name is the identity key: the registry never holds two entries with the same Name.
type Entry struct {
	Name   string
	PID    int32  // 0 means the application is not running
	Path   string // bundle/executable path, used to relaunch
	Icon   string // icon file written by the helper
	Active bool   // frontmost according to the helper
}

// Running reports whether the entry refers to a live process.
func (e Entry) Running() bool {
	return e.PID != 0
}

// Placement controls where Upsert puts an entry.
type Placement int

const (
	PlaceNone Placement = iota // remove only
	PlaceFront
	PlaceBack
)

// IndexType selects how the active index moves.
type IndexType int

const (
	Start IndexType = iota
	End
	Next
	Previous
)

func (t IndexType) String() string {
	switch t {
	case Start:
		return "start"
	case End:
		return "end"
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return "unknown"
	}
}

// Action is an operation performed on the selected entry.
type Action int

const (
	Activate Action = iota
	Hide
	Quit
)

func (a Action) String() string {
	switch a {
	case Activate:
		return "activate"
	case Hide:
		return "hide"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// DefaultApplicationDirs are the directories whose bundles stay listed as launchable
// entries and rank ahead of other non-running entries.
var DefaultApplicationDirs = []string{"/Applications/", "/System/Applications/"}

// DefaultMaxLaunchable caps the non-running entries shown in a view.
const DefaultMaxLaunchable = 3

// FilterOptions tunes the ranking rules of Filter.
type FilterOptions struct {
	ApplicationDirs []string
	MaxLaunchable   int
}

// DefaultFilterOptions returns the options used when the config leaves them empty.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		ApplicationDirs: append([]string(nil), DefaultApplicationDirs...),
		MaxLaunchable:   DefaultMaxLaunchable,
	}
}

// IsApplicationPath reports whether path lies under one of the standard application directories.
func (o FilterOptions) IsApplicationPath(path string) bool {
	if path == "" {
		return false
	}
	for _, dir := range o.ApplicationDirs {
		if dir != "" && strings.HasPrefix(path, dir) {
			return true
		}
	}
	return false
}
