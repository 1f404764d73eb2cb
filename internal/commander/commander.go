// Package commander applies intents taken off the command bus to the application
// registry, the switcher window and the workspace.
package commander

import (
	"fmt"
	"log"

	"github.com/TanaroSch/fast-forward/internal/apps"
	"github.com/TanaroSch/fast-forward/internal/intent"
	"github.com/TanaroSch/fast-forward/internal/ipc"
)

// Window is the switcher window as seen by the core.
type Window interface {
	Show(offset int) error
	Hide() error
}

// Workspace performs actions on other applications.
type Workspace interface {
	Activate(pid int32) error
	Hide(pid int32) error
	Terminate(pid int32) error
	Launch(path string) error
}

// Opener handles the tray's Settings and About entries.
type Opener interface {
	OpenSettings() error
	OpenAbout() error
}

// Commander is the single consumer of intents. Handle must only be called from the
// bus consumer goroutine; it owns every registry mutation.
type Commander struct {
	registry  *apps.Registry
	window    Window
	workspace Workspace
	opener    Opener
	quit      func()
}

// New creates a Commander. quit is called for intent.Quit.
func New(registry *apps.Registry, window Window, workspace Workspace, opener Opener, quit func()) *Commander {
	return &Commander{
		registry:  registry,
		window:    window,
		workspace: workspace,
		opener:    opener,
		quit:      quit,
	}
}

// Handle applies one intent. Errors are returned to the bus, which logs them.
func (c *Commander) Handle(in intent.Intent) error {
	switch in := in.(type) {
	case intent.ShowWindow:
		c.registry.SelectOffset(in.Offset)
		if err := c.window.Show(in.Offset); err != nil {
			return fmt.Errorf("failed to show window: %w", err)
		}
		return nil

	case intent.HideWindow:
		var err error
		if in.AutoActivate {
			err = c.perform(apps.Activate)
		}
		if hideErr := c.window.Hide(); hideErr != nil && err == nil {
			err = fmt.Errorf("failed to hide window: %w", hideErr)
		}
		c.registry.Reset()
		return err

	case intent.HideApplication:
		err := c.perform(apps.Hide)
		c.registry.Reset()
		return err

	case intent.QuitApplication:
		err := c.perform(apps.Quit)
		c.registry.Reset()
		return err

	case intent.OpenSettings:
		if err := c.opener.OpenSettings(); err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}
		return nil

	case intent.OpenAbout:
		if err := c.opener.OpenAbout(); err != nil {
			return fmt.Errorf("failed to open about page: %w", err)
		}
		return nil

	case intent.Quit:
		log.Println("Quit requested")
		if c.quit != nil {
			c.quit()
		}
		return nil

	case intent.Socket:
		return c.handleMessage(in.Message)

	case intent.SetQuery:
		c.registry.SetQuery(in.Query)
		return nil

	case intent.Navigate:
		c.registry.Select(in.Index)
		return nil

	case intent.Perform:
		return c.perform(in.Action)

	default:
		return fmt.Errorf("unhandled intent %T", in)
	}
}

func (c *Commander) handleMessage(msg ipc.Message) error {
	switch msg := msg.(type) {
	case ipc.FullList:
		c.registry.ReplaceAll(msg.Entries)
	case ipc.Launched:
		c.registry.Upsert(msg.Entry, apps.PlaceFront)
	case ipc.Activated:
		c.registry.Upsert(msg.Entry, apps.PlaceFront)
	case ipc.Closed:
		c.registry.MarkClosed(msg.Entry)
	default:
		return fmt.Errorf("unhandled socket message %T", msg)
	}
	return nil
}

// perform applies action to the selected entry of the current view. An empty view
// is a no-op.
func (c *Commander) perform(action apps.Action) error {
	entry, ok := c.registry.Selected()
	if !ok {
		return nil
	}

	switch action {
	case apps.Activate:
		c.registry.Upsert(entry, apps.PlaceFront)
		if !entry.Running() {
			if err := c.workspace.Launch(entry.Path); err != nil {
				return fmt.Errorf("failed to launch %s: %w", entry.Name, err)
			}
			return nil
		}
		if err := c.workspace.Activate(entry.PID); err != nil {
			return fmt.Errorf("failed to activate %s: %w", entry.Name, err)
		}

	case apps.Hide:
		c.registry.Upsert(entry, apps.PlaceBack)
		if !entry.Running() {
			return nil
		}
		if err := c.workspace.Hide(entry.PID); err != nil {
			return fmt.Errorf("failed to hide %s: %w", entry.Name, err)
		}

	case apps.Quit:
		c.registry.Remove(entry.Name)
		if !entry.Running() {
			return nil
		}
		if err := c.workspace.Terminate(entry.PID); err != nil {
			return fmt.Errorf("failed to quit %s: %w", entry.Name, err)
		}

	default:
		return fmt.Errorf("unknown action %v", action)
	}
	return nil
}
