package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/TanaroSch/fast-forward/internal/apps"
	"github.com/TanaroSch/fast-forward/internal/bus"
	"github.com/TanaroSch/fast-forward/internal/commander"
	"github.com/TanaroSch/fast-forward/internal/config"
	"github.com/TanaroSch/fast-forward/internal/hotkey"
	"github.com/TanaroSch/fast-forward/internal/intent"
	"github.com/TanaroSch/fast-forward/internal/ipc"
	"github.com/TanaroSch/fast-forward/internal/paths"
	"github.com/TanaroSch/fast-forward/internal/resources"
	"github.com/TanaroSch/fast-forward/internal/ui"
	"github.com/TanaroSch/fast-forward/internal/workspace"
)

// Options replaces collaborators that are normally built from the config.
// Zero fields use the defaults.
type Options struct {
	Backend   hotkey.Backend      // nil selects one from trigger.backend
	Window    commander.Window    // nil logs through ui.HeadlessWindow
	Workspace commander.Workspace // nil drives the real desktop
	Opener    commander.Opener    // nil opens files and URLs with the OS
	Launcher  ipc.LauncherFunc    // nil starts the configured helper
	Dialer    ipc.DialFunc        // nil dials the unix socket
}

// Application represents the main application
type Application struct {
	config   atomic.Pointer[config.Config]
	version  string
	iconData []byte

	registry  *apps.Registry
	bus       *bus.Bus[intent.Intent]
	capture   *hotkey.Capture
	backend   hotkey.Backend
	client    *ipc.Client
	commander *commander.Commander
	tray      *ui.Tray
	headless  *ui.HeadlessWindow // nil when a renderer was passed in

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New creates a new application instance
func New(cfg *config.Config, version string, opts Options) (*Application, error) {
	a := &Application{version: version}
	a.config.Store(cfg)

	var err error
	a.iconData, err = resources.GetIcon()
	if err != nil {
		log.Printf("Warning: Failed to load embedded icon: %v", err)
	}

	a.registry = apps.NewRegistry(apps.FilterOptions{
		ApplicationDirs: cfg.Registry.ApplicationDirs,
		MaxLaunchable:   cfg.Registry.MaxLaunchable,
	})
	a.bus = bus.New[intent.Intent]()
	a.capture = hotkey.NewCapture(hotkey.DefaultTriggers(cfg.Trigger.Alternate), a.Send)

	a.backend = opts.Backend
	if a.backend == nil {
		a.backend, err = hotkey.SelectBackend(hotkey.SelectOptions{
			Backend: cfg.Trigger.Backend,
			Combo:   cfg.Trigger.Hotkey,
			Primary: hotkey.DefaultTriggers(false).Primary,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to select hotkey backend: %w", err)
		}
	}

	launch := opts.Launcher
	if launch == nil {
		sup, err := newSupervisor(cfg)
		if err != nil {
			return nil, err
		}
		launch = sup.Launcher()
	}
	a.client = ipc.NewClient(ipc.ClientConfig{
		SocketPath:     cfg.Helper.Socket,
		ReconnectDelay: cfg.Helper.ReconnectDelay.Duration,
	}, launch, func(msg ipc.Message) {
		a.Send(intent.Socket{Message: msg})
	})
	if opts.Dialer != nil {
		a.client.SetDialer(opts.Dialer)
	}

	window := opts.Window
	if window == nil {
		a.headless = ui.NewHeadlessWindow(a.registry)
		window = a.headless
	}
	ws := opts.Workspace
	if ws == nil {
		ws = workspace.New()
	}
	opener := opts.Opener
	if opener == nil {
		opener = ui.Opener{
			ConfigPath: cfg.GetConfigPath(),
			Editor:     cfg.General.Editor,
			AboutURL:   cfg.General.AboutURL,
		}
	}
	a.commander = commander.New(a.registry, window, ws, opener, a.Quit)

	if cfg.General.ShowTray {
		a.tray = ui.NewTray(version, a.iconData, a.Send, nil)
	}
	return a, nil
}

// newSupervisor builds the helper supervisor, reading the payload binary if one is configured.
func newSupervisor(cfg *config.Config) (*ipc.Supervisor, error) {
	path := cfg.Helper.Path
	if path == "" {
		path = paths.HelperPath()
	}

	var payload []byte
	if cfg.Helper.Payload != "" {
		data, err := os.ReadFile(cfg.Helper.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to read helper payload '%s': %w", cfg.Helper.Payload, err)
		}
		payload = data
	}

	return ipc.NewSupervisor(ipc.SupervisorConfig{
		Path:         path,
		Payload:      payload,
		ReadyLine:    cfg.Helper.ReadyLine,
		ReadyTimeout: cfg.Helper.ReadyTimeout.Duration,
	}), nil
}

// Send queues an intent on the command bus. Safe from any goroutine, including
// the keyboard callback.
func (a *Application) Send(in intent.Intent) bool {
	return a.bus.Send(in)
}

// Registry exposes the application list to a renderer.
func (a *Application) Registry() *apps.Registry {
	return a.registry
}

// Run installs the keyboard backend and runs until ctx is cancelled, a
// termination signal arrives or Quit is called. With the tray enabled Run must be
// called from the main goroutine.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.cancelMu.Lock()
	a.cancel = cancel
	a.cancelMu.Unlock()

	if err := a.backend.Install(a.capture.Handle); err != nil {
		return fmt.Errorf("failed to install %s: %w", a.backend.Name(), err)
	}
	defer func() {
		if err := a.backend.Close(); err != nil {
			log.Printf("Warning: Failed to close hotkey backend: %v", err)
		}
	}()
	log.Printf("Hotkey backend installed: %s", a.backend.Name())

	cfg := a.config.Load()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.bus.Run(gctx, cfg.Bus.PollInterval.Duration, a.commander.Handle)
	})
	g.Go(func() error {
		return a.client.Run(gctx)
	})
	if a.headless != nil {
		g.Go(func() error {
			return a.headless.Run(gctx)
		})
	}
	if path := cfg.GetConfigPath(); path != "" {
		g.Go(func() error {
			if err := config.Watch(gctx, path, a.applyConfig); err != nil && !isShutdown(err) {
				// Reloading is optional; keep running without it.
				log.Printf("Warning: Config watcher stopped: %v", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.bus.Close()
		if a.tray != nil {
			a.tray.Quit()
		}
		return nil
	})

	if a.tray != nil {
		a.tray.Run()
		cancel()
	}

	err := g.Wait()
	log.Println("Application stopped.")
	if isShutdown(err) {
		return nil
	}
	return err
}

// Quit stops Run.
func (a *Application) Quit() {
	a.cancelMu.Lock()
	cancel := a.cancel
	a.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// applyConfig takes over the settings that can change while running and logs
// the ones that need a restart.
func (a *Application) applyConfig(next *config.Config) {
	prev := a.config.Swap(next)

	a.client.SetReconnectDelay(next.Helper.ReconnectDelay.Duration)
	ui.SetNotificationsEnabled(next.General.Notifications)

	if prev.Trigger != next.Trigger || prev.General.ShowTray != next.General.ShowTray ||
		prev.Helper.Path != next.Helper.Path || prev.Helper.Payload != next.Helper.Payload ||
		prev.Helper.Socket != next.Helper.Socket {
		log.Println("Config changed: trigger, tray and helper settings apply after a restart.")
	}
}

func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, bus.ErrClosed)
}
