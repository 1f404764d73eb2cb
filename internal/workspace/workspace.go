// Package workspace performs window-manager actions on other applications:
// bringing them to the front, hiding them, terminating and launching them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// DefaultCommandTimeout bounds every external command the workspace runs.
const DefaultCommandTimeout = 5 * time.Second

// ErrUnsupported is returned for actions the current platform has no command for.
var ErrUnsupported = errors.New("workspace action not supported on this platform")

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Signaler delivers sig to the process with the given pid.
type Signaler func(pid int, sig os.Signal) error

// Workspace drives other applications through osascript on macOS and xdotool on X11.
type Workspace struct {
	goos    string
	run     Runner
	signal  Signaler
	timeout time.Duration
}

// New returns a Workspace for the running platform.
func New() *Workspace {
	return &Workspace{
		goos:    runtime.GOOS,
		run:     execRunner,
		signal:  signalProcess,
		timeout: DefaultCommandTimeout,
	}
}

// NewWithRunner returns a Workspace that behaves as on goos and sends every command
// and signal through the given functions.
func NewWithRunner(goos string, run Runner, signal Signaler) *Workspace {
	return &Workspace{goos: goos, run: run, signal: signal, timeout: DefaultCommandTimeout}
}

// Activate brings the application with pid to the front.
func (w *Workspace) Activate(pid int32) error {
	switch w.goos {
	case "darwin":
		return w.osascript("activate", pid,
			fmt.Sprintf(`tell application "System Events" to set frontmost of (first process whose unix id is %d) to true`, pid))
	case "linux":
		return w.command("activate", pid, "xdotool", "search", "--onlyvisible", "--pid", fmt.Sprint(pid), "windowactivate", "%@")
	default:
		return fmt.Errorf("failed to activate pid %d: %w", pid, ErrUnsupported)
	}
}

// Hide hides every window of the application with pid.
func (w *Workspace) Hide(pid int32) error {
	switch w.goos {
	case "darwin":
		return w.osascript("hide", pid,
			fmt.Sprintf(`tell application "System Events" to set visible of (first process whose unix id is %d) to false`, pid))
	case "linux":
		return w.command("hide", pid, "xdotool", "search", "--onlyvisible", "--pid", fmt.Sprint(pid), "windowminimize", "%@")
	default:
		return fmt.Errorf("failed to hide pid %d: %w", pid, ErrUnsupported)
	}
}

// Terminate asks the application with pid to quit.
func (w *Workspace) Terminate(pid int32) error {
	log.Printf("Workspace: terminating pid %d", pid)
	if err := w.signal(int(pid), syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to terminate pid %d: %w", pid, err)
	}
	return nil
}

// Launch starts the application at path.
func (w *Workspace) Launch(path string) error {
	if path == "" {
		return fmt.Errorf("failed to launch application: empty path")
	}
	log.Printf("Workspace: launching '%s'", path)

	name := "xdg-open"
	if w.goos == "darwin" {
		name = "open"
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if out, err := w.run(ctx, name, path); err != nil {
		return fmt.Errorf("failed to launch '%s': %w%s", path, err, formatOutput(out))
	}
	return nil
}

func (w *Workspace) osascript(action string, pid int32, script string) error {
	return w.command(action, pid, "osascript", "-e", script)
}

func (w *Workspace) command(action string, pid int32, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if out, err := w.run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to %s pid %d: %w%s", action, pid, err, formatOutput(out))
	}
	return nil
}

func formatOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	return " (output: " + s + ")"
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func signalProcess(pid int, sig os.Signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(sig)
}
