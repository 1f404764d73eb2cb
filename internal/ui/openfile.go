package ui

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
)

// startCommand starts cmd without waiting for it to finish.
var startCommand = func(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// openCommand builds the command that opens target. A non-empty app names the
// application to open it with (macOS only; ignored elsewhere).
func openCommand(goos, target, app string) *exec.Cmd {
	switch goos {
	case "darwin":
		if app != "" {
			return exec.Command("open", "-a", app, target)
		}
		return exec.Command("open", target)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		// Assume Linux/Unix-like
		return exec.Command("xdg-open", target)
	}
}

// OpenFileInApp opens filePath with app, or the default application when app is empty.
func OpenFileInApp(filePath, app string) error {
	log.Printf("Opening '%s' (app=%q, OS=%s)", filePath, app, runtime.GOOS)
	cmd := openCommand(runtime.GOOS, filePath, app)
	if err := startCommand(cmd); err != nil {
		log.Printf("Failed to start command (%s): %v", cmd.String(), err)
		return fmt.Errorf("failed to start command (%s): %w", cmd.String(), err)
	}
	return nil
}

// OpenURL opens url in the default browser.
func OpenURL(url string) error {
	return OpenFileInApp(url, "")
}

// Opener serves the tray's Settings and About entries. Failures are logged and
// returned; a desktop notification follows only when notifications are enabled.
type Opener struct {
	ConfigPath string
	Editor     string
	AboutURL   string
}

// OpenSettings opens the configuration file in the configured editor.
func (o Opener) OpenSettings() error {
	if err := OpenFileInApp(o.ConfigPath, o.Editor); err != nil {
		ShowNotification("Fast Forward", fmt.Sprintf("Could not open settings: %v", err))
		return err
	}
	return nil
}

// OpenAbout opens the project page.
func (o Opener) OpenAbout() error {
	if err := OpenURL(o.AboutURL); err != nil {
		ShowNotification("Fast Forward", fmt.Sprintf("Could not open %s: %v", o.AboutURL, err))
		return err
	}
	return nil
}
