package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/TanaroSch/fast-forward/internal/app"
	"github.com/TanaroSch/fast-forward/internal/config"
	"github.com/TanaroSch/fast-forward/internal/paths"
	"github.com/TanaroSch/fast-forward/internal/ui"
)

const version = "v0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if logFile := openLogFile(); logFile != nil {
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}
	log.Printf("Fast Forward %s starting...", version)

	if _, err := paths.EnsureConfigDir(); err != nil {
		fatal("Configuration directory unavailable", err)
	}

	cfg, err := config.Load(paths.ConfigPath())
	if err != nil {
		fatal("Error loading config", err)
	}
	ui.InitGlobalNotifications(cfg.General.Notifications, "Fast Forward", "")

	application, err := app.New(cfg, version, app.Options{})
	if err != nil {
		fatal("Startup failed", err)
	}

	// Handle any panics during execution
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := application.Run(context.Background()); err != nil {
		fatal("Fast Forward stopped", err)
	}
	log.Println("Fast Forward exited.")
}

// openLogFile opens the log file in the data directory. Logging falls back to
// stderr only when it cannot be opened.
func openLogFile() *os.File {
	if _, err := paths.EnsureDataDir(); err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}
	f, err := os.OpenFile(paths.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		return nil
	}
	return f
}

func fatal(title string, err error) {
	ui.ShowFatal("Fast Forward - "+title, err.Error())
	os.Exit(1)
}
