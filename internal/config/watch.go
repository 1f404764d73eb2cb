package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce groups the burst of events editors produce for one save.
const DefaultWatchDebounce = 200 * time.Millisecond

// Watch reloads the configuration file whenever it changes and passes every valid
// result to onChange. Invalid files are logged and skipped. Watch blocks until ctx
// is done.
//
// The parent directory is watched rather than the file itself so that editors
// replacing the file on save keep being followed.
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	return watch(ctx, configPath, DefaultWatchDebounce, onChange)
}

func watch(ctx context.Context, configPath string, debounce time.Duration, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(configPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config directory '%s': %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher: %v", err)

		case <-timer.C:
			cfg, err := Load(target)
			if err != nil {
				log.Printf("Config watcher: keeping previous configuration: %v", err)
				continue
			}
			log.Printf("Config watcher: reloaded '%s'", target)
			onChange(cfg)
		}
	}
}
