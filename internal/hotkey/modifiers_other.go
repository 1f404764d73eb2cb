//go:build !darwin && !linux

package hotkey

import "golang.design/x/hotkey"

// Registered hotkeys are only wired up for macOS and X11.
var modifierMap map[string]hotkey.Modifier
