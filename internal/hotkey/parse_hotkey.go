package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

// parseHotkey converts a combination such as "ctrl+alt+space" into
// golang.design/x/hotkey modifiers and key. Modifier names are resolved through the
// per-OS modifierMap.
func parseHotkey(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	if modifierMap == nil {
		return nil, 0, ErrBackendNotAvailable
	}
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(combo, " ", "")), "+")

	keyStr := parts[len(parts)-1]
	key, ok := lookupKey(keyStr)
	if !ok {
		return nil, 0, fmt.Errorf("unsupported key: %s", keyStr)
	}

	var modifiers []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierMap[part]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier: %s", part)
		}
		modifiers = append(modifiers, mod)
	}
	if len(modifiers) == 0 {
		return nil, 0, fmt.Errorf("hotkey '%s' needs at least one modifier", combo)
	}
	return modifiers, key, nil
}
