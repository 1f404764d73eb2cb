//go:build darwin || linux

package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/hotkey"
)

func TestParseHotkey(t *testing.T) {
	mods, key, err := parseHotkey("Ctrl+Alt+Space")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeySpace, key)
	assert.Equal(t, []hotkey.Modifier{modifierMap["ctrl"], modifierMap["alt"]}, mods)

	_, key, err = parseHotkey("cmd + esc")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeyEscape, key)

	_, key, err = parseHotkey("ctrl+F5")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeyF5, key)

	_, key, err = parseHotkey("alt+return")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeyReturn, key)
}

func TestParseHotkeyErrors(t *testing.T) {
	for _, combo := range []string{"space", "ctrl+nope", "hyper+space", "ctrl+a", "alt+1", ""} {
		_, _, err := parseHotkey(combo)
		assert.Error(t, err, combo)
	}
}
