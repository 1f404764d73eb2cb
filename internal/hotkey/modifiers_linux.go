//go:build linux

package hotkey

import "golang.design/x/hotkey"

// On X11 Alt is typically Mod1 and Super is Mod4.
var modifierMap = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"super": hotkey.Mod4,
	"cmd":   hotkey.Mod4,
}
