package hotkey

import "golang.design/x/hotkey"

// comboKeys are the non-modifier keys a switcher combination may end in. Letters
// and digits are left out: they collide with typing and application shortcuts.
var comboKeys = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"spc":    hotkey.KeySpace,
	"tab":    hotkey.KeyTab,
	"enter":  hotkey.KeyReturn,
	"return": hotkey.KeyReturn,
	"escape": hotkey.KeyEscape,
	"esc":    hotkey.KeyEscape,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

func lookupKey(name string) (hotkey.Key, bool) {
	key, ok := comboKeys[name]
	return key, ok
}
