package system

import "golang.design/x/hotkey"

var modifiers = map[string]hotkey.Modifier{
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
	"alt":     hotkey.Mod1,
	"super":   hotkey.Mod4,
}

// X11 keysyms without named constants in the hotkey package.
var platformKeys = map[string]hotkey.Key{
	"home":      0xff50,
	"page_up":   0xff55,
	"page_down": 0xff56,
	"end":       0xff57,
	"insert":    0xff63,
}
