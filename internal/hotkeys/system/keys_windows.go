package system

import "golang.design/x/hotkey"

var modifiers = map[string]hotkey.Modifier{
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
	"alt":     hotkey.ModAlt,
	"super":   hotkey.ModWin,
}

// Virtual-key codes.
var platformKeys = map[string]hotkey.Key{
	"page_up":   0x21,
	"page_down": 0x22,
	"end":       0x23,
	"home":      0x24,
	"insert":    0x2D,
}
