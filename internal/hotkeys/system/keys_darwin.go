package system

import "golang.design/x/hotkey"

var modifiers = map[string]hotkey.Modifier{
	"control": hotkey.ModCtrl,
	"shift":   hotkey.ModShift,
	"alt":     hotkey.ModOption,
	"super":   hotkey.ModCmd,
}

// Carbon virtual key codes. Mac keyboards have no Insert; the Help key sits in its place.
var platformKeys = map[string]hotkey.Key{
	"insert":    0x72,
	"home":      0x73,
	"page_up":   0x74,
	"end":       0x77,
	"page_down": 0x79,
}
