package hotkeys

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/spotkey/internal/shared"
)

// modifierOrder is the canonical order modifiers are rendered in.
var modifierOrder = []string{"control", "alt", "shift", "super"}

var modifierAliases = map[string]string{
	"control": "control",
	"ctrl":    "control",
	"ctl":     "control",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"mod1":    "alt",
	"shift":   "shift",
	"super":   "super",
	"win":     "super",
	"windows": "super",
	"cmd":     "super",
	"command": "super",
	"meta":    "super",
}

var keyAliases = map[string]string{
	"pageup":     "page_up",
	"pgup":       "page_up",
	"prior":      "page_up",
	"pagedown":   "page_down",
	"pgdn":       "page_down",
	"next":       "page_down",
	"ins":        "insert",
	"del":        "delete",
	"return":     "enter",
	"esc":        "escape",
	"spacebar":   "space",
	"arrowleft":  "left",
	"arrowright": "right",
	"arrowup":    "up",
	"arrowdown":  "down",
}

var namedKeys = map[string]bool{
	"home": true, "end": true, "page_up": true, "page_down": true, "insert": true, "delete": true,
	"left": true, "right": true, "up": true, "down": true,
	"space": true, "enter": true, "escape": true, "tab": true,
}

// Combo is a set of modifiers plus one key pressed together.
type Combo struct {
	Mods []string
	Key  string
}

// String renders the combo canonically, e.g. "control + alt + b".
func (c Combo) String() string {
	parts := append(slices.Clone(c.Mods), c.Key)
	return strings.Join(parts, " + ")
}

// Chord is a sequence of combos.
type Chord []Combo

// String renders the chord canonically, e.g. "control + alt + b, 3".
func (c Chord) String() string {
	parts := make([]string, len(c))
	for i, combo := range c {
		parts[i] = combo.String()
	}
	return strings.Join(parts, ", ")
}

// Leader returns the first combo.
func (c Chord) Leader() Combo { return c[0] }

// ParseChord parses "<combo>[, <combo>...]".
func ParseChord(s string) (Chord, error) {
	steps := strings.Split(s, ",")
	chord := make(Chord, 0, len(steps))
	for _, step := range steps {
		combo, err := ParseCombo(step)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", shared.ErrInvalidChord, s, err)
		}
		chord = append(chord, combo)
	}
	return chord, nil
}

// ParseCombo parses "<mod> + ... + <key>".
func ParseCombo(s string) (Combo, error) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	if s == "" {
		return Combo{}, fmt.Errorf("empty combo")
	}

	var key string
	mods := make(map[string]bool)
	for _, part := range strings.Split(s, "+") {
		if part == "" {
			return Combo{}, fmt.Errorf("empty key in %q", s)
		}
		if mod, ok := modifierAliases[part]; ok {
			mods[mod] = true
			continue
		}
		if key != "" {
			return Combo{}, fmt.Errorf("more than one key in %q", s)
		}
		k, err := normalizeKey(part)
		if err != nil {
			return Combo{}, err
		}
		key = k
	}

	if key == "" {
		return Combo{}, fmt.Errorf("no key in %q", s)
	}

	combo := Combo{Key: key}
	for _, m := range modifierOrder {
		if mods[m] {
			combo.Mods = append(combo.Mods, m)
		}
	}
	return combo, nil
}

func normalizeKey(k string) (string, error) {
	if alias, ok := keyAliases[strings.ReplaceAll(k, "_", "")]; ok {
		k = alias
	}
	switch {
	case len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9'):
		return k, nil
	case namedKeys[k]:
		return k, nil
	case isFunctionKey(k):
		return k, nil
	}
	return "", fmt.Errorf("unknown key %q", k)
}

func isFunctionKey(k string) bool {
	if len(k) < 2 || k[0] != 'f' {
		return false
	}
	n := 0
	for _, r := range k[1:] {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= 20
}
