//go:build linux || darwin || windows

// Package system implements [hotkeys.Backend] with golang.design/x/hotkey.
//
// On Linux the underlying library connects to the X11 display when the package is
// initialised, so only the daemon's entry point imports it.
package system

import (
	"fmt"
	"sync"

	"github.com/desertthunder/spotkey/internal/hotkeys"
	"golang.design/x/hotkey"
)

// Backend grabs combos through the desktop's global hotkey facility.
type Backend struct {
	mu     sync.Mutex
	events chan hotkeys.Combo
	active map[string]*grab
	closed bool
}

type grab struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// New creates a backend with no grabs.
func New() *Backend {
	return &Backend{
		events: make(chan hotkeys.Combo, 16),
		active: make(map[string]*grab),
	}
}

var _ hotkeys.Backend = (*Backend)(nil)

func (b *Backend) Events() <-chan hotkeys.Combo { return b.events }

func (b *Backend) Register(c hotkeys.Combo) error {
	mods, key, err := resolve(c)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("backend closed")
	}
	if _, ok := b.active[c.String()]; ok {
		return nil
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register %s: %w", c, err)
	}

	g := &grab{hk: hk, stop: make(chan struct{})}
	b.active[c.String()] = g
	go b.forward(c, g)
	return nil
}

func (b *Backend) Unregister(c hotkeys.Combo) error {
	b.mu.Lock()
	g, ok := b.active[c.String()]
	delete(b.active, c.String())
	b.mu.Unlock()

	if !ok {
		return nil
	}
	close(g.stop)
	if err := g.hk.Unregister(); err != nil {
		return fmt.Errorf("failed to unregister %s: %w", c, err)
	}
	return nil
}

// Close releases every grab.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	grabs := b.active
	b.active = make(map[string]*grab)
	b.mu.Unlock()

	var first error
	for _, g := range grabs {
		close(g.stop)
		if err := g.hk.Unregister(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (b *Backend) forward(c hotkeys.Combo, g *grab) {
	for {
		select {
		case <-g.stop:
			return
		case _, ok := <-g.hk.Keydown():
			if !ok {
				return
			}
			select {
			case b.events <- c:
			case <-g.stop:
				return
			}
		}
	}
}

func resolve(c hotkeys.Combo) ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, len(c.Mods))
	for _, m := range c.Mods {
		mod, ok := modifiers[m]
		if !ok {
			return nil, 0, fmt.Errorf("modifier %q is not supported on this platform", m)
		}
		mods = append(mods, mod)
	}

	if key, ok := platformKeys[c.Key]; ok {
		return mods, key, nil
	}
	if key, ok := commonKeys[c.Key]; ok {
		return mods, key, nil
	}
	return nil, 0, fmt.Errorf("key %q is not supported on this platform", c.Key)
}

var commonKeys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,

	"space":  hotkey.KeySpace,
	"enter":  hotkey.KeyReturn,
	"escape": hotkey.KeyEscape,
	"delete": hotkey.KeyDelete,
	"tab":    hotkey.KeyTab,
	"left":   hotkey.KeyLeft,
	"right":  hotkey.KeyRight,
	"up":     hotkey.KeyUp,
	"down":   hotkey.KeyDown,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}
