//go:build !linux && !darwin && !windows

package system

import (
	"fmt"

	"github.com/desertthunder/spotkey/internal/hotkeys"
)

// Backend is unavailable on this platform; every grab fails.
type Backend struct {
	events chan hotkeys.Combo
}

func New() *Backend {
	return &Backend{events: make(chan hotkeys.Combo)}
}

func (b *Backend) Events() <-chan hotkeys.Combo { return b.events }

func (b *Backend) Register(c hotkeys.Combo) error {
	return fmt.Errorf("global hotkeys are not supported on this platform")
}

func (b *Backend) Unregister(c hotkeys.Combo) error { return nil }

func (b *Backend) Close() error { return nil }
