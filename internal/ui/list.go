package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = statusItem{}

// statusItem is one earlier indicator text.
type statusItem struct {
	text   string
	notice bool
	at     time.Time
}

func (i statusItem) FilterValue() string { return i.text }
func (i statusItem) Title() string       { return i.text }
func (i statusItem) Description() string {
	if i.notice {
		return "notice • " + i.at.Format(time.Kitchen)
	}
	return i.at.Format(time.Kitchen)
}
