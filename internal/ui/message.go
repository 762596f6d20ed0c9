package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the status view.
type MsgKind int

// Msg represents all possible messages in the status view (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatus MsgKind = iota
	MsgNotice
)

// StatusMsg is the constructor for [MsgStatus]: a new indicator text.
func StatusMsg(text string) Msg {
	return Msg{kind: MsgStatus, data: text}
}

// NoticeMsg is the constructor for [MsgNotice]: a text that should stand out, such as
// the keepalive suspension notice.
func NoticeMsg(text string) Msg {
	return Msg{kind: MsgNotice, data: text}
}

// Kind returns the message kind.
func (m Msg) Kind() MsgKind { return m.kind }

// Text returns the message payload.
func (m Msg) Text() string {
	s, _ := m.data.(string)
	return s
}
