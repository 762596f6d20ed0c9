package indicator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotkey/internal/ui"
)

// ErrClosed is returned by [Terminal.Run] when the user quits the status view.
var ErrClosed = errors.New("status view closed")

// noticePrefix marks texts that should stand out in the terminal.
const noticePrefix = "!"

// Terminal renders the indicator text in a bubbletea status view.
//
// SetText only records the latest text; Run delivers it to the program so a busy terminal
// never slows down the caller.
type Terminal struct {
	mu     sync.Mutex
	latest string
	notify chan struct{}

	opts []tea.ProgramOption
}

// NewTerminal creates a terminal sink. Options are passed to [tea.NewProgram].
func NewTerminal(opts ...tea.ProgramOption) *Terminal {
	return &Terminal{notify: make(chan struct{}, 1), opts: opts}
}

// NewHeadlessTerminal creates a terminal sink that reads from in and renders to out.
func NewHeadlessTerminal(in io.Reader, out io.Writer) *Terminal {
	return NewTerminal(tea.WithInput(in), tea.WithOutput(out), tea.WithoutSignalHandler())
}

func (t *Terminal) SetText(text string) {
	t.mu.Lock()
	t.latest = text
	t.mu.Unlock()

	select {
	case t.notify <- struct{}{}:
	default:
	}
}

func (t *Terminal) take() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// Run starts the status view and blocks until ctx is cancelled or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	model := ui.NewModel()
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.opts...)
	program := tea.NewProgram(model, opts...)

	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()
	go t.pump(pumpCtx, program)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("status view failed: %w", err)
	}

	if model.Quit() {
		return ErrClosed
	}
	return nil
}

func (t *Terminal) pump(ctx context.Context, program *tea.Program) {
	if text := t.take(); text != "" {
		program.Send(message(text))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.notify:
			program.Send(message(t.take()))
		}
	}
}

// Notice formats text so the terminal highlights it.
func Notice(text string) string {
	return noticePrefix + " " + text
}

func message(text string) ui.Msg {
	if rest, ok := strings.CutPrefix(text, noticePrefix+" "); ok {
		return ui.NoticeMsg(rest)
	}
	return ui.StatusMsg(text)
}
