package hotkeys

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/shared"
)

// DefaultFollowUpWindow is how long a pressed leader waits for its next combo.
const DefaultFollowUpWindow = 2300 * time.Millisecond

// Handler runs when a chord completes.
type Handler = func(ctx context.Context)

// Binding names a chord and the handler it triggers.
type Binding struct {
	Chord   string
	Name    string
	Handler Handler
}

type entry struct {
	chord   Chord
	name    string
	handler Handler
}

// Table is the hotkey dispatch table.
type Table struct {
	backend Backend
	logger  *log.Logger
	window  time.Duration

	mu      sync.Mutex
	entries map[string]entry
	held    map[string]int
	armed   Chord
	pending []Combo
}

// NewTable creates a dispatch table over backend. A zero window uses [DefaultFollowUpWindow].
func NewTable(backend Backend, logger *log.Logger, window time.Duration) *Table {
	if window <= 0 {
		window = DefaultFollowUpWindow
	}
	return &Table{
		backend: backend,
		logger:  logger,
		window:  window,
		entries: make(map[string]entry),
		held:    make(map[string]int),
	}
}

// Register binds chord to handler. It returns false when the chord is invalid, already bound
// or cannot be grabbed.
func (t *Table) Register(chord string, handler Handler) bool {
	return t.bind(chord, "", handler) == nil
}

// Unregister removes chord. It returns false when the chord was not bound.
func (t *Table) Unregister(chord string) bool {
	c, err := ParseChord(chord)
	if err != nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := c.String()
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	t.release(c.Leader())
	return true
}

// RegisterAll binds every binding and returns the chords that failed.
func (t *Table) RegisterAll(bindings []Binding) []string {
	var failed []string
	for _, b := range bindings {
		if err := t.bind(b.Chord, b.Name, b.Handler); err != nil {
			t.logger.Warn("failed to bind hotkey", "chord", b.Chord, "name", b.Name, "error", err)
			failed = append(failed, b.Chord)
		}
	}
	return failed
}

// Chords returns the bound chords in canonical form, sorted.
func (t *Table) Chords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	chords := make([]string, 0, len(t.entries))
	for key := range t.entries {
		chords = append(chords, key)
	}
	slices.Sort(chords)
	return chords
}

func (t *Table) bind(chord, name string, handler Handler) error {
	c, err := ParseChord(chord)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := c.String()
	if _, ok := t.entries[key]; ok {
		return fmt.Errorf("%w: %s", shared.ErrChordBound, key)
	}
	if err := t.acquire(c.Leader()); err != nil {
		return err
	}
	t.entries[key] = entry{chord: c, name: name, handler: handler}
	return nil
}

// acquire grabs combo from the backend on first use. Callers hold mu.
func (t *Table) acquire(c Combo) error {
	key := c.String()
	if t.held[key] == 0 {
		if err := t.backend.Register(c); err != nil {
			return fmt.Errorf("failed to grab %s: %w", key, err)
		}
	}
	t.held[key]++
	return nil
}

// release drops one use of combo and ungrabs it when unused. Callers hold mu.
func (t *Table) release(c Combo) {
	key := c.String()
	if t.held[key] == 0 {
		return
	}
	t.held[key]--
	if t.held[key] > 0 {
		return
	}
	delete(t.held, key)
	if err := t.backend.Unregister(c); err != nil {
		t.logger.Warn("failed to release hotkey", "combo", key, "error", err)
	}
}

// Listen consumes backend events until ctx is cancelled.
func (t *Table) Listen(ctx context.Context) error {
	timer := time.NewTimer(t.window)
	timer.Stop()
	defer timer.Stop()

	events := t.backend.Events()
	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			t.disarm()
			t.mu.Unlock()
			return nil
		case combo, ok := <-events:
			if !ok {
				return nil
			}
			t.press(ctx, combo, timer)
		case <-timer.C:
			t.mu.Lock()
			if len(t.armed) > 0 {
				t.logger.Debug("follow-up window expired", "leader", t.armed.String())
			}
			t.disarm()
			t.mu.Unlock()
		}
	}
}

func (t *Table) press(ctx context.Context, combo Combo, timer *time.Timer) {
	t.mu.Lock()

	prefix := append(slices.Clone(t.armed), combo)
	if e, ok := t.entries[prefix.String()]; ok {
		t.disarm()
		t.mu.Unlock()
		timer.Stop()
		t.dispatch(ctx, e)
		return
	}

	if next := t.nextSteps(prefix); len(next) > 0 {
		t.disarm()
		t.arm(prefix, next)
		t.mu.Unlock()
		timer.Reset(t.window)
		return
	}

	wasArmed := len(t.armed) > 0
	t.disarm()
	t.mu.Unlock()
	timer.Stop()

	if wasArmed {
		t.press(ctx, combo, timer)
	}
}

// nextSteps returns the distinct combos that extend prefix towards a bound chord. Callers hold mu.
func (t *Table) nextSteps(prefix Chord) []Combo {
	seen := make(map[string]bool)
	var next []Combo
	for _, e := range t.entries {
		if len(e.chord) <= len(prefix) || !hasPrefix(e.chord, prefix) {
			continue
		}
		c := e.chord[len(prefix)]
		if key := c.String(); !seen[key] {
			seen[key] = true
			next = append(next, c)
		}
	}
	return next
}

// arm grabs the follow-up combos. Callers hold mu.
func (t *Table) arm(prefix Chord, next []Combo) {
	t.armed = prefix
	for _, c := range next {
		if err := t.acquire(c); err != nil {
			t.logger.Warn("failed to grab follow-up key", "combo", c.String(), "error", err)
			continue
		}
		t.pending = append(t.pending, c)
	}
}

// disarm closes the follow-up window. Callers hold mu.
func (t *Table) disarm() {
	for _, c := range t.pending {
		t.release(c)
	}
	t.pending = nil
	t.armed = nil
}

func (t *Table) dispatch(ctx context.Context, e entry) {
	id := shared.GenerateID()
	logger := t.logger.With("chord", e.chord.String(), "dispatch", id[:8])
	if e.name != "" {
		logger = logger.With("name", e.name)
	}
	logger.Debug("hotkey pressed")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("hotkey handler panicked", "panic", r)
		}
	}()

	start := time.Now()
	e.handler(ctx)
	logger.Debug("hotkey handled", "took", time.Since(start))
}

func hasPrefix(c, prefix Chord) bool {
	for i := range prefix {
		if c[i].String() != prefix[i].String() {
			return false
		}
	}
	return true
}

// Describe renders bindings as "chord  name" lines for display.
func Describe(bindings []Binding) string {
	width := 0
	for _, b := range bindings {
		width = max(width, len(b.Chord))
	}

	var sb strings.Builder
	for _, b := range bindings {
		fmt.Fprintf(&sb, "%-*s  %s\n", width, b.Chord, b.Name)
	}
	return sb.String()
}
